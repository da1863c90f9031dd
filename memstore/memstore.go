// Package memstore provides in-memory implementations of the bookauth
// store interfaces. They back the runnable examples and are handy for
// integration-style tests of code built on the engine; production
// deployments implement the interfaces over a real database.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/tripgrid/bookauth"
)

// Accounts is a mutex-guarded in-memory bookauth.AccountStore. IDs are
// assigned sequentially starting at 1.
type Accounts struct {
	mu   sync.RWMutex
	seq  int64
	rows map[int64]bookauth.Account
}

// NewAccounts returns an empty account store.
func NewAccounts() *Accounts {
	return &Accounts{rows: make(map[int64]bookauth.Account)}
}

func (s *Accounts) Create(_ context.Context, account bookauth.Account) (bookauth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.Email == account.Email {
			return bookauth.Account{}, bookauth.ErrDuplicateEmail
		}
	}

	s.seq++
	account.ID = s.seq
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.rows[account.ID] = account

	return account, nil
}

func (s *Accounts) ByEmail(_ context.Context, email string) (bookauth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.Email == email {
			return row, nil
		}
	}
	return bookauth.Account{}, bookauth.ErrNotFound
}

func (s *Accounts) ByID(_ context.Context, id int64) (bookauth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return bookauth.Account{}, bookauth.ErrNotFound
	}
	return row, nil
}

func (s *Accounts) ByVerificationToken(_ context.Context, token string) (bookauth.Account, error) {
	return s.byChallenge(token, func(a bookauth.Account) string { return a.Verification.Value })
}

func (s *Accounts) ByResetToken(_ context.Context, token string) (bookauth.Account, error) {
	return s.byChallenge(token, func(a bookauth.Account) string { return a.Reset.Value })
}

func (s *Accounts) byChallenge(token string, value func(bookauth.Account) string) (bookauth.Account, error) {
	if token == "" {
		return bookauth.Account{}, bookauth.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if value(row) == token {
			return row, nil
		}
	}
	return bookauth.Account{}, bookauth.ErrNotFound
}

// Update replaces the stored record wholesale.
func (s *Accounts) Update(_ context.Context, account bookauth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[account.ID]; !ok {
		return bookauth.ErrNotFound
	}
	account.UpdatedAt = time.Now()
	s.rows[account.ID] = account
	return nil
}

// RememberTokens is a mutex-guarded in-memory bookauth.RememberTokenStore.
type RememberTokens struct {
	mu   sync.RWMutex
	rows map[string]bookauth.RememberToken
}

// NewRememberTokens returns an empty remember-token store.
func NewRememberTokens() *RememberTokens {
	return &RememberTokens{rows: make(map[string]bookauth.RememberToken)}
}

func (s *RememberTokens) Insert(_ context.Context, token bookauth.RememberToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[token.ID] = token
	return nil
}

func (s *RememberTokens) ByToken(_ context.Context, token string) (bookauth.RememberToken, error) {
	if token == "" {
		return bookauth.RememberToken{}, bookauth.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.Token == token {
			return row, nil
		}
	}
	return bookauth.RememberToken{}, bookauth.ErrNotFound
}

func (s *RememberTokens) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *RememberTokens) DeleteForAccount(_ context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.rows {
		if row.AccountID == accountID {
			delete(s.rows, id)
		}
	}
	return nil
}

// Len reports the number of stored remember tokens.
func (s *RememberTokens) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
