package bookauth

import (
	"context"
	"sync"
	"testing"
	"time"
)

// In-file test doubles. The engine only sees the store interfaces, so the
// mocks double as probes: tests reach into them to read challenges and to
// force expiry without sleeping.

type mockAccounts struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]Account

	failNext error
}

func newMockAccounts() *mockAccounts {
	return &mockAccounts{rows: make(map[int64]Account)}
}

func (s *mockAccounts) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *mockAccounts) Create(_ context.Context, account Account) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return Account{}, err
	}
	for _, row := range s.rows {
		if row.Email == account.Email {
			return Account{}, ErrDuplicateEmail
		}
	}

	s.seq++
	account.ID = s.seq
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	s.rows[account.ID] = account
	return account, nil
}

func (s *mockAccounts) ByEmail(_ context.Context, email string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return Account{}, err
	}
	for _, row := range s.rows {
		if row.Email == email {
			return row, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *mockAccounts) ByID(_ context.Context, id int64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return Account{}, err
	}
	row, ok := s.rows[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return row, nil
}

func (s *mockAccounts) ByVerificationToken(_ context.Context, token string) (Account, error) {
	return s.find(func(a Account) bool { return token != "" && a.Verification.Value == token })
}

func (s *mockAccounts) ByResetToken(_ context.Context, token string) (Account, error) {
	return s.find(func(a Account) bool { return token != "" && a.Reset.Value == token })
}

func (s *mockAccounts) find(match func(Account) bool) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return Account{}, err
	}
	for _, row := range s.rows {
		if match(row) {
			return row, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *mockAccounts) Update(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.rows[account.ID]; !ok {
		return ErrNotFound
	}
	account.UpdatedAt = time.Now()
	s.rows[account.ID] = account
	return nil
}

// get returns the stored row for direct inspection.
func (s *mockAccounts) get(t *testing.T, id int64) Account {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		t.Fatalf("no account with id %d", id)
	}
	return row
}

// mutate edits the stored row in place, bypassing the engine. Used to
// back-date expiries and flip flags the flows do not expose.
func (s *mockAccounts) mutate(t *testing.T, id int64, fn func(*Account)) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		t.Fatalf("no account with id %d", id)
	}
	fn(&row)
	s.rows[id] = row
}

type mockRememberTokens struct {
	mu   sync.Mutex
	rows map[string]RememberToken

	failNext error
}

func newMockRememberTokens() *mockRememberTokens {
	return &mockRememberTokens{rows: make(map[string]RememberToken)}
}

func (s *mockRememberTokens) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *mockRememberTokens) Insert(_ context.Context, token RememberToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}
	s.rows[token.ID] = token
	return nil
}

func (s *mockRememberTokens) ByToken(_ context.Context, token string) (RememberToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return RememberToken{}, err
	}
	for _, row := range s.rows {
		if row.Token == token {
			return row, nil
		}
	}
	return RememberToken{}, ErrNotFound
}

func (s *mockRememberTokens) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *mockRememberTokens) DeleteForAccount(_ context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.rows {
		if row.AccountID == accountID {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *mockRememberTokens) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *mockRememberTokens) mutate(t *testing.T, fn func(*RememberToken)) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.rows {
		fn(&row)
		s.rows[id] = row
	}
}

// captureMailer records every message the outbox delivers.
type captureMailer struct {
	mu   sync.Mutex
	sent []Message
}

func (m *captureMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *captureMailer) last(t *testing.T) Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail delivered")
	}
	return m.sent[len(m.sent)-1]
}

// waitForMail polls until at least n messages were delivered. The outbox
// is asynchronous; tests that assert on mail content must wait.
func (m *captureMailer) waitForMail(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.count() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d mail message(s), have %d", n, m.count())
}

type testFixture struct {
	engine         *Engine
	accounts       *mockAccounts
	rememberTokens *mockRememberTokens
	mailer         *captureMailer
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.Secret = []byte("0123456789abcdef0123456789abcdef")
	// Cheapest parameters the hasher accepts; tests hash a lot.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) *testFixture {
	t.Helper()

	f := &testFixture{
		accounts:       newMockAccounts(),
		rememberTokens: newMockRememberTokens(),
		mailer:         &captureMailer{},
	}

	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(f.accounts).
		WithRememberTokenStore(f.rememberTokens).
		WithMailer(f.mailer).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	f.engine = engine
	return f
}

const (
	testEmail    = "alice@example.com"
	testPassword = "Tr!pGr1d-Plann3r"
)

func testSignupInput() SignupInput {
	return SignupInput{
		Email:     testEmail,
		FirstName: "Alice",
		LastName:  "Archer",
		Password:  testPassword,
		Organiser: true,
	}
}

// signupVerified runs the signup flow and completes email verification,
// returning the account ID.
func (f *testFixture) signupVerified(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()

	if err := f.engine.Signup(ctx, testSignupInput()); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	account, err := f.accounts.ByEmail(ctx, testEmail)
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if err := f.engine.VerifyEmail(ctx, account.Verification.Value); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	return account.ID
}

// login performs a full password login and fails the test on any error.
func (f *testFixture) login(t *testing.T) *LoginResult {
	t.Helper()
	result, err := f.engine.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return result
}
