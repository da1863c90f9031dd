package bookauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginSuccess(t *testing.T) {
	f := newTestEngine(t, testConfig())
	id := f.signupVerified(t)

	result := f.login(t)
	if result.MFARequired {
		t.Error("MFA demanded for an account without MFA")
	}
	if result.SessionToken == "" {
		t.Fatal("no session token issued")
	}
	if result.AccountID != id {
		t.Errorf("AccountID = %d, want %d", result.AccountID, id)
	}

	auth, err := f.engine.Authenticate(context.Background(), result.SessionToken)
	if err != nil {
		t.Fatalf("issued token does not authenticate: %v", err)
	}
	if auth.AccountID != id || auth.Email != testEmail || !auth.Organiser {
		t.Errorf("unexpected principal: %+v", auth)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newTestEngine(t, testConfig())

	_, err := f.engine.Login(context.Background(), "nobody@example.com", testPassword)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Login = %v, want ErrAccountNotFound", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newTestEngine(t, testConfig())
	id := f.signupVerified(t)

	_, err := f.engine.Login(context.Background(), testEmail, "Wrong-Passw0rd-9!")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login = %v, want ErrInvalidCredentials", err)
	}
	if got := f.accounts.get(t, id).FailedLogins; got != 1 {
		t.Errorf("FailedLogins = %d, want 1", got)
	}
}

func TestLoginUnverifiedAccount(t *testing.T) {
	f := newTestEngine(t, testConfig())
	ctx := context.Background()

	if err := f.engine.Signup(ctx, testSignupInput()); err != nil {
		t.Fatal(err)
	}

	_, err := f.engine.Login(ctx, testEmail, testPassword)
	if !errors.Is(err, ErrAccountUnverified) {
		t.Errorf("Login = %v, want ErrAccountUnverified", err)
	}
}

func TestLoginLockoutThreshold(t *testing.T) {
	f := newTestEngine(t, testConfig())
	id := f.signupVerified(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.engine.Login(ctx, testEmail, "Wrong-Passw0rd-9!")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// The fifth failure trips the lock and says so.
	_, err := f.engine.Login(ctx, testEmail, "Wrong-Passw0rd-9!")
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("attempt 5 = %v, want ErrTooManyAttempts", err)
	}

	account := f.accounts.get(t, id)
	if !account.Locked(time.Now()) {
		t.Fatal("threshold reached but account not locked")
	}
	remaining := time.Until(account.LockedUntil)
	if remaining < 29*time.Minute || remaining > 30*time.Minute {
		t.Errorf("lockout window %v, want about 30m", remaining)
	}

	// While locked even the correct password is refused.
	_, err = f.engine.Login(ctx, testEmail, testPassword)
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked login = %v, want ErrAccountLocked", err)
	}
	var lockErr *LockoutError
	if !errors.As(err, &lockErr) {
		t.Fatal("locked login error carries no remaining-time detail")
	}
	if lockErr.Minutes() < 1 || lockErr.Minutes() > 30 {
		t.Errorf("Minutes() = %d", lockErr.Minutes())
	}
}

func TestLoginLockoutExpires(t *testing.T) {
	f := newTestEngine(t, testConfig())
	id := f.signupVerified(t)
	ctx := context.Background()

	f.accounts.mutate(t, id, func(a *Account) {
		a.FailedLogins = 5
		a.LockedUntil = time.Now().Add(-time.Minute)
	})

	result, err := f.engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("login after lockout expiry: %v", err)
	}
	if result.SessionToken == "" {
		t.Fatal("no session token after lockout expiry")
	}
	if got := f.accounts.get(t, id).FailedLogins; got != 0 {
		t.Errorf("FailedLogins = %d after expired lockout, want 0", got)
	}
}

func TestLoginFailureAfterExpiredLockoutStartsFresh(t *testing.T) {
	f := newTestEngine(t, testConfig())
	id := f.signupVerified(t)
	ctx := context.Background()

	f.accounts.mutate(t, id, func(a *Account) {
		a.FailedLogins = 5
		a.LockedUntil = time.Now().Add(-time.Minute)
	})

	_, err := f.engine.Login(ctx, testEmail, "Wrong-Passw0rd-9!")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login = %v, want ErrInvalidCredentials", err)
	}
	if got := f.accounts.get(t, id).FailedLogins; got != 1 {
		t.Errorf("FailedLogins = %d, want a fresh count of 1", got)
	}
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	f := newTestEngine(t, testConfig())
	id := f.signupVerified(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = f.engine.Login(ctx, testEmail, "Wrong-Passw0rd-9!")
	}
	f.login(t)

	if got := f.accounts.get(t, id).FailedLogins; got != 0 {
		t.Errorf("FailedLogins = %d after success, want 0", got)
	}
}

func TestLoginWithMFAEnabled(t *testing.T) {
	f := newTestEngine(t, testConfig())
	id := f.signupVerified(t)
	ctx := context.Background()

	f.accounts.mutate(t, id, func(a *Account) { a.MFAEnabled = true })

	result, err := f.engine.Login(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !result.MFARequired {
		t.Fatal("MFARequired not set")
	}
	if result.SessionToken != "" {
		t.Fatal("session token issued before the MFA step")
	}

	account := f.accounts.get(t, id)
	if len(account.MFA.Value) != 6 {
		t.Fatalf("stored code %q is not 6 digits", account.MFA.Value)
	}

	f.mailer.waitForMail(t, 2) // verification mail + code mail
	if f.mailer.last(t).Params["code"] != account.MFA.Value {
		t.Error("mailed code does not match the stored one")
	}
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	cfg := testConfig()
	cfg.Password.Time = 2
	f := newTestEngine(t, cfg)
	ctx := context.Background()

	// Seed a hash produced under weaker parameters than the engine's.
	weak := testConfig()
	weakFixture := newTestEngine(t, weak)
	if err := weakFixture.engine.Signup(ctx, testSignupInput()); err != nil {
		t.Fatal(err)
	}
	seed, _ := weakFixture.accounts.ByEmail(ctx, testEmail)

	created, err := f.accounts.Create(ctx, Account{
		Email:         testEmail,
		PasswordHash:  seed.PasswordHash,
		EmailVerified: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	f.login(t)

	upgraded := f.accounts.get(t, created.ID)
	if upgraded.PasswordHash == seed.PasswordHash {
		t.Error("legacy hash not upgraded on login")
	}
}
