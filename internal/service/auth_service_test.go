package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/otp"
	"github.com/unimart/unimart-server/internal/repository"
	"github.com/unimart/unimart-server/internal/repository/memory"
	"github.com/unimart/unimart-server/pkg/auth"
	"github.com/unimart/unimart-server/pkg/config"
)

// ---------- Mocks ----------

type mockMailer struct {
	mu       sync.Mutex
	lastTo   string
	lastCode string
	sendErr  error
}

func (m *mockMailer) SendOtpEmail(toEmail, toName, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	m.lastCode = code
	return m.sendErr
}

func (m *mockMailer) code() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCode
}

type recordingBus struct {
	mu       sync.Mutex
	subjects []string
}

func (b *recordingBus) Publish(_ context.Context, subject string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	return nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) has(subject string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Gateway.CallbackSecret = "callback-secret"
	return cfg
}

// ---------- Test setup ----------

type authFixture struct {
	svc      AuthService
	userRepo repository.UserRepository
	mailer   *mockMailer
	bus      *recordingBus
	cfg      *config.Config
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	userRepo := memory.NewUserRepository()
	otpIssuer := otp.NewIssuer(memory.NewOtpRepository(), 10*time.Minute)
	m := &mockMailer{}
	bus := &recordingBus{}
	cfg := testConfig()

	return &authFixture{
		svc:      NewAuthService(userRepo, otpIssuer, m, bus, cfg),
		userRepo: userRepo,
		mailer:   m,
		bus:      bus,
		cfg:      cfg,
	}
}

func (f *authFixture) register(t *testing.T, email, password, fullName string) {
	t.Helper()
	err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		Email: email, Password: password, FullName: fullName,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

// ---------- Tests ----------

func TestRegister_CreatesUnverifiedUserAndDeliversOtp(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "password1", "A B")

	user, err := f.userRepo.FindByEmail(context.Background(), "a@x.com")
	if err != nil || user == nil {
		t.Fatalf("Expected stored user, got %v / %v", user, err)
	}
	if user.IsVerified {
		t.Fatal("New user must start unverified")
	}
	if user.Role != domain.RoleStudent {
		t.Fatalf("Expected STUDENT role, got %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password1" {
		t.Fatal("Password must be stored hashed")
	}

	if f.mailer.lastTo != "a@x.com" || len(f.mailer.code()) != 6 {
		t.Fatalf("Expected 6-digit OTP delivered to a@x.com, got %q to %q", f.mailer.code(), f.mailer.lastTo)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"missing email", domain.RegisterRequest{Password: "pw", FullName: "A"}},
		{"missing password", domain.RegisterRequest{Email: "a@x.com", FullName: "A"}},
		{"missing full name", domain.RegisterRequest{Email: "a@x.com", Password: "pw"}},
		{"bad email", domain.RegisterRequest{Email: "not-an-email", Password: "pw", FullName: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.Register(context.Background(), &tt.req)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "pw-first", "First User")

	err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		Email: "a@x.com", Password: "pw-second", FullName: "Second User",
	})
	if !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("Expected ErrEmailExists, got %v", err)
	}

	// First registration is unaffected.
	user, _ := f.userRepo.FindByEmail(context.Background(), "a@x.com")
	if user.FullName != "First User" {
		t.Fatalf("First user was overwritten: %+v", user)
	}
}

func TestVerifyOtp_SucceedsExactlyOnce(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "password1", "A B")
	code := f.mailer.code()

	resp, err := f.svc.VerifyOtp(context.Background(), &domain.VerifyOtpRequest{
		Email: "a@x.com", Otp: code,
	})
	if err != nil {
		t.Fatalf("VerifyOtp failed: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("Expected a session token")
	}
	if !resp.User.IsVerified {
		t.Fatal("Expected user to be verified in response")
	}

	claims, err := auth.Parse(resp.Token, f.cfg.Auth.JWTSecret)
	if err != nil {
		t.Fatalf("Token did not parse: %v", err)
	}
	if claims.UserID != resp.User.UserID {
		t.Fatalf("Token user %s does not match %s", claims.UserID, resp.User.UserID)
	}

	// The code is single-use.
	_, err = f.svc.VerifyOtp(context.Background(), &domain.VerifyOtpRequest{
		Email: "a@x.com", Otp: code,
	})
	if !errors.Is(err, domain.ErrInvalidOtp) {
		t.Fatalf("Expected ErrInvalidOtp on replay, got %v", err)
	}
}

func TestVerifyOtp_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.VerifyOtp(context.Background(), &domain.VerifyOtpRequest{
		Email: "nobody@x.com", Otp: "123456",
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestVerifyOtp_WrongCode(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "password1", "A B")

	wrong := "000000"
	if f.mailer.code() == wrong {
		wrong = "000001"
	}

	_, err := f.svc.VerifyOtp(context.Background(), &domain.VerifyOtpRequest{
		Email: "a@x.com", Otp: wrong,
	})
	if !errors.Is(err, domain.ErrInvalidOtp) {
		t.Fatalf("Expected ErrInvalidOtp, got %v", err)
	}
}

func TestLogin_EnumerationResistance(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "password1", "A B")

	// Unknown email, wrong password and unverified account all collapse
	// to the same error.
	tests := []struct {
		name string
		req  domain.LoginRequest
	}{
		{"unknown email", domain.LoginRequest{Email: "other@x.com", Password: "password1"}},
		{"wrong password", domain.LoginRequest{Email: "a@x.com", Password: "wrong"}},
		{"unverified user", domain.LoginRequest{Email: "a@x.com", Password: "password1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), &tt.req)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLogin_AfterVerification(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "password1", "A B")

	verified, err := f.svc.VerifyOtp(context.Background(), &domain.VerifyOtpRequest{
		Email: "a@x.com", Otp: f.mailer.code(),
	})
	if err != nil {
		t.Fatalf("VerifyOtp failed: %v", err)
	}

	resp, err := f.svc.Login(context.Background(), &domain.LoginRequest{
		Email: "a@x.com", Password: "password1",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("Expected a session token")
	}

	claims, err := auth.Parse(resp.Token, f.cfg.Auth.JWTSecret)
	if err != nil {
		t.Fatalf("Token did not parse: %v", err)
	}
	if claims.UserID != verified.User.UserID {
		t.Fatalf("Login token is for %s, expected %s", claims.UserID, verified.User.UserID)
	}
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.Register(ctx, &domain.RegisterRequest{
				Email: "same@x.com", Password: "password1", FullName: "A B",
			})
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrEmailExists) {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("Expected exactly one registration to succeed, got %d", succeeded)
	}
}
