package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/mailer"
	"github.com/unimart/unimart-server/internal/otp"
	"github.com/unimart/unimart-server/internal/repository"
	"github.com/unimart/unimart-server/pkg/auth"
	"github.com/unimart/unimart-server/pkg/config"
	"github.com/unimart/unimart-server/pkg/events"
	"github.com/unimart/unimart-server/pkg/logger"
)

// AuthService drives the per-user lifecycle: unregistered, pending
// verification, verified.
type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) error
	VerifyOtp(ctx context.Context, req *domain.VerifyOtpRequest) (*domain.SessionResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.SessionResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	otp      *otp.Issuer
	mailer   mailer.Service
	eventBus events.Publisher
	config   *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	otpIssuer *otp.Issuer,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo: userRepo,
		otp:      otpIssuer,
		mailer:   mailer,
		eventBus: eventBus,
		config:   config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return domain.ErrEmailExists
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		UserID:       "user_" + uuid.NewString(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		Role:         domain.RoleStudent,
		IsVerified:   false,
		CreatedAt:    time.Now(),
	}

	// The repository re-checks uniqueness atomically; the pre-check
	// above only keeps the common case from paying for a hash.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}

	code, err := s.otp.Issue(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to issue OTP: %w", err)
	}

	if err := s.mailer.SendOtpEmail(user.Email, user.FullName, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send OTP email", "error", err, "user_id", user.UserID)
		// The code is stored; delivery can be retried out of band.
	}

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.UserID,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user.registered", "error", err)
	}

	return nil
}

func (s *authService) VerifyOtp(ctx context.Context, req *domain.VerifyOtpRequest) (*domain.SessionResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	ok, err := s.otp.Verify(ctx, req.Email, req.Otp)
	if err != nil {
		return nil, fmt.Errorf("failed to verify OTP: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidOtp
	}

	if err := s.userRepo.MarkVerified(ctx, user.UserID); err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}
	user.IsVerified = true

	token, err := auth.Mint(user.UserID, s.config.Auth.JWTSecret, s.config.Auth.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.UserVerified, events.UserVerifiedEvent{
		UserID:     user.UserID,
		Email:      user.Email,
		VerifiedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user.verified", "error", err)
	}

	return &domain.SessionResponse{Token: token, User: user}, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.SessionResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	// Wrong password and unverified account are indistinguishable to
	// the caller.
	if !valid || !user.IsVerified {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.Mint(user.UserID, s.config.Auth.JWTSecret, s.config.Auth.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	return &domain.SessionResponse{Token: token, User: user}, nil
}
