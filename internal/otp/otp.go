package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

// Issuer generates and validates one-time codes. Codes are 6 decimal
// digits, stored bcrypt-hashed with an expiry, one active record per
// email. Verification fails closed and a verified code is single-use.
type Issuer struct {
	repo repository.OtpRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewIssuer(repo repository.OtpRepository, ttl time.Duration) *Issuer {
	return &Issuer{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Issue generates a fresh code for email, replacing any prior unconsumed
// code, and returns it for delivery by the caller's mailer.
func (i *Issuer) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	record := &domain.OtpRecord{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: i.now().Add(i.ttl),
	}
	if err := i.repo.Upsert(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	return code, nil
}

// Verify checks the submitted code for email. It returns false when no
// record exists, the code mismatches or the record expired; on success
// the record is deleted so the code cannot be replayed.
func (i *Issuer) Verify(ctx context.Context, email, submitted string) (bool, error) {
	record, err := i.repo.Find(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to look up code: %w", err)
	}
	if record == nil {
		return false, nil
	}
	if !i.now().Before(record.ExpiresAt) {
		return false, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(submitted)) != nil {
		return false, nil
	}

	if err := i.repo.Delete(ctx, email); err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}
	return true, nil
}

// generateCode draws a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
