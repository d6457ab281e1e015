package repository

import (
	"context"
	"time"

	"github.com/unimart/unimart-server/internal/domain"
)

// Storage abstractions for the auth and payment lifecycles. Services
// depend on these interfaces only; memory implementations back tests and
// single-process deployments, postgres implementations back persistent
// ones. Find methods return (nil, nil) when no row matches.

type UserRepository interface {
	// Create fails with domain.ErrEmailExists when the email is taken.
	// The uniqueness check and the insert are atomic with respect to
	// concurrent Creates.
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, userID string) (*domain.User, error)
	MarkVerified(ctx context.Context, userID string) error
}

type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	FindByID(ctx context.Context, listingID string) (*domain.Listing, error)
	List(ctx context.Context) ([]domain.Listing, error)
}

type PaymentRepository interface {
	// Create fails when the orderId is already present.
	Create(ctx context.Context, record *domain.PaymentRecord) error
	FindByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error)
	SetGatewayState(ctx context.Context, orderID, state string) error
	// Settle transitions a pending record to the given terminal status.
	// It fails with domain.ErrPaymentNotFound for an unknown orderId and
	// domain.ErrPaymentSettled when the record is already terminal; the
	// check and the transition are one atomic step.
	Settle(ctx context.Context, orderID, status string) (*domain.PaymentRecord, error)
}

type OtpRepository interface {
	// Upsert stores the record, replacing any prior record for the same
	// email.
	Upsert(ctx context.Context, record *domain.OtpRecord) error
	Find(ctx context.Context, email string) (*domain.OtpRecord, error)
	Delete(ctx context.Context, email string) error
}

type RateLimiter interface {
	// Allow reports whether another request under key fits within limit
	// requests per window. Implementations fail open on backend errors.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
