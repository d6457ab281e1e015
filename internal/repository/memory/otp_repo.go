package memory

import (
	"context"
	"sync"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

type otpRepository struct {
	mu      sync.Mutex
	records map[string]*domain.OtpRecord // keyed by email
}

func NewOtpRepository() repository.OtpRepository {
	return &otpRepository{
		records: make(map[string]*domain.OtpRecord),
	}
}

func (r *otpRepository) Upsert(_ context.Context, record *domain.OtpRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *record
	r.records[rec.Email] = &rec
	return nil
}

func (r *otpRepository) Find(_ context.Context, email string) (*domain.OtpRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[email]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (r *otpRepository) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, email)
	return nil
}
