package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

type paymentRepository struct {
	mu      sync.Mutex
	records map[string]*domain.PaymentRecord // keyed by orderId
}

func NewPaymentRepository() repository.PaymentRepository {
	return &paymentRepository{
		records: make(map[string]*domain.PaymentRecord),
	}
}

func (r *paymentRepository) Create(_ context.Context, record *domain.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.OrderID]; exists {
		return fmt.Errorf("duplicate order id %s", record.OrderID)
	}

	rec := *record
	r.records[rec.OrderID] = &rec
	return nil
}

func (r *paymentRepository) FindByOrderID(_ context.Context, orderID string) (*domain.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[orderID]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (r *paymentRepository) SetGatewayState(_ context.Context, orderID, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[orderID]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	rec.GatewayState = state
	return nil
}

// Settle is the compare-and-set boundary: the status check and the
// transition happen under one lock so concurrent callbacks cannot apply
// conflicting transitions.
func (r *paymentRepository) Settle(_ context.Context, orderID, status string) (*domain.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[orderID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	if rec.IsTerminal() {
		return nil, domain.ErrPaymentSettled
	}

	now := time.Now()
	rec.Status = status
	rec.SettledAt = &now

	copied := *rec
	return &copied, nil
}
