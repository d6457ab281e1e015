package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

type paymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) repository.PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentCols = `order_id, listing_id, user_id, amount, type, status, gateway_state, created_at, settled_at`

func (r *paymentRepository) Create(ctx context.Context, record *domain.PaymentRecord) error {
	const q = `
		INSERT INTO payments (order_id, listing_id, user_id, amount, type, status, gateway_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q,
		record.OrderID, record.ListingID, record.UserID,
		record.Amount, record.Type, record.Status, record.GatewayState,
	)
	return err
}

func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE order_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.PaymentRecord
	err := r.pool.QueryRow(ctx, q, orderID).Scan(
		&p.OrderID, &p.ListingID, &p.UserID, &p.Amount, &p.Type,
		&p.Status, &p.GatewayState, &p.CreatedAt, &p.SettledAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) SetGatewayState(ctx context.Context, orderID, state string) error {
	const q = `UPDATE payments SET gateway_state = $2 WHERE order_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, orderID, state)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *paymentRepository) Settle(ctx context.Context, orderID, status string) (*domain.PaymentRecord, error) {
	// The WHERE status = 'pending' guard is the compare-and-set: a
	// record that already reached a terminal status matches no row.
	const q = `
		UPDATE payments
		SET status = $2, settled_at = now()
		WHERE order_id = $1 AND status = 'pending'
		RETURNING ` + paymentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.PaymentRecord
	err := r.pool.QueryRow(ctx, q, orderID, status).Scan(
		&p.OrderID, &p.ListingID, &p.UserID, &p.Amount, &p.Type,
		&p.Status, &p.GatewayState, &p.CreatedAt, &p.SettledAt,
	)
	if err == pgx.ErrNoRows {
		existing, findErr := r.FindByOrderID(ctx, orderID)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, domain.ErrPaymentSettled
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
