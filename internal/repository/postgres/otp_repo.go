package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

type otpRepository struct {
	pool *pgxpool.Pool
}

func NewOtpRepository(pool *pgxpool.Pool) repository.OtpRepository {
	return &otpRepository{pool: pool}
}

func (r *otpRepository) Upsert(ctx context.Context, record *domain.OtpRecord) error {
	const q = `
		INSERT INTO otp_codes (email, code_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, record.Email, record.CodeHash, record.ExpiresAt)
	return err
}

func (r *otpRepository) Find(ctx context.Context, email string) (*domain.OtpRecord, error) {
	const q = `SELECT email, code_hash, expires_at FROM otp_codes WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rec domain.OtpRecord
	err := r.pool.QueryRow(ctx, q, email).Scan(&rec.Email, &rec.CodeHash, &rec.ExpiresAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *otpRepository) Delete(ctx context.Context, email string) error {
	const q = `DELETE FROM otp_codes WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, email)
	return err
}
