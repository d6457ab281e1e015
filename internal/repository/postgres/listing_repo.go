package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

type listingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) repository.ListingRepository {
	return &listingRepository{pool: pool}
}

const listingCols = `listing_id, owner_id, title, description, category, sale_price, is_rentable, rental_price_per_day, status, created_at`

func (r *listingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	const q = `
		INSERT INTO listings (listing_id, owner_id, title, description, category, sale_price, is_rentable, rental_price_per_day, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q,
		listing.ListingID, listing.OwnerID, listing.Title, listing.Description,
		listing.Category, listing.SalePrice, listing.IsRentable,
		listing.RentalPricePerDay, listing.Status,
	)
	return err
}

func (r *listingRepository) FindByID(ctx context.Context, listingID string) (*domain.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings WHERE listing_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var l domain.Listing
	err := r.pool.QueryRow(ctx, q, listingID).Scan(
		&l.ListingID, &l.OwnerID, &l.Title, &l.Description, &l.Category,
		&l.SalePrice, &l.IsRentable, &l.RentalPricePerDay, &l.Status, &l.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) List(ctx context.Context) ([]domain.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings ORDER BY created_at`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(
			&l.ListingID, &l.OwnerID, &l.Title, &l.Description, &l.Category,
			&l.SalePrice, &l.IsRentable, &l.RentalPricePerDay, &l.Status, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}
