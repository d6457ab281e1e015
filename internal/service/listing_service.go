package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

type ListingService interface {
	Create(ctx context.Context, owner *domain.User, req *domain.CreateListingRequest) (*domain.Listing, error)
	List(ctx context.Context) ([]domain.Listing, error)
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
}

type listingService struct {
	listingRepo repository.ListingRepository
}

func NewListingService(listingRepo repository.ListingRepository) ListingService {
	return &listingService{listingRepo: listingRepo}
}

func (s *listingService) Create(ctx context.Context, owner *domain.User, req *domain.CreateListingRequest) (*domain.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	listing := &domain.Listing{
		ListingID:         "listing_" + uuid.NewString(),
		OwnerID:           owner.UserID,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		SalePrice:         req.SalePrice,
		IsRentable:        req.IsRentable,
		RentalPricePerDay: req.RentalPricePerDay,
		Status:            domain.ListingAvailable,
		CreatedAt:         time.Now(),
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return listing, nil
}

func (s *listingService) List(ctx context.Context) ([]domain.Listing, error) {
	listings, err := s.listingRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

func (s *listingService) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}
	return listing, nil
}
