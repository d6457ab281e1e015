package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/repository"
)

type listingRepository struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
}

func NewListingRepository() repository.ListingRepository {
	return &listingRepository{
		listings: make(map[string]*domain.Listing),
	}
}

func (r *listingRepository) Create(_ context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := *listing
	r.listings[l.ListingID] = &l
	return nil
}

func (r *listingRepository) FindByID(_ context.Context, listingID string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[listingID]
	if !ok {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

func (r *listingRepository) List(_ context.Context) ([]domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
