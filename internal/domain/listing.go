package domain

import (
	"fmt"
	"time"
)

type Listing struct {
	ListingID         string    `json:"listingId"`
	OwnerID           string    `json:"ownerId"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	SalePrice         *int64    `json:"salePrice"`
	IsRentable        bool      `json:"isRentable"`
	RentalPricePerDay *int64    `json:"rentalPricePerDay"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Listing statuses
const (
	ListingAvailable = "AVAILABLE"
	ListingSold      = "SOLD"
	ListingRented    = "RENTED"
)

type CreateListingRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	SalePrice         *int64 `json:"salePrice"`
	IsRentable        bool   `json:"isRentable"`
	RentalPricePerDay *int64 `json:"rentalPricePerDay"`
}

func (r *CreateListingRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if r.SalePrice != nil && *r.SalePrice <= 0 {
		return fmt.Errorf("%w: sale price must be positive", ErrInvalidInput)
	}
	if r.IsRentable && r.RentalPricePerDay == nil {
		return fmt.Errorf("%w: rental price per day is required for rentable listings", ErrInvalidInput)
	}
	if r.RentalPricePerDay != nil && *r.RentalPricePerDay <= 0 {
		return fmt.Errorf("%w: rental price per day must be positive", ErrInvalidInput)
	}
	return nil
}
