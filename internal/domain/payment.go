package domain

import (
	"fmt"
	"time"
)

// Payment statuses. Completed and failed are terminal: a record never
// transitions out of them.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment types
const (
	PaymentSale   = "SALE"
	PaymentRental = "RENTAL"
)

// Gateway states trace how far the three-step provider sequence got for
// a pending record, so a failed initiation is diagnosable afterwards.
const (
	GatewayStateNone         = ""
	GatewayStateAuthOK       = "auth_ok"
	GatewayStateOrderCreated = "order_created"
	GatewayStateKeyIssued    = "key_issued"
)

type PaymentRecord struct {
	OrderID      string    `json:"orderId"`
	ListingID    string    `json:"listingId"`
	UserID       string    `json:"userId"`
	Amount       int64     `json:"amount"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	GatewayState string    `json:"gatewayState,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	SettledAt    *time.Time `json:"settledAt,omitempty"`
}

func (p *PaymentRecord) IsTerminal() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentFailed
}

type InitiatePaymentRequest struct {
	ListingID string `json:"listingId"`
	Amount    int64  `json:"amount"`
	Type      string `json:"type"`
}

func (r *InitiatePaymentRequest) Validate() error {
	if r.ListingID == "" {
		return fmt.Errorf("%w: listingId is required", ErrInvalidInput)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if r.Type != PaymentSale && r.Type != PaymentRental {
		return fmt.Errorf("%w: type must be SALE or RENTAL", ErrInvalidInput)
	}
	return nil
}

type InitiatePaymentResponse struct {
	PaymentURL string `json:"paymentUrl"`
	OrderID    string `json:"orderId"`
}

type PaymentCallbackRequest struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	HMAC    string `json:"hmac"`
}
