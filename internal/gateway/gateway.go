package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/unimart/unimart-server/internal/domain"
)

// Step names reported by gateway errors.
const (
	StepAuthenticate    = "authenticate"
	StepCreateOrder     = "create_order"
	StepIssuePaymentKey = "issue_payment_key"
	StepCheckout        = "checkout"
)

// ErrTimeout marks a provider call that exceeded its per-step deadline.
// It is surfaced distinctly from other gateway failures.
var ErrTimeout = errors.New("gateway timeout")

// Error is a provider failure carrying the step that failed. Raw
// provider payloads stay inside Err and are never returned to API
// callers.
type Error struct {
	Step string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway step %s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CheckoutRequest carries everything a provider needs to prepare a
// hosted payment page. Amount is in major currency units; providers
// convert to minor units themselves.
type CheckoutRequest struct {
	OrderID string
	Amount  int64
	User    *domain.User

	// OnStep, when set, is invoked after each provider step succeeds so
	// the caller can persist how far the sequence got.
	OnStep func(state string)
}

func (r *CheckoutRequest) step(state string) {
	if r.OnStep != nil {
		r.OnStep(state)
	}
}

// Client prepares a checkout with an external payment provider and
// returns the URL the paying user is redirected to.
type Client interface {
	Checkout(ctx context.Context, req *CheckoutRequest) (string, error)
}
