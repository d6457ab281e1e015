package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/unimart/unimart-server/internal/domain"
)

// StripeClient is the alternative provider: a single hosted Checkout
// Session replaces the three-step sequence, so only the key_issued
// state is reported.
type StripeClient struct {
	currency   string
	successURL string
	cancelURL  string
}

func NewStripeClient(secretKey, currency, successURL, cancelURL string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{
		currency:   currency,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (c *StripeClient) Checkout(ctx context.Context, req *CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderID),
		CustomerEmail:     stripe.String(req.User.Email),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.currency),
					UnitAmount: stripe.Int64(req.Amount * 100),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Order %s", req.OrderID)),
					},
				},
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Step: StepCheckout, Err: ErrTimeout}
		}
		return "", &Error{Step: StepCheckout, Err: err}
	}

	req.step(domain.GatewayStateKeyIssued)
	return s.URL, nil
}
