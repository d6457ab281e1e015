package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/unimart/unimart-server/internal/domain"
)

// PaymobClient drives the provider's three sequential calls: API-key
// authentication, order creation, payment-key issuance. Each call
// depends on the previous result and runs under its own deadline.
type PaymobClient struct {
	baseURL       string
	apiKey        string
	integrationID string
	iframeID      string
	stepTimeout   time.Duration
	httpClient    *http.Client
}

func NewPaymobClient(baseURL, apiKey, integrationID, iframeID string, stepTimeout time.Duration) *PaymobClient {
	return &PaymobClient{
		baseURL:       baseURL,
		apiKey:        apiKey,
		integrationID: integrationID,
		iframeID:      iframeID,
		stepTimeout:   stepTimeout,
		httpClient:    &http.Client{},
	}
}

// Order is the provider's order object; only the numeric id is needed
// downstream.
type Order struct {
	ID int64 `json:"id"`
}

type billingData struct {
	Apartment      string `json:"apartment"`
	Email          string `json:"email"`
	Floor          string `json:"floor"`
	FirstName      string `json:"first_name"`
	Street         string `json:"street"`
	Building       string `json:"building"`
	PhoneNumber    string `json:"phone_number"`
	ShippingMethod string `json:"shipping_method"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Country        string `json:"country"`
	LastName       string `json:"last_name"`
	State          string `json:"state"`
}

// Authenticate exchanges the static API key for a short-lived auth
// token.
func (c *PaymobClient) Authenticate(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"api_key": c.apiKey}
	if err := c.post(ctx, StepAuthenticate, "/api/auth/tokens", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &Error{Step: StepAuthenticate, Err: errors.New("empty auth token in response")}
	}
	return resp.Token, nil
}

// CreateOrder registers the merchant order with the provider. Amount is
// converted to minor units here; currency is fixed.
func (c *PaymobClient) CreateOrder(ctx context.Context, authToken string, amount int64, merchantOrderID string) (*Order, error) {
	body := map[string]interface{}{
		"auth_token":        authToken,
		"delivery_needed":   false,
		"amount_cents":      amount * 100,
		"currency":          "EGP",
		"merchant_order_id": merchantOrderID,
		"items":             []interface{}{},
	}
	var order Order
	if err := c.post(ctx, StepCreateOrder, "/api/ecommerce/orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// IssuePaymentKey obtains the token the hosted iframe is opened with.
// Billing fields the system does not know are filled with explicit
// placeholders.
func (c *PaymobClient) IssuePaymentKey(ctx context.Context, authToken string, order *Order, amount int64, user *domain.User) (string, error) {
	first, last := user.FirstLastName()
	body := map[string]interface{}{
		"auth_token":   authToken,
		"amount_cents": amount * 100,
		"expiration":   3600,
		"order_id":     order.ID,
		"billing_data": billingData{
			Apartment:      "NA",
			Email:          user.Email,
			Floor:          "NA",
			FirstName:      first,
			Street:         "NA",
			Building:       "NA",
			PhoneNumber:    "01000000000",
			ShippingMethod: "NA",
			PostalCode:     "NA",
			City:           "NA",
			Country:        "EG",
			LastName:       last,
			State:          "NA",
		},
		"currency":       "EGP",
		"integration_id": c.integrationID,
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, StepIssuePaymentKey, "/api/acceptance/payment_keys", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &Error{Step: StepIssuePaymentKey, Err: errors.New("empty payment key in response")}
	}
	return resp.Token, nil
}

// Checkout runs the full three-step sequence and returns the iframe
// redirect URL. There is no partial retry within one attempt; a step
// failure propagates with its step name.
func (c *PaymobClient) Checkout(ctx context.Context, req *CheckoutRequest) (string, error) {
	authToken, err := c.Authenticate(ctx)
	if err != nil {
		return "", err
	}
	req.step(domain.GatewayStateAuthOK)

	order, err := c.CreateOrder(ctx, authToken, req.Amount, req.OrderID)
	if err != nil {
		return "", err
	}
	req.step(domain.GatewayStateOrderCreated)

	paymentKey, err := c.IssuePaymentKey(ctx, authToken, order, req.Amount, req.User)
	if err != nil {
		return "", err
	}
	req.step(domain.GatewayStateKeyIssued)

	return fmt.Sprintf("%s/api/acceptance/iframes/%s?payment_token=%s",
		c.baseURL, c.iframeID, url.QueryEscape(paymentKey)), nil
}

func (c *PaymobClient) post(ctx context.Context, step, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Step: step, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.stepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Step: step, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Error{Step: step, Err: ErrTimeout}
		}
		return &Error{Step: step, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &Error{Step: step, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Step: step, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
