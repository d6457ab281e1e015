package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/unimart/unimart-server/internal/domain"
)

type fakeProvider struct {
	mux *http.ServeMux

	authBody  map[string]interface{}
	orderBody map[string]interface{}
	keyBody   map[string]interface{}
	failStep  string
	stepDelay time.Duration
}

func newFakeProvider() *fakeProvider {
	f := &fakeProvider{mux: http.NewServeMux()}

	f.mux.HandleFunc("/api/auth/tokens", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(f.stepDelay)
		if f.failStep == StepAuthenticate {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewDecoder(r.Body).Decode(&f.authBody)
		json.NewEncoder(w).Encode(map[string]string{"token": "auth-token-1"})
	})

	f.mux.HandleFunc("/api/ecommerce/orders", func(w http.ResponseWriter, r *http.Request) {
		if f.failStep == StepCreateOrder {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewDecoder(r.Body).Decode(&f.orderBody)
		json.NewEncoder(w).Encode(map[string]int64{"id": 777})
	})

	f.mux.HandleFunc("/api/acceptance/payment_keys", func(w http.ResponseWriter, r *http.Request) {
		if f.failStep == StepIssuePaymentKey {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewDecoder(r.Body).Decode(&f.keyBody)
		json.NewEncoder(w).Encode(map[string]string{"token": "payment-key-1"})
	})

	return f
}

func newTestClient(t *testing.T, f *fakeProvider, stepTimeout time.Duration) (*PaymobClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)
	return NewPaymobClient(server.URL, "api-key", "int-1", "iframe-9", stepTimeout), server
}

func testUser() *domain.User {
	return &domain.User{
		UserID:   "user_1",
		Email:    "buyer@x.com",
		FullName: "Ada Lovelace",
	}
}

func TestCheckout_HappyPath(t *testing.T) {
	f := newFakeProvider()
	client, server := newTestClient(t, f, 5*time.Second)

	var states []string
	url, err := client.Checkout(context.Background(), &CheckoutRequest{
		OrderID: "order_42",
		Amount:  150,
		User:    testUser(),
		OnStep:  func(s string) { states = append(states, s) },
	})
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	want := server.URL + "/api/acceptance/iframes/iframe-9?payment_token=payment-key-1"
	if url != want {
		t.Fatalf("Expected redirect URL %s, got %s", want, url)
	}

	// Auth step sends the static API key.
	if f.authBody["api_key"] != "api-key" {
		t.Fatalf("Unexpected auth body: %+v", f.authBody)
	}

	// Order step converts to minor units and carries the merchant id.
	if f.orderBody["amount_cents"] != float64(15000) {
		t.Fatalf("Expected amount_cents 15000, got %v", f.orderBody["amount_cents"])
	}
	if f.orderBody["merchant_order_id"] != "order_42" {
		t.Fatalf("Expected merchant_order_id order_42, got %v", f.orderBody["merchant_order_id"])
	}
	if f.orderBody["currency"] != "EGP" {
		t.Fatalf("Expected currency EGP, got %v", f.orderBody["currency"])
	}
	if f.orderBody["delivery_needed"] != false {
		t.Fatalf("Expected delivery_needed false, got %v", f.orderBody["delivery_needed"])
	}

	// Key step references the provider order and fills placeholders.
	if f.keyBody["order_id"] != float64(777) {
		t.Fatalf("Expected order_id 777, got %v", f.keyBody["order_id"])
	}
	billing := f.keyBody["billing_data"].(map[string]interface{})
	if billing["first_name"] != "Ada" || billing["last_name"] != "Lovelace" {
		t.Fatalf("Unexpected billing names: %+v", billing)
	}
	if billing["phone_number"] != "01000000000" || billing["city"] != "NA" || billing["country"] != "EG" {
		t.Fatalf("Unexpected billing placeholders: %+v", billing)
	}

	wantStates := []string{
		domain.GatewayStateAuthOK,
		domain.GatewayStateOrderCreated,
		domain.GatewayStateKeyIssued,
	}
	if len(states) != len(wantStates) {
		t.Fatalf("Expected states %v, got %v", wantStates, states)
	}
	for i := range wantStates {
		if states[i] != wantStates[i] {
			t.Fatalf("Expected states %v, got %v", wantStates, states)
		}
	}
}

func TestCheckout_SingleWordNameDefaultsLastName(t *testing.T) {
	f := newFakeProvider()
	client, _ := newTestClient(t, f, 5*time.Second)

	user := testUser()
	user.FullName = "Cher"

	_, err := client.Checkout(context.Background(), &CheckoutRequest{
		OrderID: "order_1", Amount: 10, User: user,
	})
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	billing := f.keyBody["billing_data"].(map[string]interface{})
	if billing["first_name"] != "Cher" || billing["last_name"] != "User" {
		t.Fatalf("Unexpected billing names: %+v", billing)
	}
}

func TestCheckout_StepFailureCarriesStepName(t *testing.T) {
	for _, step := range []string{StepAuthenticate, StepCreateOrder, StepIssuePaymentKey} {
		t.Run(step, func(t *testing.T) {
			f := newFakeProvider()
			f.failStep = step
			client, _ := newTestClient(t, f, 5*time.Second)

			_, err := client.Checkout(context.Background(), &CheckoutRequest{
				OrderID: "order_1", Amount: 10, User: testUser(),
			})
			if err == nil {
				t.Fatal("Expected step failure")
			}

			var gwErr *Error
			if !errors.As(err, &gwErr) {
				t.Fatalf("Expected *gateway.Error, got %T", err)
			}
			if gwErr.Step != step {
				t.Fatalf("Expected step %s, got %s", step, gwErr.Step)
			}
			if errors.Is(err, ErrTimeout) {
				t.Fatal("Step failure must not be a timeout")
			}
		})
	}
}

func TestCheckout_TimeoutIsDistinct(t *testing.T) {
	f := newFakeProvider()
	f.stepDelay = 200 * time.Millisecond
	client, _ := newTestClient(t, f, 20*time.Millisecond)

	_, err := client.Checkout(context.Background(), &CheckoutRequest{
		OrderID: "order_1", Amount: 10, User: testUser(),
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}

	var gwErr *Error
	if !errors.As(err, &gwErr) || gwErr.Step != StepAuthenticate {
		t.Fatalf("Expected timeout on authenticate step, got %v", err)
	}
}

func TestError_MessageContainsStep(t *testing.T) {
	err := &Error{Step: StepCreateOrder, Err: errors.New("boom")}
	if !strings.Contains(err.Error(), StepCreateOrder) {
		t.Fatalf("Expected step name in message, got %q", err.Error())
	}
}
