package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/gateway"
	"github.com/unimart/unimart-server/internal/repository"
	"github.com/unimart/unimart-server/pkg/config"
	"github.com/unimart/unimart-server/pkg/events"
	"github.com/unimart/unimart-server/pkg/logger"
)

// PaymentService drives payment initiation and asynchronous settlement.
type PaymentService interface {
	Initiate(ctx context.Context, user *domain.User, req *domain.InitiatePaymentRequest) (*domain.InitiatePaymentResponse, error)
	HandleCallback(ctx context.Context, req *domain.PaymentCallbackRequest) error
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	listingRepo repository.ListingRepository
	gateway     gateway.Client
	eventBus    events.Publisher
	config      *config.Config
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	listingRepo repository.ListingRepository,
	gatewayClient gateway.Client,
	eventBus events.Publisher,
	config *config.Config,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		listingRepo: listingRepo,
		gateway:     gatewayClient,
		eventBus:    eventBus,
		config:      config,
	}
}

func (s *paymentService) Initiate(ctx context.Context, user *domain.User, req *domain.InitiatePaymentRequest) (*domain.InitiatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	listing, err := s.listingRepo.FindByID(ctx, req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}

	orderID := "order_" + uuid.NewString()

	// The pending record is written before any provider call so a crash
	// mid-sequence leaves a traceable record rather than silent loss.
	record := &domain.PaymentRecord{
		OrderID:   orderID,
		ListingID: req.ListingID,
		UserID:    user.UserID,
		Amount:    req.Amount,
		Type:      req.Type,
		Status:    domain.PaymentPending,
		CreatedAt: time.Now(),
	}
	if err := s.paymentRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	paymentURL, err := s.gateway.Checkout(ctx, &gateway.CheckoutRequest{
		OrderID: orderID,
		Amount:  req.Amount,
		User:    user,
		OnStep: func(state string) {
			if err := s.paymentRepo.SetGatewayState(ctx, orderID, state); err != nil {
				logger.WarnContext(ctx, "Failed to persist gateway state",
					"order_id", orderID, "state", state, "error", err)
			}
		},
	})
	if err != nil {
		// The record stays pending; a reconciliation sweep picks up
		// stale pending records out of band.
		logger.ErrorContext(ctx, "Gateway checkout failed",
			"order_id", orderID, "error", err)
		return nil, err
	}

	if err := s.eventBus.Publish(ctx, events.PaymentInitiated, events.PaymentInitiatedEvent{
		OrderID:     orderID,
		ListingID:   req.ListingID,
		UserID:      user.UserID,
		Amount:      req.Amount,
		Type:        req.Type,
		InitiatedAt: record.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish payment.initiated", "error", err)
	}

	return &domain.InitiatePaymentResponse{
		PaymentURL: paymentURL,
		OrderID:    orderID,
	}, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, req *domain.PaymentCallbackRequest) error {
	if req.OrderID == "" {
		return fmt.Errorf("%w: order_id is required", domain.ErrInvalidInput)
	}

	// The callback arrives unauthenticated from the gateway, so its
	// shared-secret signature is checked before the ledger is touched.
	if secret := s.config.Gateway.CallbackSecret; secret != "" {
		expected := SignCallback(secret, req.OrderID, req.Success)
		if !hmac.Equal([]byte(expected), []byte(req.HMAC)) {
			return domain.ErrInvalidCallbackSignature
		}
	}

	status := domain.PaymentFailed
	subject := events.PaymentFailed
	if req.Success {
		status = domain.PaymentCompleted
		subject = events.PaymentCompleted
	}

	settled, err := s.paymentRepo.Settle(ctx, req.OrderID, status)
	if errors.Is(err, domain.ErrPaymentSettled) {
		// Duplicate callback for a terminal record; idempotent no-op.
		logger.InfoContext(ctx, "Ignoring duplicate payment callback", "order_id", req.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.eventBus.Publish(ctx, subject, events.PaymentSettledEvent{
		OrderID:   settled.OrderID,
		Status:    settled.Status,
		SettledAt: *settled.SettledAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish payment settlement", "error", err)
	}

	return nil
}

// SignCallback computes the shared-secret signature the gateway attaches
// to settlement callbacks: hex HMAC-SHA256 over "<order_id>.<success>".
func SignCallback(secret, orderID string, success bool) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "." + strconv.FormatBool(success)))
	return hex.EncodeToString(mac.Sum(nil))
}
