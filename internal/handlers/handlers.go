package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unimart/unimart-server/internal/domain"
	"github.com/unimart/unimart-server/internal/gateway"
	"github.com/unimart/unimart-server/internal/repository"
	"github.com/unimart/unimart-server/internal/service"
	"github.com/unimart/unimart-server/pkg/auth"
	"github.com/unimart/unimart-server/pkg/config"
	"github.com/unimart/unimart-server/pkg/logger"
)

type contextKey string

const userKey contextKey = "user"

// Error codes returned in the stable {error, code} body.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidOtp         = "INVALID_OTP"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeGatewayError       = "GATEWAY_ERROR"
	CodeGatewayTimeout     = "GATEWAY_TIMEOUT"
	CodeInternalError      = "INTERNAL_ERROR"
)

type Handlers struct {
	authService    service.AuthService
	listingService service.ListingService
	paymentService service.PaymentService
	userRepo       repository.UserRepository
	rateLimiter    repository.RateLimiter
	config         *config.Config
}

func New(
	authService service.AuthService,
	listingService service.ListingService,
	paymentService service.PaymentService,
	userRepo repository.UserRepository,
	rateLimiter repository.RateLimiter,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService:    authService,
		listingService: listingService,
		paymentService: paymentService,
		userRepo:       userRepo,
		rateLimiter:    rateLimiter,
		config:         config,
	}
}

// Routes assembles the API surface.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(h.AuthRateLimit())
			r.Post("/register", h.Register)
			r.Post("/verify-otp", h.VerifyOtp)
			r.Post("/login", h.Login)
		})

		r.Route("/listings", func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Post("/", h.CreateListing)
			r.Get("/", h.ListListings)
			r.Get("/{listingID}", h.GetListing)
		})

		r.Route("/payment", func(r chi.Router) {
			// The callback is invoked by the gateway, not a session
			// holder; its authenticity is checked by signature instead.
			r.Post("/callback", h.PaymentCallback)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireSession)
				r.Post("/initiate", h.InitiatePayment)
			})
		})
	})

	return r
}

// RequireSession authenticates the bearer token and resolves it to a
// stored user.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", CodeUnauthorized)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
		if err != nil {
			writeError(w, http.StatusForbidden, "Invalid token", CodeForbidden)
			return
		}

		user, err := h.userRepo.FindByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error", CodeInternalError)
			return
		}
		if user == nil {
			writeError(w, http.StatusNotFound, "User not found", CodeNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, logger.UserIDKey, user.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthRateLimit throttles the unauthenticated auth endpoints per client
// IP. Without a configured limiter it is a pass-through.
func (h *Handlers) AuthRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.rateLimiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := "auth:" + getClientIP(r)
			allowed, err := h.rateLimiter.Allow(r.Context(), key, 5, time.Minute)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", CodeRateLimit)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Helper functions

func userFrom(r *http.Request) *domain.User {
	if user, ok := r.Context().Value(userKey).(*domain.User); ok {
		return user
	}
	return nil
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
		"code":  code,
	})
}

// respondError maps service errors to the stable error body. Unknown
// errors become an opaque 500; gateway failures are the provider's
// fault and surface as 502/504.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	case errors.Is(err, domain.ErrEmailExists):
		writeError(w, http.StatusBadRequest, "Email already registered", CodeEmailExists)
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found", CodeNotFound)
	case errors.Is(err, domain.ErrListingNotFound):
		writeError(w, http.StatusNotFound, "Listing not found", CodeNotFound)
	case errors.Is(err, domain.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "Payment not found", CodeNotFound)
	case errors.Is(err, domain.ErrInvalidOtp):
		writeError(w, http.StatusBadRequest, "Invalid or expired OTP", CodeInvalidOtp)
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", CodeInvalidCredentials)
	case errors.Is(err, domain.ErrInvalidCallbackSignature):
		writeError(w, http.StatusForbidden, "Invalid callback signature", CodeForbidden)
	case errors.Is(err, gateway.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "Payment provider timed out", CodeGatewayTimeout)
	case isGatewayError(err):
		writeError(w, http.StatusBadGateway, "Payment provider error", CodeGatewayError)
	default:
		logger.ErrorContext(r.Context(), "Unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", CodeInternalError)
	}
}

func isGatewayError(err error) bool {
	var gwErr *gateway.Error
	return errors.As(err, &gwErr)
}
