package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/unimart/unimart-server/internal/domain"
)

// InitiatePayment starts a purchase or rental payment for a listing and
// returns the provider checkout URL.
func (h *Handlers) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req domain.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	resp, err := h.paymentService.Initiate(r.Context(), userFrom(r), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// PaymentCallback receives the gateway's settlement notification.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	if err := h.paymentService.HandleCallback(r.Context(), &req); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
