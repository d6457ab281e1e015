package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/unimart/unimart-server/internal/domain"
)

// Register handles user registration. The response acknowledges only;
// neither the password hash nor the OTP code is ever returned.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	if err := h.authService.Register(r.Context(), &req); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "OTP sent",
	})
}

// VerifyOtp handles OTP verification and opens the first session.
func (h *Handlers) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	resp, err := h.authService.VerifyOtp(r.Context(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Login handles password authentication for verified users.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
