package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unimart/unimart-server/internal/domain"
)

// CreateListing creates a listing owned by the authenticated user.
func (h *Handlers) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return
	}

	listing, err := h.listingService.Create(r.Context(), userFrom(r), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, listing)
}

// GetListing returns one listing by id.
func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listingService.Get(r.Context(), chi.URLParam(r, "listingID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// ListListings returns all listings.
func (h *Handlers) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listingService.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	if listings == nil {
		listings = []domain.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}
