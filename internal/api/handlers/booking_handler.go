package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// BookingService defines the booking operations used by the handler
type BookingService interface {
	CreateBooking(ctx context.Context, principal entities.Principal, input services.CreateBookingInput) (*entities.Booking, error)
	ListBookings(ctx context.Context, principal entities.Principal, query services.BookingQuery) ([]*entities.Booking, error)
	UpdateStatus(ctx context.Context, principal entities.Principal, input services.UpdateBookingStatusInput) (*entities.Booking, error)
}

// BookingHandler handles booking requests
type BookingHandler struct {
	bookings BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var input services.CreateBookingInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondWithError(w, r, err)
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), p, input)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Booking created successfully",
		"booking": booking,
	})
}

// ListBookings handles GET /api/bookings?userId=&providerId=&status=
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	q := r.URL.Query()
	bookings, err := h.bookings.ListBookings(r.Context(), p, services.BookingQuery{
		UserID:     q.Get("userId"),
		ProviderID: q.Get("providerId"),
		Status:     entities.BookingStatus(q.Get("status")),
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"bookings": nonNilBookings(bookings),
	})
}

// ListProviderBookings handles GET /api/provider/bookings
func (h *BookingHandler) ListProviderBookings(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	bookings, err := h.bookings.ListBookings(r.Context(), p, services.BookingQuery{
		ProviderID: p.ID,
		Status:     entities.BookingStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, nonNilBookings(bookings))
}

// UpdateBookingStatus handles PUT /api/provider/bookings
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var input services.UpdateBookingStatusInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondWithError(w, r, err)
		return
	}

	booking, err := h.bookings.UpdateStatus(r.Context(), p, input)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

func nonNilBookings(bookings []*entities.Booking) []*entities.Booking {
	if bookings == nil {
		return []*entities.Booking{}
	}
	return bookings
}
