package adaptor

import (
	"encoding/json"
	"net/http"

	"guidehub/internal/dto/request"
	"guidehub/internal/usecase"
	"guidehub/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings (protected)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", map[string]any{"booking": booking})
}

// GetMyBookings handles GET /api/bookings/me (protected)
func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	req := paginationFromQuery(r)

	bookings, err := h.service.GetUserBookings(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", map[string]any{
		"bookings":   bookings.Data,
		"pagination": bookings.Pagination,
	})
}

// GetListingBookings handles GET /api/bookings/listing/{listingId} (public)
func (h *BookingHandler) GetListingBookings(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingId")
	if listingID == "" {
		utils.ResponseBadRequest(w, "Listing ID is required", nil)
		return
	}

	req := paginationFromQuery(r)

	bookings, err := h.service.GetListingBookings(r.Context(), listingID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "get listing bookings")
		return
	}

	utils.ResponseSuccess(w, "success", map[string]any{
		"bookings":   bookings.Data,
		"pagination": bookings.Pagination,
	})
}

// GetBooking handles GET /api/bookings/{id} (owner only)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), userID, bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", map[string]any{
		"booking":  booking.BookingResponse,
		"payments": booking.Payments,
	})
}
