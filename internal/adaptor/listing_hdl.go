package adaptor

import (
	"encoding/json"
	"net/http"
	"strings"

	"guidehub/internal/dto/request"
	"guidehub/internal/usecase"
	"guidehub/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ListingHandler struct {
	service usecase.ListingService
	log     *zap.Logger
}

func NewListingHandler(service usecase.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log.With(zap.String("handler", "listing")),
	}
}

// GetListings handles GET /api/listings?page=1&per_page=10&city=
func (h *ListingHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	req := &request.ListListingsRequest{PaginatedRequest: paginationFromQuery(r)}
	if city := strings.TrimSpace(r.URL.Query().Get("city")); city != "" {
		req.City = &city
	}

	listings, err := h.service.GetAllListings(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get listings")
		return
	}

	utils.ResponseSuccess(w, "success", listings)
}

// GetListing handles GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		utils.ResponseBadRequest(w, "Listing ID is required", nil)
		return
	}

	listing, err := h.service.GetListingByID(r.Context(), listingID)
	if err != nil {
		handleServiceError(w, h.log, err, "get listing")
		return
	}

	utils.ResponseSuccess(w, "success", listing)
}

// CreateListing handles POST /api/listings (guide or admin)
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := identityFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	listing, err := h.service.CreateListing(r.Context(), caller, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create listing")
		return
	}

	utils.ResponseCreated(w, "Listing created successfully", listing)
}

// UpdateListing handles PUT /api/listings/{id} (host)
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := identityFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		utils.ResponseBadRequest(w, "Listing ID is required", nil)
		return
	}

	var req request.UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	listing, err := h.service.UpdateListing(r.Context(), caller, listingID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update listing")
		return
	}

	utils.ResponseSuccess(w, "Listing updated successfully", listing)
}

// DeleteListing handles DELETE /api/listings/{id} (host)
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := identityFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		utils.ResponseBadRequest(w, "Listing ID is required", nil)
		return
	}

	if err := h.service.DeleteListing(r.Context(), caller, listingID); err != nil {
		handleServiceError(w, h.log, err, "delete listing")
		return
	}

	utils.ResponseSuccess(w, "Listing deleted successfully", nil)
}
