package adaptor

import (
	"errors"
	"net/http"

	"guidehub/internal/data/entity"
	"guidehub/internal/dto/request"
	"guidehub/internal/usecase"
	"guidehub/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Listing *ListingHandler
	Review  *ReviewHandler
	Booking *BookingHandler
	Payment *PaymentHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, service.User, config.JWT, log),
		User:    NewUserHandler(service.User, log),
		Listing: NewListingHandler(service.Listing, log),
		Review:  NewReviewHandler(service.Review, log),
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
	}
}

// handleServiceError maps service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	errMsg := err.Error()

	switch {
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, usecase.ErrVerification):
		log.Warn("Invalid input for "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, errMsg, nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, errMsg)

	case errors.Is(err, usecase.ErrUnauthorized):
		log.Warn(operation+" failed - unauthorized",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseUnauthorized(w, errMsg)

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, errMsg)

	case errors.Is(err, usecase.ErrConflict):
		log.Warn(operation+" failed - conflict",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, errMsg)

	case errors.Is(err, usecase.ErrGateway):
		log.Error(operation+" failed - payment processor",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadGateway(w, "Payment processor unavailable, please retry")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// identityFromRequest rebuilds the caller set on the context by the auth
// middleware.
func identityFromRequest(r *http.Request) (*usecase.Identity, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return nil, false
	}
	sessionID, _ := utils.GetSessionIDFromContext(r.Context())
	role, _ := utils.GetRoleFromContext(r.Context())

	return &usecase.Identity{
		UserID:    userID,
		SessionID: sessionID,
		Role:      entity.UserRole(role),
	}, true
}

func paginationFromQuery(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	return request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
}
