package usecase

import (
	"guidehub/internal/data/repository"
	"guidehub/internal/gateway"
	"guidehub/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Listing ListingService
	Review  ReviewService
	Booking BookingService
	Payment PaymentService
}

func NewService(repo *repository.Repository, config *utils.Config, gw gateway.Gateway, tokens *utils.TokenManager, log *zap.Logger) *Service {
	return &Service{
		Auth:    NewAuthService(repo, tokens, log),
		User:    NewUserService(repo.User, log),
		Listing: NewListingService(repo, log),
		Review:  NewReviewService(repo, log),
		Booking: NewBookingService(repo, log),
		Payment: NewPaymentService(repo, gw, &config.Payment, log),
	}
}
