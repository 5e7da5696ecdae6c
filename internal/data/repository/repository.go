package repository

import (
	"guidehub/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User    UserRepository
	Session SessionRepository
	Listing ListingRepository
	Booking BookingRepository
	Payment PaymentRepository
	Review  ReviewRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(db, log),
		Session: NewSessionRepository(db, log),
		Listing: NewListingRepository(db, log),
		Booking: NewBookingRepository(db, log),
		Payment: NewPaymentRepository(db, log),
		Review:  NewReviewRepository(db, log),
	}
}
