package usecase

import (
	"context"
	"fmt"
	"time"

	"guidehub/internal/data/entity"
	"guidehub/internal/data/repository"
	"guidehub/internal/dto/request"
	"guidehub/internal/dto/response"
	"guidehub/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetListingBookings(ctx context.Context, listingID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	// GetBooking returns a booking with its payment attempts. Only the
	// booker may read it.
	GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingDetailResponse, error)
}

type bookingService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
		now:  time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID %s", ErrInvalidInput, req.ListingID)
	}

	start, err := utils.ParseInstant(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: startDate: %v", ErrInvalidInput, err)
	}
	end, err := utils.ParseInstant(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: endDate: %v", ErrInvalidInput, err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: endDate must be after startDate", ErrInvalidInput)
	}

	listing, err := s.repo.Listing.FindByID(ctx, listingID)
	if err != nil {
		s.log.Error("Failed to load listing", zap.Error(err), zap.String("listing_id", listingID.String()))
		return nil, fmt.Errorf("load listing %s: %w", listingID.String(), err)
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %s: %w", listingID.String(), ErrNotFound)
	}

	// The price is read once here and frozen on the booking.
	quote := PriceStay(listing.Price, start, end)

	booking := &entity.Booking{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now().UTC(),
		},
		ListingID:  listing.ID,
		UserID:     userID,
		StartDate:  start,
		EndDate:    end,
		Days:       quote.Days,
		TotalPrice: quote.TotalPrice,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("listing_id", listing.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("days", quote.Days),
		zap.String("total_price", quote.TotalPrice.StringFixed(2)),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	return response.NewPaginatedResponse(toBookingResponses(bookings), req.Page, req.Limit(), total), nil
}

func (s *bookingService) GetListingBookings(ctx context.Context, listingID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	listingUUID, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID %s", ErrInvalidInput, listingID)
	}

	bookings, err := s.repo.Booking.FindByListingID(ctx, listingUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get listing bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByListingID(ctx, listingUUID)
	if err != nil {
		return nil, fmt.Errorf("count listing bookings: %w", err)
	}

	return response.NewPaginatedResponse(toBookingResponses(bookings), req.Page, req.Limit(), total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID uuid.UUID, bookingID string) (*response.BookingDetailResponse, error) {
	bookingUUID, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", ErrInvalidInput, bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingUUID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	if booking.UserID != userID {
		s.log.Warn("Booking access denied",
			zap.String("booking_id", bookingID),
			zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrForbidden)
	}

	payments, err := s.repo.Payment.FindByBookingID(ctx, bookingUUID)
	if err != nil {
		return nil, fmt.Errorf("get booking payments: %w", err)
	}

	detail := &response.BookingDetailResponse{
		BookingResponse: response.BookingToResponse(booking),
		Payments:        make([]response.PaymentResponse, 0, len(payments)),
	}
	for _, p := range payments {
		detail.Payments = append(detail.Payments, response.PaymentToResponse(p))
	}

	return detail, nil
}

func toBookingResponses(bookings []*entity.Booking) []response.BookingResponse {
	out := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, response.BookingToResponse(b))
	}
	return out
}
