package response

import (
	"time"

	"guidehub/internal/data/entity"
)

type BookingResponse struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listingId"`
	UserID     string    `json:"userId"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Days       int       `json:"days"`
	TotalPrice string    `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

type BookingDetailResponse struct {
	BookingResponse
	Payments []PaymentResponse `json:"payments"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	BookingID     string               `json:"bookingId"`
	Amount        string               `json:"amount"`
	Currency      string               `json:"currency"`
	Status        entity.PaymentStatus `json:"status"`
	ProcessorRef  string               `json:"processorRef"`
	FailureReason *string              `json:"failureReason,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:         booking.ID.String(),
		ListingID:  booking.ListingID.String(),
		UserID:     booking.UserID.String(),
		StartDate:  booking.StartDate,
		EndDate:    booking.EndDate,
		Days:       booking.Days,
		TotalPrice: booking.TotalPrice.StringFixed(2),
		CreatedAt:  booking.CreatedAt,
	}
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            payment.ID.String(),
		BookingID:     payment.BookingID.String(),
		Amount:        payment.Amount.StringFixed(2),
		Currency:      payment.Currency,
		Status:        payment.Status,
		ProcessorRef:  payment.ProcessorRef,
		FailureReason: payment.FailureReason,
		CreatedAt:     payment.CreatedAt,
		UpdatedAt:     payment.UpdatedAt,
	}
}
