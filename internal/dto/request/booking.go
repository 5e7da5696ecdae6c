package request

// CreateBookingRequest carries dates as RFC 3339 instants or YYYY-MM-DD.
type CreateBookingRequest struct {
	ListingID string `json:"listingId" validate:"required,uuid"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

type CreatePaymentIntentRequest struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
}
