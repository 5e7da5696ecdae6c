package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is immutable once written. TotalPrice is the price quoted at
// creation and is never recomputed from the listing.
type Booking struct {
	BaseSimple
	ListingID  uuid.UUID       `db:"listing_id"`
	UserID     uuid.UUID       `db:"user_id"`
	StartDate  time.Time       `db:"start_date"`
	EndDate    time.Time       `db:"end_date"`
	Days       int             `db:"days"`
	TotalPrice decimal.Decimal `db:"total_price"`
}
