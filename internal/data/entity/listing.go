package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Listing struct {
	Base
	HostID      uuid.UUID       `db:"host_id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"` // per day
	City        *string         `db:"city"`
	Images      []string        `db:"images"`
}
