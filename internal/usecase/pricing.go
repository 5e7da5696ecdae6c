package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

const secondsPerDay = 24 * 60 * 60

var hundred = decimal.NewFromInt(100)

// Quote is the frozen price of a stay.
type Quote struct {
	Days       int
	TotalPrice decimal.Decimal
}

// PriceStay charges every started 24h period of [start, end), with a
// minimum of one day. Callers must ensure end is after start. The length
// is counted in whole seconds because time.Duration saturates after about
// 292 years.
func PriceStay(pricePerDay decimal.Decimal, start, end time.Time) Quote {
	secs := end.Unix() - start.Unix()
	nanos := end.Nanosecond() - start.Nanosecond()
	if nanos < 0 {
		secs--
		nanos += int(time.Second)
	}

	days := int(secs / secondsPerDay)
	if secs%secondsPerDay > 0 || nanos > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}

	return Quote{
		Days:       days,
		TotalPrice: pricePerDay.Mul(decimal.NewFromInt(int64(days))).Round(2),
	}
}

// ToMinorUnits converts an amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
