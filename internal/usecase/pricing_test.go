package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceStay(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		price    string
		duration time.Duration
		days     int
		total    string
	}{
		{"exact one day", "100.00", 24 * time.Hour, 1, "100"},
		{"exact two days", "100.00", 48 * time.Hour, 2, "200"},
		{"partial day rounds up", "100.00", 60 * time.Hour, 3, "300"},
		{"one minute over", "80.50", 24*time.Hour + time.Minute, 2, "161"},
		{"short stay clamps to one day", "45.99", time.Hour, 1, "45.99"},
		{"free listing", "0", 72 * time.Hour, 3, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := PriceStay(decimal.RequireFromString(tt.price), start, start.Add(tt.duration))
			assert.Equal(t, tt.days, q.Days)
			assert.True(t, decimal.RequireFromString(tt.total).Equal(q.TotalPrice),
				"want %s, got %s", tt.total, q.TotalPrice)
		})
	}
}

func TestPriceStay_TimezonesDoNotMatter(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	end := start.UTC().Add(36 * time.Hour)

	q := PriceStay(decimal.NewFromInt(10), start, end)
	assert.Equal(t, 2, q.Days)
}

func TestPriceStay_LongRangesDoNotSaturate(t *testing.T) {
	start := time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)

	q := PriceStay(decimal.NewFromInt(1), start, end)
	assert.Equal(t, 146097, q.Days)
	assert.True(t, decimal.NewFromInt(146097).Equal(q.TotalPrice), q.TotalPrice.String())

	q = PriceStay(decimal.NewFromInt(1), start, end.Add(time.Nanosecond))
	assert.Equal(t, 146098, q.Days)
}

func TestPriceStay_SubSecondRemainder(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 900_000_000, time.UTC)

	q := PriceStay(decimal.NewFromInt(10), start, start.Add(24*time.Hour+200*time.Millisecond))
	assert.Equal(t, 2, q.Days)

	q = PriceStay(decimal.NewFromInt(10), start, start.Add(24*time.Hour))
	assert.Equal(t, 1, q.Days)
}

func TestToMinorUnits(t *testing.T) {
	tests := map[string]int64{
		"300.00": 30000,
		"0.01":   1,
		"19.999": 2000,
		"10.005": 1001,
		"0":      0,
	}

	for in, want := range tests {
		assert.Equal(t, want, ToMinorUnits(decimal.RequireFromString(in)), in)
	}
}
