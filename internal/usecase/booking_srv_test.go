package usecase

import (
	"context"
	"testing"

	"guidehub/internal/dto/request"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("100.00")
	userID := uuid.New()

	resp, err := env.booking.CreateBooking(context.Background(), userID, &request.CreateBookingRequest{
		ListingID: listing.ID.String(),
		StartDate: "2025-07-01T00:00:00Z",
		EndDate:   "2025-07-03T12:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Days)
	assert.Equal(t, "300.00", resp.TotalPrice)
	assert.Equal(t, userID.String(), resp.UserID)
	assert.Equal(t, listing.ID.String(), resp.ListingID)

	stored, _ := env.bookings.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NotNil(t, stored)
	assert.True(t, decimal.RequireFromString("300").Equal(stored.TotalPrice))
}

func TestCreateBooking_PlainDates(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("59.90")

	resp, err := env.booking.CreateBooking(context.Background(), uuid.New(), &request.CreateBookingRequest{
		ListingID: listing.ID.String(),
		StartDate: "2025-07-01",
		EndDate:   "2025-07-05",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Days)
	assert.Equal(t, "239.60", resp.TotalPrice)
}

func TestCreateBooking_CenturiesLongStay(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("100.00")

	resp, err := env.booking.CreateBooking(context.Background(), uuid.New(), &request.CreateBookingRequest{
		ListingID: listing.ID.String(),
		StartDate: "1800-01-01",
		EndDate:   "2200-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 146097, resp.Days)
	assert.Equal(t, "14609700.00", resp.TotalPrice)
}

func TestCreateBooking_InvalidInput(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("100.00")

	tests := []struct {
		name string
		req  request.CreateBookingRequest
	}{
		{"unparsable start", request.CreateBookingRequest{ListingID: listing.ID.String(), StartDate: "tomorrow", EndDate: "2025-07-03"}},
		{"unparsable end", request.CreateBookingRequest{ListingID: listing.ID.String(), StartDate: "2025-07-01", EndDate: "07/03/2025"}},
		{"end before start", request.CreateBookingRequest{ListingID: listing.ID.String(), StartDate: "2025-07-03", EndDate: "2025-07-01"}},
		{"end equals start", request.CreateBookingRequest{ListingID: listing.ID.String(), StartDate: "2025-07-01", EndDate: "2025-07-01"}},
		{"missing dates", request.CreateBookingRequest{ListingID: listing.ID.String()}},
		{"bad listing id", request.CreateBookingRequest{ListingID: "abc", StartDate: "2025-07-01", EndDate: "2025-07-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.booking.CreateBooking(context.Background(), uuid.New(), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	assert.Empty(t, env.bookings.bookings)
}

func TestCreateBooking_UnknownOrDeletedListing(t *testing.T) {
	env := newTestEnv()
	deleted := env.addListing("100.00")
	require.NoError(t, env.listings.Delete(context.Background(), deleted.ID))

	for _, id := range []uuid.UUID{uuid.New(), deleted.ID} {
		_, err := env.booking.CreateBooking(context.Background(), uuid.New(), &request.CreateBookingRequest{
			ListingID: id.String(),
			StartDate: "2025-07-01",
			EndDate:   "2025-07-02",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestGetBookings_Projections(t *testing.T) {
	env := newTestEnv()
	a, b := env.addListing("10.00"), env.addListing("20.00")
	alice, bob := uuid.New(), uuid.New()
	ctx := context.Background()

	book := func(user uuid.UUID, listing string) {
		_, err := env.booking.CreateBooking(ctx, user, &request.CreateBookingRequest{
			ListingID: listing, StartDate: "2025-08-01", EndDate: "2025-08-02",
		})
		require.NoError(t, err)
	}
	book(alice, a.ID.String())
	book(alice, b.ID.String())
	book(bob, a.ID.String())

	page := &request.PaginatedRequest{Page: 1, PerPage: 10}

	mine, err := env.booking.GetUserBookings(ctx, alice, page)
	require.NoError(t, err)
	assert.Len(t, mine.Data, 2)
	assert.Equal(t, int64(2), mine.Pagination.Total)
	for _, bk := range mine.Data {
		assert.Equal(t, alice.String(), bk.UserID)
	}

	forListing, err := env.booking.GetListingBookings(ctx, a.ID.String(), page)
	require.NoError(t, err)
	assert.Len(t, forListing.Data, 2)

	empty, err := env.booking.GetListingBookings(ctx, uuid.NewString(), page)
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.NotNil(t, empty.Data)

	_, err = env.booking.GetListingBookings(ctx, "not-a-uuid", page)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetBooking_OwnerOnly(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("100.00")
	owner := uuid.New()
	ctx := context.Background()

	created, err := env.booking.CreateBooking(ctx, owner, &request.CreateBookingRequest{
		ListingID: listing.ID.String(), StartDate: "2025-07-01", EndDate: "2025-07-02",
	})
	require.NoError(t, err)

	_, err = env.payment.RequestPayment(ctx, owner, &request.CreatePaymentIntentRequest{BookingID: created.ID})
	require.NoError(t, err)

	detail, err := env.booking.GetBooking(ctx, owner, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Payments, 1)
	assert.Equal(t, "pending", string(detail.Payments[0].Status))
	assert.Equal(t, "100.00", detail.Payments[0].Amount)

	_, err = env.booking.GetBooking(ctx, uuid.New(), created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.booking.GetBooking(ctx, owner, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
