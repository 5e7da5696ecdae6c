package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"guidehub/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var bookingRowColumns = []string{"id", "listing_id", "user_id", "start_date", "end_date", "days", "total_price", "created_at"}

func newBookingRepo(t *testing.T) (BookingRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewBookingRepository(mock, zap.NewNop()), mock
}

func sampleBooking(userID uuid.UUID, createdAt time.Time) *entity.Booking {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	return &entity.Booking{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: createdAt},
		ListingID:  uuid.New(),
		UserID:     userID,
		StartDate:  start,
		EndDate:    start.Add(60 * time.Hour),
		Days:       3,
		TotalPrice: decimal.RequireFromString("300.00"),
	}
}

func TestBookingRepository_Create(t *testing.T) {
	repo, mock := newBookingRepo(t)
	b := sampleBooking(uuid.New(), time.Now().UTC())

	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(b.ID, b.ListingID, b.UserID, b.StartDate, b.EndDate, 3, pgxmock.AnyArg(), b.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_Create_Error(t *testing.T) {
	repo, mock := newBookingRepo(t)
	b := sampleBooking(uuid.New(), time.Now().UTC())

	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(errors.New("insert or update on table \"bookings\" violates foreign key constraint"))

	err := repo.Create(context.Background(), b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), b.ListingID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_FindByUserID(t *testing.T) {
	repo, mock := newBookingRepo(t)
	userID := uuid.New()
	now := time.Now().UTC()
	newer := sampleBooking(userID, now)
	older := sampleBooking(userID, now.Add(-time.Hour))

	rows := pgxmock.NewRows(bookingRowColumns)
	for _, b := range []*entity.Booking{newer, older} {
		rows.AddRow(b.ID, b.ListingID, b.UserID, b.StartDate, b.EndDate, b.Days, b.TotalPrice, b.CreatedAt)
	}

	mock.ExpectQuery(`FROM bookings\s+WHERE user_id = \$1\s+ORDER BY created_at DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs(userID, 10, 0).
		WillReturnRows(rows)

	bookings, err := repo.FindByUserID(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	assert.Equal(t, newer.ID, bookings[0].ID)
	assert.Equal(t, older.ID, bookings[1].ID)
	assert.Equal(t, 3, bookings[0].Days)
	assert.True(t, decimal.RequireFromString("300").Equal(bookings[0].TotalPrice))
	assert.Equal(t, newer.EndDate, bookings[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_FindByUserID_Empty(t *testing.T) {
	repo, mock := newBookingRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM bookings`).
		WithArgs(userID, 10, 20).
		WillReturnRows(pgxmock.NewRows(bookingRowColumns))

	bookings, err := repo.FindByUserID(context.Background(), userID, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_FindByUserID_QueryError(t *testing.T) {
	repo, mock := newBookingRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM bookings`).
		WithArgs(userID, 10, 0).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByUserID(context.Background(), userID, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), userID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newBookingRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	booking, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, booking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_CountByUserID(t *testing.T) {
	repo, mock := newBookingRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := repo.CountByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
