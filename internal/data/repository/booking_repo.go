package repository

import (
	"context"
	"errors"
	"fmt"

	"guidehub/internal/data/entity"
	"guidehub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingRepository is append-only: there is no update path, so a stored
// total price can never be recomputed.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindByListingID(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByListingID(ctx context.Context, listingID uuid.UUID) (int64, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, listing_id, user_id, start_date, end_date, days, total_price, created_at`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, listing_id, user_id, start_date, end_date, days, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.ListingID,
		booking.UserID,
		booking.StartDate,
		booking.EndDate,
		booking.Days,
		booking.TotalPrice,
		booking.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("listing_id", booking.ListingID.String()),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking for listing %s: %w", booking.ListingID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	bookings, err := r.list(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindByListingID(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE listing_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	bookings, err := r.list(ctx, query, listingID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by listing ID",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return nil, fmt.Errorf("find bookings by listing ID %s: %w", listingID.String(), err)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByListingID(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE listing_id = $1`, listingID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by listing ID",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return 0, fmt.Errorf("count bookings by listing ID %s: %w", listingID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.ListingID,
		&booking.UserID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.Days,
		&booking.TotalPrice,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
