package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"guidehub/internal/data/entity"
	"guidehub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	// FindByID returns (nil, nil) for unknown or soft-deleted listings.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindAll(ctx context.Context, offset, limit int, city *string) ([]*entity.Listing, error)
	CountAll(ctx context.Context, city *string) (int64, error)
	Update(ctx context.Context, listing *entity.Listing) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type listingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewListingRepository(db database.PgxIface, log *zap.Logger) ListingRepository {
	return &listingRepository{
		db:  db,
		log: log.With(zap.String("repository", "listing")),
	}
}

const listingColumns = `id, host_id, title, description, price, city, images, created_at, updated_at, deleted_at`

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	query := `
		INSERT INTO listings (id, host_id, title, description, price, city, images,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		listing.ID,
		listing.HostID,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.City,
		listing.Images,
		listing.CreatedAt,
		listing.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create listing",
			zap.Error(err),
			zap.String("title", listing.Title),
		)
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 AND deleted_at IS NULL`

	listing, err := scanListing(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find listing by ID",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return listing, nil
}

func (r *listingRepository) FindAll(ctx context.Context, offset, limit int, city *string) ([]*entity.Listing, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + listingColumns + ` FROM listings WHERE deleted_at IS NULL`)

	args := []interface{}{}
	argCount := 1

	if city != nil && *city != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND LOWER(city) = LOWER($%d)", argCount))
		args = append(args, *city)
		argCount++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find all listings",
			zap.Error(err),
			zap.Int("offset", offset),
			zap.Int("limit", limit),
			zap.Stringp("city", city),
		)
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	defer rows.Close()

	var listings []*entity.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			r.log.Error("Failed to scan listing row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return listings, nil
}

func (r *listingRepository) CountAll(ctx context.Context, city *string) (int64, error) {
	query := `SELECT COUNT(*) FROM listings WHERE deleted_at IS NULL`
	args := []interface{}{}

	if city != nil && *city != "" {
		query += " AND LOWER(city) = LOWER($1)"
		args = append(args, *city)
	}

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count listings",
			zap.Error(err),
			zap.Stringp("city", city),
		)
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}

	return total, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	query := `
		UPDATE listings
		SET title = $2, description = $3, price = $4, city = $5, images = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		listing.ID,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.City,
		listing.Images,
		listing.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update listing",
			zap.Error(err),
			zap.String("listing_id", listing.ID.String()),
		)
		return fmt.Errorf("failed to update listing: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found", listing.ID.String())
	}

	return nil
}

// Delete is a soft delete; bookings keep referencing the row.
func (r *listingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE listings SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete listing",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found", id.String())
	}

	r.log.Info("Listing deleted", zap.String("listing_id", id.String()))
	return nil
}

func scanListing(row pgx.Row) (*entity.Listing, error) {
	var listing entity.Listing
	err := row.Scan(
		&listing.ID,
		&listing.HostID,
		&listing.Title,
		&listing.Description,
		&listing.Price,
		&listing.City,
		&listing.Images,
		&listing.CreatedAt,
		&listing.UpdatedAt,
		&listing.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}
