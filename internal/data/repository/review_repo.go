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

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	FindByListingID(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Review, error)
	CountByListingID(ctx context.Context, listingID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// GetListingReviewStats returns the average rating and the review count.
	GetListingReviewStats(ctx context.Context, listingID uuid.UUID) (float64, int64, error)
}

type reviewRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReviewRepository(db database.PgxIface, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

// Create returns ErrDuplicate when the user already reviewed the listing.
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, listing_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.UserID,
		review.ListingID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)

	if isUniqueViolation(err) {
		return fmt.Errorf("create review for listing %s: %w", review.ListingID.String(), ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("user_id", review.UserID.String()),
			zap.String("listing_id", review.ListingID.String()),
		)
		return fmt.Errorf("create review for listing %s by user %s: %w",
			review.ListingID.String(), review.UserID.String(), err)
	}

	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	query := `
		SELECT id, user_id, listing_id, rating, comment, created_at
		FROM reviews
		WHERE id = $1
	`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return nil, fmt.Errorf("find review by ID %s: %w", id.String(), err)
	}

	return review, nil
}

func (r *reviewRepository) FindByListingID(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	query := `
		SELECT id, user_id, listing_id, rating, comment, created_at
		FROM reviews
		WHERE listing_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, listingID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reviews by listing ID",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find reviews by listing ID %s: %w", listingID.String(), err)
	}
	defer rows.Close()

	var reviews []*entity.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			r.log.Error("Failed to scan review row", zap.Error(err))
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) CountByListingID(ctx context.Context, listingID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE listing_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, listingID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reviews by listing ID",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return 0, fmt.Errorf("count reviews by listing ID %s: %w", listingID.String(), err)
	}

	return count, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM reviews WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete review",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return fmt.Errorf("delete review %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s not found", id.String())
	}

	r.log.Info("Review deleted", zap.String("review_id", id.String()))
	return nil
}

func (r *reviewRepository) GetListingReviewStats(ctx context.Context, listingID uuid.UUID) (float64, int64, error) {
	query := `
		SELECT
			COALESCE(AVG(rating), 0)::float8 AS avg_rating,
			COUNT(*) AS review_count
		FROM reviews
		WHERE listing_id = $1
	`

	var avgRating float64
	var reviewCount int64
	err := r.db.QueryRow(ctx, query, listingID).Scan(&avgRating, &reviewCount)
	if err != nil {
		r.log.Error("Failed to get listing review stats",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return 0, 0, fmt.Errorf("get listing review stats for %s: %w", listingID.String(), err)
	}

	return avgRating, reviewCount, nil
}

func scanReview(row pgx.Row) (*entity.Review, error) {
	var review entity.Review
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.ListingID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}
