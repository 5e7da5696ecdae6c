package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guidehub/internal/data/entity"
	"guidehub/internal/data/repository"
	"guidehub/internal/dto/request"
	"guidehub/internal/dto/response"
	"guidehub/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID uuid.UUID, listingID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	GetListingReviews(ctx context.Context, listingID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	DeleteReview(ctx context.Context, caller *Identity, reviewID string) error
}

type reviewService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewReviewService(repo *repository.Repository, log *zap.Logger) ReviewService {
	return &reviewService{
		repo: repo,
		log:  log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, userID uuid.UUID, listingID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	listingUUID, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID %s", ErrInvalidInput, listingID)
	}

	listing, err := s.repo.Listing.FindByID(ctx, listingUUID)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, ErrNotFound)
	}
	if listing.HostID == userID {
		return nil, fmt.Errorf("hosts cannot review their own listing: %w", ErrForbidden)
	}

	review := &entity.Review{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now().UTC(),
		},
		UserID:    userID,
		ListingID: listingUUID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("listing already reviewed: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("listing_id", listingID),
		zap.Int("rating", review.Rating))

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) GetListingReviews(ctx context.Context, listingID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	listingUUID, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID %s", ErrInvalidInput, listingID)
	}

	reviews, err := s.repo.Review.FindByListingID(ctx, listingUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get reviews: %w", err)
	}

	total, err := s.repo.Review.CountByListingID(ctx, listingUUID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	data := make([]response.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		data = append(data, response.ReviewToResponse(r))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *reviewService) DeleteReview(ctx context.Context, caller *Identity, reviewID string) error {
	id, err := uuid.Parse(reviewID)
	if err != nil {
		return fmt.Errorf("%w: invalid review ID %s", ErrInvalidInput, reviewID)
	}

	review, err := s.repo.Review.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return fmt.Errorf("review %s: %w", reviewID, ErrNotFound)
	}
	if review.UserID != caller.UserID && caller.Role != entity.RoleAdmin {
		return fmt.Errorf("review %s: %w", reviewID, ErrForbidden)
	}

	if err := s.repo.Review.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
