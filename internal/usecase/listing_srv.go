package usecase

import (
	"context"
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

type ListingService interface {
	GetAllListings(ctx context.Context, req *request.ListListingsRequest) (*response.PaginatedResponse[response.ListingResponse], error)
	GetListingByID(ctx context.Context, listingID string) (*response.ListingDetailResponse, error)

	// Host endpoints
	CreateListing(ctx context.Context, host *Identity, req *request.CreateListingRequest) (*response.ListingResponse, error)
	UpdateListing(ctx context.Context, host *Identity, listingID string, req *request.UpdateListingRequest) (*response.ListingResponse, error)
	DeleteListing(ctx context.Context, host *Identity, listingID string) error
}

type listingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewListingService(repo *repository.Repository, log *zap.Logger) ListingService {
	return &listingService{
		repo: repo,
		log:  log.With(zap.String("service", "listing")),
	}
}

func (s *listingService) GetAllListings(ctx context.Context, req *request.ListListingsRequest) (*response.PaginatedResponse[response.ListingResponse], error) {
	listings, err := s.repo.Listing.FindAll(ctx, req.Offset(), req.Limit(), req.City)
	if err != nil {
		return nil, fmt.Errorf("get listings: %w", err)
	}

	total, err := s.repo.Listing.CountAll(ctx, req.City)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	data := make([]response.ListingResponse, 0, len(listings))
	for _, l := range listings {
		data = append(data, response.ListingToResponse(l))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *listingService) GetListingByID(ctx context.Context, listingID string) (*response.ListingDetailResponse, error) {
	listing, err := s.find(ctx, listingID)
	if err != nil {
		return nil, err
	}

	avg, count, err := s.repo.Review.GetListingReviewStats(ctx, listing.ID)
	if err != nil {
		return nil, fmt.Errorf("get review stats: %w", err)
	}

	return &response.ListingDetailResponse{
		ListingResponse: response.ListingToResponse(listing),
		Reviews: response.ReviewStats{
			AverageRating: avg,
			TotalReviews:  count,
		},
	}, nil
}

func (s *listingService) CreateListing(ctx context.Context, host *Identity, req *request.CreateListingRequest) (*response.ListingResponse, error) {
	if !host.Role.CanHost() {
		return nil, fmt.Errorf("role %s cannot publish listings: %w", host.Role, ErrForbidden)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create listing validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	now := time.Now().UTC()
	listing := &entity.Listing{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		HostID:      host.UserID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price.Round(2),
		City:        req.City,
		Images:      req.Images,
	}
	if listing.Images == nil {
		listing.Images = []string{}
	}

	if err := s.repo.Listing.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info("Listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("host_id", host.UserID.String()))

	resp := response.ListingToResponse(listing)
	return &resp, nil
}

// UpdateListing changes the listing for future bookings only; existing
// bookings keep the price they were quoted.
func (s *listingService) UpdateListing(ctx context.Context, host *Identity, listingID string, req *request.UpdateListingRequest) (*response.ListingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	listing, err := s.find(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(host, listing); err != nil {
		return nil, err
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Price != nil {
		listing.Price = req.Price.Round(2)
	}
	if req.City != nil {
		listing.City = req.City
	}
	if req.Images != nil {
		listing.Images = req.Images
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Listing.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}

	resp := response.ListingToResponse(listing)
	return &resp, nil
}

func (s *listingService) DeleteListing(ctx context.Context, host *Identity, listingID string) error {
	listing, err := s.find(ctx, listingID)
	if err != nil {
		return err
	}
	if err := s.authorize(host, listing); err != nil {
		return err
	}

	if err := s.repo.Listing.Delete(ctx, listing.ID); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

func (s *listingService) find(ctx context.Context, listingID string) (*entity.Listing, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID %s", ErrInvalidInput, listingID)
	}

	listing, err := s.repo.Listing.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, ErrNotFound)
	}
	return listing, nil
}

// authorize lets the host or an admin change a listing.
func (s *listingService) authorize(host *Identity, listing *entity.Listing) error {
	if host.Role == entity.RoleAdmin || listing.HostID == host.UserID {
		return nil
	}
	s.log.Warn("Listing change denied",
		zap.String("listing_id", listing.ID.String()),
		zap.String("user_id", host.UserID.String()))
	return fmt.Errorf("listing %s: %w", listing.ID.String(), ErrForbidden)
}
