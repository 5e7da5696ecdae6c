package response

import (
	"time"

	"guidehub/internal/data/entity"
)

type ListingResponse struct {
	ID          string    `json:"id"`
	HostID      string    `json:"hostId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	City        *string   `json:"city,omitempty"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ListingDetailResponse struct {
	ListingResponse
	Reviews ReviewStats `json:"reviews"`
}

func ListingToResponse(listing *entity.Listing) ListingResponse {
	images := listing.Images
	if images == nil {
		images = []string{}
	}
	return ListingResponse{
		ID:          listing.ID.String(),
		HostID:      listing.HostID.String(),
		Title:       listing.Title,
		Description: listing.Description,
		Price:       listing.Price.StringFixed(2),
		City:        listing.City,
		Images:      images,
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}
}
