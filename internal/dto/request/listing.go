package request

import "github.com/shopspring/decimal"

type CreateListingRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=200"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	City        *string         `json:"city,omitempty" validate:"omitempty,max=100"`
	Images      []string        `json:"images,omitempty" validate:"omitempty,max=20,dive,url"`
}

type UpdateListingRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,money"`
	City        *string          `json:"city,omitempty" validate:"omitempty,max=100"`
	Images      []string         `json:"images,omitempty" validate:"omitempty,max=20,dive,url"`
}

type ListListingsRequest struct {
	PaginatedRequest
	City *string `json:"city,omitempty"`
}
