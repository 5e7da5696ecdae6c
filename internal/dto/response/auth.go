package response

import (
	"time"

	"guidehub/internal/data/entity"
)

type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      entity.UserRole `json:"role"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PublicUserResponse omits contact details.
type PublicUserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Role      entity.UserRole `json:"role"`
	CreatedAt time.Time       `json:"createdAt"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func UserToPublicResponse(user *entity.User) PublicUserResponse {
	return PublicUserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
