package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session backs an issued token. Its ID is the token's jti.
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}
