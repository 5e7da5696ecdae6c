package entity

type UserRole string

const (
	RoleTourist UserRole = "tourist"
	RoleGuide   UserRole = "guide"
	RoleAdmin   UserRole = "admin"
)

// SelfAssignable reports whether a user may pick this role at registration.
func (r UserRole) SelfAssignable() bool {
	return r == RoleTourist || r == RoleGuide
}

// CanHost reports whether the role may publish listings.
func (r UserRole) CanHost() bool {
	return r == RoleGuide || r == RoleAdmin
}

type User struct {
	Base
	Name         string   `db:"name"`
	Email        string   `db:"email"`
	PasswordHash string   `db:"password"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}
