package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

type UserCreateRequest struct {
	Username string         `json:"username" validate:"required,min=3,max=50"`
	Email    string         `json:"email" validate:"omitempty,email"`
	Password string         `json:"password" validate:"required,min=8,max=72"`
	Role     types.UserRole `json:"role" validate:"omitempty,oneof=ADMIN VIEWER"`
}

type UserPatch struct {
	Username *string         `json:"username" validate:"omitempty,min=3,max=50"`
	Email    *string         `json:"email" validate:"omitempty,email"`
	Password *string         `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *types.UserRole `json:"role" validate:"omitempty,oneof=ADMIN VIEWER"`
}

func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Password == nil && p.Role == nil
}

type User struct {
	ID          uuid.UUID      `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email,omitempty"`
	password    string         `json:"-"`
	Role        types.UserRole `json:"role"`
	IsActive    bool           `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at,omitzero"`
	LastLoginAt *time.Time     `json:"last_login_at"`
}

func (u *User) GetPassword() string {
	return u.password
}

func (u *User) SetPassword(password string) {
	u.password = password
}

func (u User) Validate(v *validator.Validator) {
	v.Check(u.Username != "", "username", "must be provided")
	v.Check(len(u.Username) >= 3, "username", "must be at least 3 bytes long")
	v.Check(len(u.Username) <= 50, "username", "must not be more than 50 bytes long")
	v.Check(u.Email == "" || validator.Matches(u.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(u.Role.Valid(), "role", "must be ADMIN or VIEWER")
}
