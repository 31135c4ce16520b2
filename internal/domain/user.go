package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	PinCode   string    `json:"pin_code,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the caller as established by the auth layer. The core trusts it
// and never reads ambient session state.
type Identity struct {
	UserID int
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type RegisterUserDTO struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required,max=100"`
	Address  string `json:"address" binding:"max=200"`
	PinCode  string `json:"pin_code" binding:"max=10"`
}

type LoginUserDTO struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponseDTO struct {
	Token  string `json:"token"`
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}
