package domain

import (
	"net/mail"
	"strings"
	"time"
)

const (
	RoleCitizen = "citizen"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleCitizen, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Locale       string    `json:"locale,omitempty"`
	ConsentedAt  time.Time `json:"consented_at"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Consent  bool   `json:"consent"`
	Phone    string `json:"phone,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Locale == "" {
		r.Locale = "de"
	}
}

func (r *RegisterRequest) Validate() error {
	if r.Username == "" {
		return ValidationError("username is required")
	}
	if r.Email == "" {
		return ValidationError("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ValidationError("email is not valid")
	}
	if len(r.Password) < 8 {
		return ValidationError("password must be at least 8 characters")
	}
	if !r.Consent {
		return ValidationError("consent to data processing is required")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// DataExport is the GET /mydata payload.
type DataExport struct {
	User     *User     `json:"user"`
	Bookings []Booking `json:"bookings"`
}
