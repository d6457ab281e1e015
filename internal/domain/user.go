package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	UserID        string    `json:"userId"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FullName      string    `json:"fullName"`
	Role          string    `json:"role"`
	IsVerified    bool      `json:"isVerified"`
	RatingAverage float64   `json:"ratingAverage"`
	RatingCount   int       `json:"ratingCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by verify-otp and login. The user never
// includes the password hash (json:"-" on the field).
type SessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Valid user roles
const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if r.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if r.FullName == "" {
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	return nil
}

func (r *VerifyOtpRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Otp = strings.TrimSpace(r.Otp)
}

func (r *VerifyOtpRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if r.Otp == "" {
		return fmt.Errorf("%w: otp is required", ErrInvalidInput)
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if r.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	return nil
}

// FirstLastName splits the full name into the first/last tokens the
// payment gateway's billing data requires. A single-word name defaults
// the missing token to "User".
func (u *User) FirstLastName() (string, string) {
	parts := strings.Fields(u.FullName)
	first, last := "User", "User"
	if len(parts) > 0 {
		first = parts[0]
	}
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
