package models

import (
	"errors"
	"strings"
	"time"
)

// UserRole represents the role of a platform user
type UserRole string

const (
	RoleClient UserRole = "CLIENT"
	RoleDriver UserRole = "DRIVER"
	RoleAdmin  UserRole = "ADMIN"
)

// UserStatus represents whether an account is usable
type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
)

// User represents a passenger, driver or administrator account
type User struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Phone        string     `json:"phone" db:"phone"`
	Role         UserRole   `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`

	// Driver-only fields
	LicenseNumber *string `json:"license_number,omitempty" db:"license_number"`
	City          *string `json:"city,omitempty" db:"city"`
	AssignedBusID *string `json:"assigned_bus_id,omitempty" db:"assigned_bus_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsDriver reports whether the user holds the driver role
func (u *User) IsDriver() bool {
	return u.Role == RoleDriver
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SignupRequest is the payload for passenger self-registration
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
}

// Validate checks the signup payload beyond what binding covers
func (r *SignupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// LoginRequest is the payload for credential login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SaveUserRequest is the admin payload for creating or updating an account.
// When ID is set the request updates the existing account.
type SaveUserRequest struct {
	ID            string   `json:"id"`
	Name          string   `json:"name" binding:"required"`
	Email         string   `json:"email" binding:"required,email"`
	Password      string   `json:"password"`
	Phone         string   `json:"phone"`
	Role          UserRole `json:"role" binding:"required"`
	LicenseNumber *string  `json:"license_number"`
	City          *string  `json:"city"`
	AssignedBusID *string  `json:"assigned_bus_id"`
	Status        *string  `json:"status"`
}

// Validate checks role membership and driver fields
func (r *SaveUserRequest) Validate() error {
	switch r.Role {
	case RoleClient, RoleDriver, RoleAdmin:
	default:
		return errors.New("role must be CLIENT, DRIVER or ADMIN")
	}
	if r.ID == "" && r.Password == "" {
		return errors.New("password is required for a new account")
	}
	return nil
}
