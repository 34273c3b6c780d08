// Package model defines the data structures shared across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles. It is parsed once when an
// identity is resolved (signup, login, or token validation); policy code
// switches on the enum and never re-derives it from raw strings.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// ParseRole maps a free-form role string onto the enum, case-insensitively.
// The original data set carries both "doctor" and "DOCTOR" spellings.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RolePatient):
		return RolePatient, nil
	case string(RoleDoctor):
		return RoleDoctor, nil
	default:
		return "", fmt.Errorf("model: unknown role %q", s)
	}
}

// User represents a registered account (patient or doctor).
//
// PasswordHash is tagged `json:"-"` so it can never cross the response
// boundary, no matter which handler serializes the struct. Redaction is
// enforced here rather than trusted to each call site.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"` // stored normalized: trimmed, lowercase
	PasswordHash string    `json:"-"`
	Role         Role      `json:"userType"`
	ProfileImage string    `json:"profileImage,omitempty"` // server-relative /uploads path or absolute URL
	AddressLine1 string    `json:"addressLine1,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	Pincode      string    `json:"pincode,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Author is the read-only projection of a blog's owning doctor that gets
// embedded in blog responses. It has no lifecycle of its own.
type Author struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ProfileImage string `json:"profileImage,omitempty"`
}
