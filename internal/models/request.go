// Package models - API request types and input validation.
// This file defines all incoming API request structures with validation.
//
// Validation Philosophy:
// - Fail fast with clear error messages for invalid input
// - Normalize input (trimmed strings) before validation
// - Identifiers are otherwise opaque: no case folding, no canonicalization
package models

import (
	"errors"
	"fmt"
	"strings"
)

// LoginRequest represents an authentication attempt.
//
// Security Notes:
// - The username doubles as a lockout tracking key; it is trimmed but never
//   otherwise normalized, so "Admin" and "admin" are distinct identifiers
// - The password is never logged or echoed back
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}

	if len(r.Username) > maxIdentifierLen {
		return fmt.Errorf("username exceeds %d characters", maxIdentifierLen)
	}

	if r.Password == "" {
		return errors.New("password is required")
	}

	return nil
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

// CreateUserRequest registers demo credentials (admin operation).
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r *CreateUserRequest) Validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}

	if len(r.Username) > maxIdentifierLen {
		return fmt.Errorf("username exceeds %d characters", maxIdentifierLen)
	}

	if len(r.Password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	return nil
}

func (r *CreateUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

const (
	// maxIdentifierLen caps tracked identifiers so a hostile client cannot
	// inflate per-entry memory with megabyte usernames.
	maxIdentifierLen = 256

	minPasswordLen = 8
)
