// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted administrator password.
const MinPasswordLength = 8

// DefaultBcryptCost is the work factor for the administrator password hash.
const DefaultBcryptCost = 12

// Credentials holds the administrator username and a bcrypt hash of the password.
type Credentials struct {
	username     string
	passwordHash []byte
}

// NewCredentials hashes password with the given bcrypt cost. A cost of 0
// uses DefaultBcryptCost.
func NewCredentials(username, password string, cost int) (*Credentials, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &Credentials{
		username:     username,
		passwordHash: hash,
	}, nil
}

// Verify reports whether username and password match. The bcrypt comparison
// always runs so a wrong username takes as long as a wrong password.
func (c *Credentials) Verify(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	return usernameMatch && passwordMatch
}
