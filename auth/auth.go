// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token format")
	ErrBadSignature = errors.New("invalid token signature")
	ErrTokenExpired = errors.New("token expired")
)

// Account roles carried in the bearer token
const (
	RoleAdmin     = "admin"
	RoleStudent   = "student"
	RoleProfessor = "professor"
)

// Identity is the caller as asserted by the identity provider.
type Identity struct {
	UserID    string `json:"sub"`
	Role      string `json:"role"`
	Institute string `json:"inst"`
	ExpiresAt int64  `json:"exp,omitempty"` // unix seconds, 0 = no expiry
}

// IsZero reports whether no caller was identified
func (id Identity) IsZero() bool {
	return id.UserID == ""
}

// HasRole reports whether the identity holds one of the given roles
func (id Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

// GenerateID creates a random UUID for database records
func GenerateID() string {
	return uuid.NewString()
}

// IssueToken signs an identity into a bearer token.
// Tokens are issued by the identity provider in production; this is used
// by tests and the operator CLI.
func IssueToken(id Identity, secret string) (string, error) {
	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("failed to encode token claims: %w", err)
	}
	body := encode(payload)
	return body + "." + sign(body, secret), nil
}

// ParseToken verifies a bearer token and returns the identity it carries
func ParseToken(token, secret string) (Identity, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return Identity{}, ErrInvalidToken
	}

	if !hmac.Equal([]byte(sig), []byte(sign(body, secret))) {
		return Identity{}, ErrBadSignature
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return Identity{}, ErrInvalidToken
	}
	if id.UserID == "" || id.Role == "" {
		return Identity{}, ErrInvalidToken
	}

	if id.ExpiresAt != 0 && time.Now().Unix() >= id.ExpiresAt {
		return Identity{}, ErrTokenExpired
	}

	return id, nil
}

// sign computes the URL-safe HMAC-SHA256 of the token body
func sign(body, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(body))
	return encode(h.Sum(nil))
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
