// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package directory resolves people (students, professors) for nomination.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrPersonNotFound = errors.New("person not found")

// Person is a directory entry as seen at lookup time
type Person struct {
	ID         string
	Email      string
	Name       string
	Department string
	Year       int
	PhotoURL   string
	Institute  string
}

// Directory looks people up by email address or ID.
type Directory interface {
	Resolve(ctx context.Context, emailOrID string) (Person, error)
}

// SQLDirectory reads the person table.
type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

// Resolve matches the key against the person ID, then the email address
// (case-insensitive).
func (d *SQLDirectory) Resolve(ctx context.Context, emailOrID string) (Person, error) {
	key := strings.TrimSpace(emailOrID)
	if key == "" {
		return Person{}, ErrPersonNotFound
	}

	var p Person
	err := d.db.QueryRowContext(ctx, `
		SELECT id, email, name, department, year, photo_url, institute
		FROM person
		WHERE id = $1 OR LOWER(email) = LOWER($1)
		ORDER BY CASE WHEN id = $1 THEN 0 ELSE 1 END
		LIMIT 1
	`, key).Scan(&p.ID, &p.Email, &p.Name, &p.Department, &p.Year, &p.PhotoURL, &p.Institute)

	if err == sql.ErrNoRows {
		return Person{}, ErrPersonNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("failed to query person: %w", err)
	}

	return p, nil
}
