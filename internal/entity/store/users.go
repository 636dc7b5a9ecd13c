package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"medplant/internal/entity/models"
	"medplant/pkg/platform/sentinel"
)

// PostgresUserDirectory answers tenant lookups for the auth middleware.
type PostgresUserDirectory struct {
	db *sql.DB
}

func NewPostgresUserDirectory(db *sql.DB) *PostgresUserDirectory {
	return &PostgresUserDirectory{db: db}
}

// GetUserTenantID returns the plant of an active user. A user without a
// plant yields nil; an unknown user yields sentinel.ErrNotFound.
func (d *PostgresUserDirectory) GetUserTenantID(ctx context.Context, username string) (*int64, error) {
	var plant sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		`SELECT plant_id FROM system_users WHERE lower(username) = lower($1) AND active`, username).Scan(&plant)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup tenant for %q: %w", username, err)
	}
	if !plant.Valid {
		return nil, nil
	}
	return &plant.Int64, nil
}

// MemoryUserDirectory reads tenants from an in-memory user repository.
type MemoryUserDirectory struct {
	users *MemoryRepository[*models.SystemUser]
}

func NewMemoryUserDirectory(users *MemoryRepository[*models.SystemUser]) *MemoryUserDirectory {
	return &MemoryUserDirectory{users: users}
}

func (d *MemoryUserDirectory) GetUserTenantID(ctx context.Context, username string) (*int64, error) {
	all, err := d.users.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, u := range all {
		if u.Active && strings.EqualFold(u.Username, username) {
			return u.PlantID, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
