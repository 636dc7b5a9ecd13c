package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	audit "medplant/pkg/platform/audit"
)

// Store appends audit entries to the audit_entries table. Inserts are
// idempotent on entry ID so queue redeliveries do not duplicate rows.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Append(ctx context.Context, e audit.Entry) error {
	if s == nil || s.pool == nil {
		return errors.New("audit store not configured")
	}
	const query = `
INSERT INTO audit_entries (
	id, entity_type, action, record_id, before_json, after_json,
	changes, description, actor, tenant_id, request_id, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		e.ID,
		e.EntityType,
		e.Action,
		e.RecordID,
		nullJSON(e.Before),
		nullJSON(e.After),
		e.Changes,
		e.Description,
		e.Actor,
		e.TenantID,
		e.RequestID,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityType, recordID string) ([]audit.Entry, error) {
	const query = selectColumns + `
WHERE entity_type = $1 AND ($2 = '' OR record_id = $2)
ORDER BY created_at ASC, id ASC`
	return s.query(ctx, query, entityType, recordID)
}

func (s *Store) ListByAction(ctx context.Context, action string) ([]audit.Entry, error) {
	const query = selectColumns + `
WHERE action = $1
ORDER BY created_at ASC, id ASC`
	return s.query(ctx, query, action)
}

// ListRecent returns the N most recent entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	const query = selectColumns + `
ORDER BY created_at DESC
LIMIT $1`
	return s.query(ctx, query, limit)
}

const selectColumns = `
SELECT id, entity_type, action, record_id, before_json, after_json,
	changes, description, actor, tenant_id, request_id, created_at
FROM audit_entries`

func (s *Store) query(ctx context.Context, query string, args ...any) ([]audit.Entry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan audit entries: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (audit.Entry, error) {
	var e audit.Entry
	var before, after []byte
	err := row.Scan(
		&e.ID,
		&e.EntityType,
		&e.Action,
		&e.RecordID,
		&before,
		&after,
		&e.Changes,
		&e.Description,
		&e.Actor,
		&e.TenantID,
		&e.RequestID,
		&e.Timestamp,
	)
	e.Before = before
	e.After = after
	return e, err
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
