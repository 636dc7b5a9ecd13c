package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"

	"medplant/internal/pipeline"
	"medplant/pkg/platform/sentinel"
)

// Table maps an entity onto a SQL table. Fields returns pointers to the
// entity's own columns, in Columns order; it is used for both writes and scans.
type Table[E pipeline.Entity] struct {
	Name    string
	Columns []string
	Fields  func(E) []any
	New     func() E
}

var baseColumns = []string{"id", "plant_id", "created_by", "created_on", "modified_by", "modified_on"}

// PostgresRepository stores one entity type through database/sql and lib/pq.
type PostgresRepository[E pipeline.Entity] struct {
	db    *sql.DB
	table Table[E]
}

func NewPostgresRepository[E pipeline.Entity](db *sql.DB, table Table[E]) *PostgresRepository[E] {
	return &PostgresRepository[E]{db: db, table: table}
}

func (r *PostgresRepository[E]) selectColumns() string {
	return strings.Join(append(slices.Clone(baseColumns), r.table.Columns...), ", ")
}

func (r *PostgresRepository[E]) List(ctx context.Context, tenantID *int64) ([]E, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", r.selectColumns(), r.table.Name)
	var args []any
	if tenantID != nil {
		query += " WHERE plant_id = $1"
		args = append(args, *tenantID)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table.Name, err)
	}
	defer rows.Close()

	var out []E
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table.Name, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table.Name, err)
	}
	return out, nil
}

func (r *PostgresRepository[E]) GetByID(ctx context.Context, id int64, tenantID *int64) (E, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", r.selectColumns(), r.table.Name)
	args := []any{id}
	if tenantID != nil {
		query += " AND plant_id = $2"
		args = append(args, *tenantID)
	}

	e, err := r.scan(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		var zero E
		return zero, sentinel.ErrNotFound
	}
	if err != nil {
		var zero E
		return zero, fmt.Errorf("get %s %d: %w", r.table.Name, id, err)
	}
	return e, nil
}

func (r *PostgresRepository[E]) Add(ctx context.Context, e E) error {
	meta := e.Meta()
	cols := append([]string{"plant_id", "created_by", "created_on"}, r.table.Columns...)
	args := append([]any{meta.PlantID, meta.CreatedBy, meta.CreatedOn}, r.table.Fields(e)...)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		r.table.Name, strings.Join(cols, ", "), placeholders(1, len(cols)))
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&meta.ID); err != nil {
		return mapError(fmt.Errorf("insert %s: %w", r.table.Name, err))
	}
	return nil
}

func (r *PostgresRepository[E]) Update(ctx context.Context, e E, modifiedBy string, modifiedOn time.Time) error {
	meta := e.Meta()
	sets := []string{"plant_id = $1", "modified_by = $2", "modified_on = $3"}
	args := []any{meta.PlantID, modifiedBy, modifiedOn}
	for i, col := range r.table.Columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+4))
	}
	args = append(args, r.table.Fields(e)...)
	args = append(args, meta.ID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", r.table.Name, strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(fmt.Errorf("update %s %d: %w", r.table.Name, meta.ID, err))
	}
	return requireAffected(res)
}

func (r *PostgresRepository[E]) Delete(ctx context.Context, id int64, tenantID *int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table.Name)
	args := []any{id}
	if tenantID != nil {
		query += " AND plant_id = $2"
		args = append(args, *tenantID)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", r.table.Name, id, err)
	}
	return requireAffected(res)
}

// Exists compares case-insensitively, like the lower() unique indexes.
func (r *PostgresRepository[E]) Exists(ctx context.Context, column string, value any, excludeID int64, tenantID *int64) (bool, error) {
	if !slices.Contains(r.table.Columns, column) {
		return false, fmt.Errorf("column %q is not part of %s", column, r.table.Name)
	}
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE lower(%s::text) = lower($1::text) AND id <> $2",
		r.table.Name, column)
	args := []any{fmt.Sprint(value), excludeID}
	if tenantID != nil {
		query += " AND plant_id = $3"
		args = append(args, *tenantID)
	}
	query += ")"

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s.%s: %w", r.table.Name, column, err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository[E]) scan(row rowScanner) (E, error) {
	e := r.table.New()
	meta := e.Meta()
	var modifiedBy sql.NullString
	dest := append([]any{&meta.ID, &meta.PlantID, &meta.CreatedBy, &meta.CreatedOn, &modifiedBy, &meta.ModifiedOn},
		r.table.Fields(e)...)
	if err := row.Scan(dest...); err != nil {
		var zero E
		return zero, err
	}
	meta.ModifiedBy = modifiedBy.String
	return e, nil
}

// mapError turns unique index violations into typed errors. The constraint
// name is what the pipeline matches against its unique rules.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &sentinel.UniqueViolation{Constraint: pqErr.Constraint, Err: err}
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}
