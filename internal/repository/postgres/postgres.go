package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"missionctl/internal/repository"
)

const healthQuery = `SELECT id FROM tasks LIMIT 1`

// Store implements the generic row store on PostgreSQL. Table and
// column identifiers are supplied by the resource schemas; callers are
// responsible for restricting them to declared names.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ repository.Store = (*Store)(nil)

// List returns rows matching every filter, sorted by orderBy.
func (s *Store) List(ctx context.Context, table string, filters map[string]string, orderBy string, descending bool) ([]map[string]any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(ident(table))

	args := make([]any, 0, len(filters))
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for i, key := range keys {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, filters[key])
		fmt.Fprintf(&sb, "%s = $%d", ident(key), len(args))
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(ident(orderBy))
	if descending {
		sb.WriteString(" DESC")
	} else {
		sb.WriteString(" ASC")
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

// Get fetches exactly one row by identifier.
func (s *Store) Get(ctx context.Context, table, id string) (map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", ident(table))
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

// Insert persists a new row and returns it as stored.
func (s *Store) Insert(ctx context.Context, table string, row map[string]any) (map[string]any, error) {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cols := make([]string, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, key := range keys {
		cols = append(cols, ident(key))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, encodeValue(row[key]))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident(table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToMap)
}

// Update merges patch into the identified row and returns the result.
func (s *Store) Update(ctx context.Context, table, id string, patch map[string]any) (map[string]any, error) {
	keys := make([]string, 0, len(patch))
	for key := range patch {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	assignments := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, key := range keys {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", ident(key), i+1))
		args = append(args, encodeValue(patch[key]))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		ident(table), strings.Join(assignments, ", "), len(args))
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

// Delete removes the row with the given identifier.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", ident(table))
	_, err := s.pool.Exec(ctx, query, id)
	return err
}

// Health runs a minimal one-row query to prove liveness.
func (s *Store) Health(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, healthQuery)
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}

// ident quotes an identifier for interpolation into query text.
func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// encodeValue converts decoded JSON containers into raw JSON so they
// land in jsonb columns; scalars pass through to the pgx codecs.
func encodeValue(value any) any {
	switch v := value.(type) {
	case []any, map[string]any, []string:
		raw, err := json.Marshal(v)
		if err != nil {
			return value
		}
		return json.RawMessage(raw)
	default:
		return value
	}
}
