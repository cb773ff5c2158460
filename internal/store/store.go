// Package store persists budget plans and their export history in SQLite
// or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	_ "modernc.org/sqlite"             // register sqlite driver

	"github.com/graest/orcamento/internal/model"
)

// ErrNotFound is returned when no plan matches the requested reference.
var ErrNotFound = errors.New("plan not found")

const dateLayout = "2006-01-02"

// Store is a plan database.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// Open opens or creates the store. A DSN starting with postgres:// or
// postgresql:// connects to PostgreSQL; anything else is a SQLite file path.
func Open(dsn string) (*Store, error) {
	if isPostgres(dsn) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return initStore(db, sq.StatementBuilder.PlaceholderFormat(sq.Dollar))
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	return initStore(db, sq.StatementBuilder.PlaceholderFormat(sq.Question))
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func initStore(db *sql.DB, sb sq.StatementBuilderType) (*Store, error) {
	for _, stmt := range schemaSQL {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &Store{db: db, sb: sb}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PlanInfo is the listing view of a stored plan.
type PlanInfo struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Save inserts or replaces a plan. The creation time of an existing plan
// is kept.
func (s *Store) Save(ctx context.Context, p *model.Snapshot) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	query, args, err := s.sb.Insert("plans").
		Columns("plan_id", "nickname", "title", "start_date", "end_date", "document", "created_at", "updated_at").
		Values(p.ID, p.Nickname, p.Title, formatDate(p.StartDate), formatDate(p.EndDate), string(doc), now, now).
		Suffix(`ON CONFLICT (plan_id) DO UPDATE SET
			nickname = excluded.nickname,
			title = excluded.title,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			document = excluded.document,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving plan %s: %w", p.ID, err)
	}
	return nil
}

// Load returns the plan whose ID or nickname is ref. When several plans
// share a nickname the most recently updated wins.
func (s *Store) Load(ctx context.Context, ref string) (*model.Snapshot, error) {
	query, args, err := s.sb.Select("document").
		From("plans").
		Where(sq.Or{sq.Eq{"plan_id": ref}, sq.Eq{"nickname": ref}}).
		OrderByClause("CASE WHEN plan_id = ? THEN 0 ELSE 1 END", ref).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var doc string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan %q: %w", ref, err)
	}

	var p model.Snapshot
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decoding plan %q: %w", ref, err)
	}
	return &p, nil
}

// List returns every stored plan ordered by nickname.
func (s *Store) List(ctx context.Context) ([]PlanInfo, error) {
	query, args, err := s.sb.Select("plan_id", "nickname", "title", "start_date", "end_date", "updated_at").
		From("plans").
		OrderBy("nickname", "plan_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []PlanInfo
	for rows.Next() {
		var p PlanInfo
		var start, end sql.NullString
		var updated string
		if err := rows.Scan(&p.ID, &p.Nickname, &p.Title, &start, &end, &updated); err != nil {
			return nil, err
		}
		p.StartDate = parseDate(start.String)
		p.EndDate = parseDate(end.String)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a plan and its export history.
func (s *Store) Delete(ctx context.Context, id string) error {
	query, args, err := s.sb.Delete("plans").Where(sq.Eq{"plan_id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return nil
}

// ExportRecord is one generated workbook.
type ExportRecord struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	Filename  string    `json:"filename"`
	Total     float64   `json:"total"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordExport appends an export to the plan's history, filling in the
// ID and timestamp when they are unset.
func (s *Store) RecordExport(ctx context.Context, rec *ExportRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query, args, err := s.sb.Insert("exports").
		Columns("export_id", "plan_id", "filename", "total", "size_bytes", "created_at").
		Values(rec.ID, rec.PlanID, rec.Filename, rec.Total, rec.SizeBytes, rec.CreatedAt.UTC().Format(time.RFC3339Nano)).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("recording export for %s: %w", rec.PlanID, err)
	}
	return nil
}

// Exports returns a plan's export history, oldest first.
func (s *Store) Exports(ctx context.Context, planID string) ([]ExportRecord, error) {
	query, args, err := s.sb.Select("export_id", "plan_id", "filename", "total", "size_bytes", "created_at").
		From("exports").
		Where(sq.Eq{"plan_id": planID}).
		OrderBy("created_at", "export_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ExportRecord
	for rows.Next() {
		var r ExportRecord
		var created string
		if err := rows.Scan(&r.ID, &r.PlanID, &r.Filename, &r.Total, &r.SizeBytes, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}
