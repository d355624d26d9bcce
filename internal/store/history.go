package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

var (
	// ErrNotFound is returned when no report matches an ID.
	ErrNotFound = errors.New("report not found")
	// ErrAmbiguous is returned when an ID prefix matches several reports.
	ErrAmbiguous = errors.New("report id prefix is ambiguous")
)

// Report is one saved report document.
type Report struct {
	ID           string
	Repo         string
	FromRef      string
	ToRef        string
	FromHash     string
	ToHash       string
	Path         string
	FilesChanged int
	CreatedAt    time.Time
}

// ShortID returns the first 8 characters of the ID.
func (r Report) ShortID() string {
	if len(r.ID) > 8 {
		return r.ID[:8]
	}
	return r.ID
}

// NewReport describes a report saved to path for the comparison r.
func NewReport(repo, path string, r *models.ComparisonResult, now time.Time) Report {
	rep := Report{
		Repo:         repo,
		FromRef:      r.FromRef,
		ToRef:        r.ToRef,
		Path:         path,
		FilesChanged: r.TotalChanges(),
		CreatedAt:    now,
	}
	if r.From != nil {
		rep.FromHash = r.From.Hash
	}
	if r.To != nil {
		rep.ToHash = r.To.Hash
	}
	return rep
}

// Record inserts rep, assigning an ID and timestamp when missing.
func (s *Store) Record(ctx context.Context, rep Report) (Report, error) {
	if rep.ID == "" {
		rep.ID = uuid.New().String()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, repo, from_ref, to_ref, from_hash, to_hash, path, files_changed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rep.ID, rep.Repo, rep.FromRef, rep.ToRef, rep.FromHash, rep.ToHash, rep.Path, rep.FilesChanged,
		rep.CreatedAt.UnixMilli())
	if err != nil {
		return Report{}, fmt.Errorf("insert report: %w", err)
	}
	return rep, nil
}

// List returns up to limit reports, newest first. A limit of zero or
// less returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo, from_ref, to_ref, from_hash, to_hash, path, files_changed, created_at
		FROM reports
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

// Get returns the report whose ID equals or starts with id.
func (s *Store) Get(ctx context.Context, id string) (Report, error) {
	if id == "" {
		return Report{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo, from_ref, to_ref, from_hash, to_hash, path, files_changed, created_at
		FROM reports
		WHERE substr(id, 1, length(?1)) = ?1
		LIMIT 2
	`, id)
	if err != nil {
		return Report{}, fmt.Errorf("query report: %w", err)
	}
	defer rows.Close()

	var found []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return Report{}, err
		}
		found = append(found, rep)
	}
	if err := rows.Err(); err != nil {
		return Report{}, fmt.Errorf("iterate reports: %w", err)
	}

	switch len(found) {
	case 0:
		return Report{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return Report{}, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// Delete removes the report with the exact ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanReport(rows *sql.Rows) (Report, error) {
	var (
		rep     Report
		created int64
	)
	if err := rows.Scan(&rep.ID, &rep.Repo, &rep.FromRef, &rep.ToRef, &rep.FromHash, &rep.ToHash,
		&rep.Path, &rep.FilesChanged, &created); err != nil {
		return Report{}, fmt.Errorf("scan report: %w", err)
	}
	rep.CreatedAt = time.UnixMilli(created)
	return rep, nil
}
