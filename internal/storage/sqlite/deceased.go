package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/obraledger/obraledger/internal/models"
	"github.com/obraledger/obraledger/internal/storage"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so that row helpers can run
// standalone or inside the import/apply transactions.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const deceasedColumns = `id, name, age, gender, death_date, burial_date, photo,
	representative_name, representative_phone, status, is_synced, created_at, updated_at`

// AddDeceased inserts a new death case, assigning ID and timestamps.
func (s *SQLiteStore) AddDeceased(ctx context.Context, d *models.Deceased) (int64, error) {
	now := time.Now().UTC()
	d.IsSynced = false
	d.CreatedAt = now
	d.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO deceased (name, age, gender, death_date, burial_date, photo,
			representative_name, representative_phone, status, is_synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		d.Name, d.Age, d.Gender, d.DeathDate, d.BurialDate, d.Photo,
		d.RepresentativeName, d.RepresentativePhone, d.Status,
		encodeTime(d.CreatedAt), encodeTime(d.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert deceased: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read deceased id: %w", err)
	}
	d.ID = id
	return id, nil
}

// UpdateDeceased overwrites the record's fields and refreshes UpdatedAt.
func (s *SQLiteStore) UpdateDeceased(ctx context.Context, id int64, d *models.Deceased) error {
	d.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE deceased SET name = ?, age = ?, gender = ?, death_date = ?, burial_date = ?,
			photo = ?, representative_name = ?, representative_phone = ?, status = ?,
			is_synced = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Age, d.Gender, d.DeathDate, d.BurialDate,
		d.Photo, d.RepresentativeName, d.RepresentativePhone, d.Status,
		d.IsSynced, encodeTime(d.UpdatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update deceased %d: %w", id, err)
	}
	return requireRow(res, id)
}

// GetDeceased retrieves a death case by ID.
func (s *SQLiteStore) GetDeceased(ctx context.Context, id int64) (*models.Deceased, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deceasedColumns+` FROM deceased WHERE id = ?`, id)
	d, err := scanDeceased(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deceased %d: %w", id, err)
	}
	return d, nil
}

// ListDeceased returns all death cases, newest created first.
func (s *SQLiteStore) ListDeceased(ctx context.Context) ([]models.Deceased, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deceasedColumns+` FROM deceased ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deceased: %w", err)
	}
	defer rows.Close()

	var out []models.Deceased
	for rows.Next() {
		d, err := scanDeceased(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deceased: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deceased: %w", err)
	}
	return out, nil
}

// DeleteDeceased removes a death case. Absent IDs return ErrNotFound.
func (s *SQLiteStore) DeleteDeceased(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deceased WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deceased %d: %w", id, err)
	}
	return requireRow(res, id)
}

// scanner abstracts over *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDeceased(sc scanner) (*models.Deceased, error) {
	var (
		d                  models.Deceased
		createdAt, updated string
	)
	if err := sc.Scan(&d.ID, &d.Name, &d.Age, &d.Gender, &d.DeathDate, &d.BurialDate,
		&d.Photo, &d.RepresentativeName, &d.RepresentativePhone, &d.Status,
		&d.IsSynced, &createdAt, &updated); err != nil {
		return nil, err
	}
	var err error
	if d.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &d, nil
}

// insertDeceasedRow writes a complete row, preserving the given ID and
// timestamps. Used by import and by the sync apply transaction.
func insertDeceasedRow(ctx context.Context, q dbtx, d *models.Deceased) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO deceased (id, name, age, gender, death_date, burial_date, photo,
			representative_name, representative_phone, status, is_synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Age, d.Gender, d.DeathDate, d.BurialDate, d.Photo,
		d.RepresentativeName, d.RepresentativePhone, d.Status, d.IsSynced,
		encodeTime(d.CreatedAt), encodeTime(d.UpdatedAt),
	)
	return err
}

// updateDeceasedRow overwrites a row with the authority's field values as-is,
// including UpdatedAt. Returns sql.ErrNoRows semantics via affected count.
func updateDeceasedRow(ctx context.Context, q dbtx, d *models.Deceased) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE deceased SET name = ?, age = ?, gender = ?, death_date = ?, burial_date = ?,
			photo = ?, representative_name = ?, representative_phone = ?, status = ?,
			is_synced = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Age, d.Gender, d.DeathDate, d.BurialDate,
		d.Photo, d.RepresentativeName, d.RepresentativePhone, d.Status,
		d.IsSynced, encodeTime(d.CreatedAt), encodeTime(d.UpdatedAt), d.ID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// requireRow converts a zero-row write into ErrNotFound.
func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, storage.ErrNotFound)
	}
	return nil
}
