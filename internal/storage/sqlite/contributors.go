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

const contributorColumns = `id, name, phone, religion, expected_contribution,
	is_synced, created_at, updated_at`

// AddContributor inserts a new member, assigning ID and timestamps.
func (s *SQLiteStore) AddContributor(ctx context.Context, c *models.Contributor) (int64, error) {
	now := time.Now().UTC()
	c.IsSynced = false
	c.CreatedAt = now
	c.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contributors (name, phone, religion, expected_contribution, is_synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		c.Name, c.Phone, c.Religion, c.ExpectedContribution,
		encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contributor: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read contributor id: %w", err)
	}
	c.ID = id
	return id, nil
}

// UpdateContributor overwrites the record's fields and refreshes UpdatedAt.
func (s *SQLiteStore) UpdateContributor(ctx context.Context, id int64, c *models.Contributor) error {
	c.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE contributors SET name = ?, phone = ?, religion = ?, expected_contribution = ?,
			is_synced = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Phone, c.Religion, c.ExpectedContribution,
		c.IsSynced, encodeTime(c.UpdatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update contributor %d: %w", id, err)
	}
	return requireRow(res, id)
}

// GetContributor retrieves a member by ID.
func (s *SQLiteStore) GetContributor(ctx context.Context, id int64) (*models.Contributor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contributorColumns+` FROM contributors WHERE id = ?`, id)
	c, err := scanContributor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contributor %d: %w", id, err)
	}
	return c, nil
}

// ListContributors returns all members in insertion order.
func (s *SQLiteStore) ListContributors(ctx context.Context) ([]models.Contributor, error) {
	return s.queryContributors(ctx,
		`SELECT `+contributorColumns+` FROM contributors ORDER BY id`)
}

// ListContributorsByReligion returns members of one religion.
func (s *SQLiteStore) ListContributorsByReligion(ctx context.Context, r models.Religion) ([]models.Contributor, error) {
	return s.queryContributors(ctx,
		`SELECT `+contributorColumns+` FROM contributors WHERE religion = ? ORDER BY id`, r)
}

// DeleteContributor removes a member. Absent IDs return ErrNotFound.
func (s *SQLiteStore) DeleteContributor(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contributors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contributor %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (s *SQLiteStore) queryContributors(ctx context.Context, query string, args ...any) ([]models.Contributor, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors: %w", err)
	}
	defer rows.Close()

	var out []models.Contributor
	for rows.Next() {
		c, err := scanContributor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributors: %w", err)
	}
	return out, nil
}

func scanContributor(sc scanner) (*models.Contributor, error) {
	var (
		c                  models.Contributor
		createdAt, updated string
	)
	if err := sc.Scan(&c.ID, &c.Name, &c.Phone, &c.Religion, &c.ExpectedContribution,
		&c.IsSynced, &createdAt, &updated); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func insertContributorRow(ctx context.Context, q dbtx, c *models.Contributor) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO contributors (id, name, phone, religion, expected_contribution, is_synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Phone, c.Religion, c.ExpectedContribution,
		c.IsSynced, encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt),
	)
	return err
}

func updateContributorRow(ctx context.Context, q dbtx, c *models.Contributor) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE contributors SET name = ?, phone = ?, religion = ?, expected_contribution = ?,
			is_synced = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Phone, c.Religion, c.ExpectedContribution,
		c.IsSynced, encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt), c.ID,
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
