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

const contributionColumns = `id, deceased_id, contributor_id, amount, date, notes, is_synced, created_at`

// AddContribution appends a payment record, assigning ID and CreatedAt.
func (s *SQLiteStore) AddContribution(ctx context.Context, c *models.Contribution) (int64, error) {
	c.IsSynced = false
	c.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contributions (deceased_id, contributor_id, amount, date, notes, is_synced, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		c.DeceasedID, c.ContributorID, c.Amount, c.Date, c.Notes, encodeTime(c.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contribution: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read contribution id: %w", err)
	}
	c.ID = id
	return id, nil
}

// GetContribution retrieves a payment record by ID.
func (s *SQLiteStore) GetContribution(ctx context.Context, id int64) (*models.Contribution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE id = ?`, id)
	c, err := scanContribution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution %d: %w", id, err)
	}
	return c, nil
}

// ListContributions returns all payments, newest date first.
func (s *SQLiteStore) ListContributions(ctx context.Context) ([]models.Contribution, error) {
	return s.queryContributions(ctx,
		`SELECT `+contributionColumns+` FROM contributions ORDER BY date DESC, id DESC`)
}

// ListContributionsByDeceased returns payments toward one death case.
func (s *SQLiteStore) ListContributionsByDeceased(ctx context.Context, deceasedID int64) ([]models.Contribution, error) {
	return s.queryContributions(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE deceased_id = ? ORDER BY date DESC, id DESC`,
		deceasedID)
}

// ListContributionsByContributor returns payments made by one member.
func (s *SQLiteStore) ListContributionsByContributor(ctx context.Context, contributorID int64) ([]models.Contribution, error) {
	return s.queryContributions(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE contributor_id = ? ORDER BY date DESC, id DESC`,
		contributorID)
}

func (s *SQLiteStore) queryContributions(ctx context.Context, query string, args ...any) ([]models.Contribution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var out []models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return out, nil
}

func scanContribution(sc scanner) (*models.Contribution, error) {
	var (
		c         models.Contribution
		createdAt string
	)
	if err := sc.Scan(&c.ID, &c.DeceasedID, &c.ContributorID, &c.Amount, &c.Date,
		&c.Notes, &c.IsSynced, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func insertContributionRow(ctx context.Context, q dbtx, c *models.Contribution) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO contributions (id, deceased_id, contributor_id, amount, date, notes, is_synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.DeceasedID, c.ContributorID, c.Amount, c.Date, c.Notes,
		c.IsSynced, encodeTime(c.CreatedAt),
	)
	return err
}

func updateContributionRow(ctx context.Context, q dbtx, c *models.Contribution) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE contributions SET deceased_id = ?, contributor_id = ?, amount = ?, date = ?,
			notes = ?, is_synced = ?, created_at = ?
		WHERE id = ?`,
		c.DeceasedID, c.ContributorID, c.Amount, c.Date,
		c.Notes, c.IsSynced, encodeTime(c.CreatedAt), c.ID,
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
