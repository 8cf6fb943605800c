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

const expenseColumns = `id, deceased_id, description, amount, date, is_synced, created_at`

// AddExpense appends a spending record, assigning ID and CreatedAt.
func (s *SQLiteStore) AddExpense(ctx context.Context, e *models.Expense) (int64, error) {
	e.IsSynced = false
	e.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (deceased_id, description, amount, date, is_synced, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		e.DeceasedID, e.Description, e.Amount, e.Date, encodeTime(e.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read expense id: %w", err)
	}
	e.ID = id
	return id, nil
}

// GetExpense retrieves a spending record by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense %d: %w", id, err)
	}
	return e, nil
}

// ListExpenses returns all spending records, newest date first.
func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	return s.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC`)
}

// ListExpensesByDeceased returns spending on one death case.
func (s *SQLiteStore) ListExpensesByDeceased(ctx context.Context, deceasedID int64) ([]models.Expense, error) {
	return s.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE deceased_id = ? ORDER BY date DESC, id DESC`,
		deceasedID)
}

func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var out []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return out, nil
}

func scanExpense(sc scanner) (*models.Expense, error) {
	var (
		e         models.Expense
		createdAt string
	)
	if err := sc.Scan(&e.ID, &e.DeceasedID, &e.Description, &e.Amount, &e.Date,
		&e.IsSynced, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if e.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func insertExpenseRow(ctx context.Context, q dbtx, e *models.Expense) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO expenses (id, deceased_id, description, amount, date, is_synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.DeceasedID, e.Description, e.Amount, e.Date,
		e.IsSynced, encodeTime(e.CreatedAt),
	)
	return err
}

func updateExpenseRow(ctx context.Context, q dbtx, e *models.Expense) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE expenses SET deceased_id = ?, description = ?, amount = ?, date = ?,
			is_synced = ?, created_at = ?
		WHERE id = ?`,
		e.DeceasedID, e.Description, e.Amount, e.Date,
		e.IsSynced, encodeTime(e.CreatedAt), e.ID,
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
