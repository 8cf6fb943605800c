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

const userColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

// AddUser inserts a new account. A duplicate email (case-insensitive)
// returns ErrConflict.
func (s *SQLiteStore) AddUser(ctx context.Context, u *models.User) (int64, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive,
		encodeTime(u.CreatedAt), encodeTime(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("email %q: %w", u.Email, storage.ErrConflict)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	return id, nil
}

// UpdateUser overwrites the account's fields and refreshes UpdatedAt.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id int64, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive, encodeTime(u.UpdatedAt), id,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %q: %w", u.Email, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return requireRow(res, id)
}

// GetUser retrieves an account by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail retrieves an account by email, case-insensitively.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all accounts in insertion order.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return out, nil
}

func scanUser(sc scanner) (*models.User, error) {
	var (
		u                  models.User
		createdAt, updated string
	)
	if err := sc.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &createdAt, &updated); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

func insertUserRow(ctx context.Context, q dbtx, u *models.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive,
		encodeTime(u.CreatedAt), encodeTime(u.UpdatedAt),
	)
	return err
}
