package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/obraledger/obraledger/internal/models"
)

// tables lists every collection, in clear/import order.
var tables = []string{"deceased", "contributors", "contributions", "expenses", "users", "settings"}

// ExportAll snapshots every collection in ID order.
func (s *SQLiteStore) ExportAll(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	var err error

	rows, err := s.db.QueryContext(ctx, `SELECT `+deceasedColumns+` FROM deceased ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to export deceased: %w", err)
	}
	for rows.Next() {
		d, err := scanDeceased(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to export deceased: %w", err)
		}
		snap.Deceased = append(snap.Deceased, *d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to export deceased: %w", err)
	}

	if snap.Contributors, err = s.queryContributors(ctx,
		`SELECT `+contributorColumns+` FROM contributors ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to export contributors: %w", err)
	}
	if snap.Contributions, err = s.queryContributions(ctx,
		`SELECT `+contributionColumns+` FROM contributions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to export contributions: %w", err)
	}
	if snap.Expenses, err = s.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to export expenses: %w", err)
	}
	if snap.Users, err = s.ListUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if snap.Settings, err = s.ListSettings(ctx); err != nil {
		return nil, fmt.Errorf("failed to export settings: %w", err)
	}
	return snap, nil
}

// ImportAll atomically replaces the store's entire contents with the
// snapshot. Every collection is cleared, then bulk-inserted with IDs and
// timestamps preserved; any failure rolls back to the prior state.
func (s *SQLiteStore) ImportAll(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return fmt.Errorf("failed to clear store for import: %w", err)
	}

	for i := range snap.Deceased {
		if err := insertDeceasedRow(ctx, tx, &snap.Deceased[i]); err != nil {
			return fmt.Errorf("failed to import deceased %d: %w", snap.Deceased[i].ID, err)
		}
	}
	for i := range snap.Contributors {
		if err := insertContributorRow(ctx, tx, &snap.Contributors[i]); err != nil {
			return fmt.Errorf("failed to import contributor %d: %w", snap.Contributors[i].ID, err)
		}
	}
	for i := range snap.Contributions {
		if err := insertContributionRow(ctx, tx, &snap.Contributions[i]); err != nil {
			return fmt.Errorf("failed to import contribution %d: %w", snap.Contributions[i].ID, err)
		}
	}
	for i := range snap.Expenses {
		if err := insertExpenseRow(ctx, tx, &snap.Expenses[i]); err != nil {
			return fmt.Errorf("failed to import expense %d: %w", snap.Expenses[i].ID, err)
		}
	}
	for i := range snap.Users {
		if err := insertUserRow(ctx, tx, &snap.Users[i]); err != nil {
			return fmt.Errorf("failed to import user %d: %w", snap.Users[i].ID, err)
		}
	}
	for i := range snap.Settings {
		if err := insertSettingRow(ctx, tx, &snap.Settings[i]); err != nil {
			return fmt.Errorf("failed to import setting %q: %w", snap.Settings[i].Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// ClearAll empties every collection atomically.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin clear transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

func clearTables(ctx context.Context, tx dbtx) error {
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	// Reset ID counters so a restored snapshot's sequences pick up from its
	// own max IDs rather than the pre-import ones. sqlite_sequence only
	// exists once an AUTOINCREMENT insert has happened.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence`); err != nil &&
		!strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("failed to reset id sequences: %w", err)
	}
	return nil
}
