package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/obraledger/obraledger/internal/models"
	"github.com/obraledger/obraledger/internal/storage"
)

var syncTables = map[storage.RecordKind]string{
	storage.KindDeceased:     "deceased",
	storage.KindContributor:  "contributors",
	storage.KindContribution: "contributions",
	storage.KindExpense:      "expenses",
}

// MarkSynced flips is_synced on the given rows of one syncable collection.
func (s *SQLiteStore) MarkSynced(ctx context.Context, kind storage.RecordKind, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	table, ok := syncTables[kind]
	if !ok {
		return fmt.Errorf("collection %q is not syncable", kind)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf("UPDATE %s SET is_synced = 1 WHERE id IN (%s)", table, placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", kind, err)
	}
	return nil
}

// ApplyServerChanges upserts the authority's change set in one transaction.
// Records keep their server-assigned IDs and field values verbatim; applied
// rows are stored with is_synced set so they are not pushed back next cycle.
// Any failure rolls the entire change set back.
func (s *SQLiteStore) ApplyServerChanges(ctx context.Context, changes models.ChangeSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin apply transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range changes.Deceased {
		d := changes.Deceased[i]
		d.IsSynced = true
		updated, err := updateDeceasedRow(ctx, tx, &d)
		if err != nil {
			return fmt.Errorf("failed to apply deceased %d: %w", d.ID, err)
		}
		if !updated {
			if err := insertDeceasedRow(ctx, tx, &d); err != nil {
				return fmt.Errorf("failed to apply deceased %d: %w", d.ID, err)
			}
		}
	}

	for i := range changes.Contributors {
		c := changes.Contributors[i]
		c.IsSynced = true
		updated, err := updateContributorRow(ctx, tx, &c)
		if err != nil {
			return fmt.Errorf("failed to apply contributor %d: %w", c.ID, err)
		}
		if !updated {
			if err := insertContributorRow(ctx, tx, &c); err != nil {
				return fmt.Errorf("failed to apply contributor %d: %w", c.ID, err)
			}
		}
	}

	for i := range changes.Contributions {
		c := changes.Contributions[i]
		c.IsSynced = true
		updated, err := updateContributionRow(ctx, tx, &c)
		if err != nil {
			return fmt.Errorf("failed to apply contribution %d: %w", c.ID, err)
		}
		if !updated {
			if err := insertContributionRow(ctx, tx, &c); err != nil {
				return fmt.Errorf("failed to apply contribution %d: %w", c.ID, err)
			}
		}
	}

	for i := range changes.Expenses {
		e := changes.Expenses[i]
		e.IsSynced = true
		updated, err := updateExpenseRow(ctx, tx, &e)
		if err != nil {
			return fmt.Errorf("failed to apply expense %d: %w", e.ID, err)
		}
		if !updated {
			if err := insertExpenseRow(ctx, tx, &e); err != nil {
				return fmt.Errorf("failed to apply expense %d: %w", e.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit server changes: %w", err)
	}
	return nil
}
