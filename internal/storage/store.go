// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/obraledger/obraledger/internal/models"
)

var (
	// ErrNotFound is returned when a record with the given ID does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a uniqueness constraint,
	// e.g. a duplicate user email.
	ErrConflict = errors.New("conflicting record exists")
)

// RecordKind names one of the four syncable collections.
type RecordKind string

const (
	KindDeceased     RecordKind = "deceased"
	KindContributor  RecordKind = "contributors"
	KindContribution RecordKind = "contributions"
	KindExpense      RecordKind = "expenses"
)

// Store defines the interface for the local record store.
// This abstraction allows swapping storage backends without changing the
// auth, sync or reports layers. Implementations must be safe for concurrent
// use by the app and the sync engine.
type Store interface {
	// Deceased. Add assigns the ID, stamps CreatedAt/UpdatedAt and clears
	// IsSynced; Update overwrites fields and refreshes UpdatedAt, returning
	// ErrNotFound when the ID is absent. ListDeceased returns newest-first
	// by creation time.
	AddDeceased(ctx context.Context, d *models.Deceased) (int64, error)
	UpdateDeceased(ctx context.Context, id int64, d *models.Deceased) error
	GetDeceased(ctx context.Context, id int64) (*models.Deceased, error)
	ListDeceased(ctx context.Context) ([]models.Deceased, error)
	DeleteDeceased(ctx context.Context, id int64) error

	// Contributors.
	AddContributor(ctx context.Context, c *models.Contributor) (int64, error)
	UpdateContributor(ctx context.Context, id int64, c *models.Contributor) error
	GetContributor(ctx context.Context, id int64) (*models.Contributor, error)
	ListContributors(ctx context.Context) ([]models.Contributor, error)
	ListContributorsByReligion(ctx context.Context, r models.Religion) ([]models.Contributor, error)
	DeleteContributor(ctx context.Context, id int64) error

	// Contributions are append-only; ListContributions returns newest-first
	// by contribution date.
	AddContribution(ctx context.Context, c *models.Contribution) (int64, error)
	GetContribution(ctx context.Context, id int64) (*models.Contribution, error)
	ListContributions(ctx context.Context) ([]models.Contribution, error)
	ListContributionsByDeceased(ctx context.Context, deceasedID int64) ([]models.Contribution, error)
	ListContributionsByContributor(ctx context.Context, contributorID int64) ([]models.Contribution, error)

	// Expenses are append-only; ListExpenses returns newest-first by date.
	AddExpense(ctx context.Context, e *models.Expense) (int64, error)
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	ListExpenses(ctx context.Context) ([]models.Expense, error)
	ListExpensesByDeceased(ctx context.Context, deceasedID int64) ([]models.Expense, error)

	// Users. Email is unique case-insensitively; violating that returns
	// ErrConflict.
	AddUser(ctx context.Context, u *models.User) (int64, error)
	UpdateUser(ctx context.Context, id int64, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	// Settings have upsert semantics on key. GetSetting returns ErrNotFound
	// for an absent key. DeleteSetting of an absent key is a no-op.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
	ListSettings(ctx context.Context) ([]models.Setting, error)

	// MarkSynced flips IsSynced on the given records of one collection.
	// Used by the sync engine after the authority acknowledges a push.
	MarkSynced(ctx context.Context, kind RecordKind, ids []int64) error

	// ApplyServerChanges upserts every record of the authority's change set
	// inside one transaction: existing IDs are overwritten in place, unknown
	// IDs are inserted with their ID preserved, and applied rows are marked
	// synced. A failure rolls the whole change set back.
	ApplyServerChanges(ctx context.Context, changes models.ChangeSet) error

	// ExportAll snapshots every collection. ImportAll atomically replaces
	// the store's entire contents with the snapshot (clear then bulk insert
	// in one transaction; a failure leaves the prior state intact).
	// ClearAll empties every collection atomically.
	ExportAll(ctx context.Context) (*models.Snapshot, error)
	ImportAll(ctx context.Context, snap *models.Snapshot) error
	ClearAll(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
