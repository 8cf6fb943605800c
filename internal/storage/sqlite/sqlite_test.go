package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/obraledger/obraledger/internal/models"
	"github.com/obraledger/obraledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "obraledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testDeceased(name string) *models.Deceased {
	return &models.Deceased{
		Name:                name,
		Age:                 70,
		Gender:              models.GenderMale,
		DeathDate:           "2026-01-10",
		BurialDate:          "2026-01-12",
		RepresentativeName:  "Rep " + name,
		RepresentativePhone: "0911000000",
		Status:              models.StatusPending,
	}
}

func TestDeceasedCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Add assigns ID, timestamps and clears IsSynced", func(t *testing.T) {
		d := testDeceased("Abebe")
		d.IsSynced = true // callers cannot pre-mark records synced

		id, err := store.AddDeceased(ctx, d)
		if err != nil {
			t.Fatalf("AddDeceased failed: %v", err)
		}
		if id == 0 {
			t.Error("Expected ID to be assigned")
		}
		if d.IsSynced {
			t.Error("Expected IsSynced to be false after Add")
		}
		if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
			t.Error("Expected timestamps to be set")
		}

		got, err := store.GetDeceased(ctx, id)
		if err != nil {
			t.Fatalf("GetDeceased failed: %v", err)
		}
		if got.Name != "Abebe" || got.Status != models.StatusPending {
			t.Errorf("Unexpected record: %+v", got)
		}
	})

	t.Run("Update overwrites fields and refreshes UpdatedAt", func(t *testing.T) {
		d := testDeceased("Kebede")
		id, err := store.AddDeceased(ctx, d)
		if err != nil {
			t.Fatalf("AddDeceased failed: %v", err)
		}
		created := d.CreatedAt

		d.Status = models.StatusCompleted
		d.Age = 71
		if err := store.UpdateDeceased(ctx, id, d); err != nil {
			t.Fatalf("UpdateDeceased failed: %v", err)
		}

		got, err := store.GetDeceased(ctx, id)
		if err != nil {
			t.Fatalf("GetDeceased failed: %v", err)
		}
		if got.Status != models.StatusCompleted || got.Age != 71 {
			t.Errorf("Update not applied: %+v", got)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt changed on update: got %v, want %v", got.CreatedAt, created)
		}
		if !got.UpdatedAt.After(created) && !got.UpdatedAt.Equal(created) {
			t.Errorf("UpdatedAt not refreshed: %v", got.UpdatedAt)
		}
	})

	t.Run("Update of missing ID returns ErrNotFound", func(t *testing.T) {
		err := store.UpdateDeceased(ctx, 9999, testDeceased("Ghost"))
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Get of missing ID returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetDeceased(ctx, 9999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete removes the record", func(t *testing.T) {
		id, err := store.AddDeceased(ctx, testDeceased("Almaz"))
		if err != nil {
			t.Fatalf("AddDeceased failed: %v", err)
		}
		if err := store.DeleteDeceased(ctx, id); err != nil {
			t.Fatalf("DeleteDeceased failed: %v", err)
		}
		if _, err := store.GetDeceased(ctx, id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteDeceased(ctx, id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
		}
	})
}

func TestDeceasedListOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	names := []string{"First", "Second", "Third"}
	for _, n := range names {
		if _, err := store.AddDeceased(ctx, testDeceased(n)); err != nil {
			t.Fatalf("AddDeceased failed: %v", err)
		}
	}

	list, err := store.ListDeceased(ctx)
	if err != nil {
		t.Fatalf("ListDeceased failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(list))
	}
	// Newest created first.
	if list[0].Name != "Third" || list[2].Name != "First" {
		t.Errorf("Wrong order: %s, %s, %s", list[0].Name, list[1].Name, list[2].Name)
	}
}

func TestContributionsAndExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deceasedID, err := store.AddDeceased(ctx, testDeceased("Case"))
	if err != nil {
		t.Fatalf("AddDeceased failed: %v", err)
	}
	contributorID, err := store.AddContributor(ctx, &models.Contributor{
		Name: "Mulu", Phone: "0912000000", Religion: models.ReligionChristian, ExpectedContribution: 500,
	})
	if err != nil {
		t.Fatalf("AddContributor failed: %v", err)
	}

	t.Run("contributions order newest date first", func(t *testing.T) {
		dates := []string{"2026-02-01", "2026-03-01", "2026-01-15"}
		for _, d := range dates {
			_, err := store.AddContribution(ctx, &models.Contribution{
				DeceasedID: deceasedID, ContributorID: contributorID, Amount: 100, Date: d,
			})
			if err != nil {
				t.Fatalf("AddContribution failed: %v", err)
			}
		}

		list, err := store.ListContributions(ctx)
		if err != nil {
			t.Fatalf("ListContributions failed: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("Expected 3 contributions, got %d", len(list))
		}
		if list[0].Date != "2026-03-01" || list[2].Date != "2026-01-15" {
			t.Errorf("Wrong order: %s, %s, %s", list[0].Date, list[1].Date, list[2].Date)
		}
	})

	t.Run("filters by deceased and contributor", func(t *testing.T) {
		byDeceased, err := store.ListContributionsByDeceased(ctx, deceasedID)
		if err != nil {
			t.Fatalf("ListContributionsByDeceased failed: %v", err)
		}
		if len(byDeceased) != 3 {
			t.Errorf("Expected 3 contributions for case, got %d", len(byDeceased))
		}
		byContributor, err := store.ListContributionsByContributor(ctx, contributorID)
		if err != nil {
			t.Fatalf("ListContributionsByContributor failed: %v", err)
		}
		if len(byContributor) != 3 {
			t.Errorf("Expected 3 contributions by member, got %d", len(byContributor))
		}
	})

	t.Run("expenses order newest date first", func(t *testing.T) {
		for _, d := range []string{"2026-02-10", "2026-02-20"} {
			_, err := store.AddExpense(ctx, &models.Expense{
				DeceasedID: deceasedID, Description: "tent", Amount: 50, Date: d,
			})
			if err != nil {
				t.Fatalf("AddExpense failed: %v", err)
			}
		}
		list, err := store.ListExpenses(ctx)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(list) != 2 || list[0].Date != "2026-02-20" {
			t.Errorf("Wrong expense order: %+v", list)
		}
	})
}

func TestUsersUniqueEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := &models.User{Name: "Admin", Email: "Admin@Example.com", PasswordHash: "x", Role: models.RoleAdmin, IsActive: true}
	if _, err := store.AddUser(ctx, u); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	t.Run("duplicate email differing only in case returns ErrConflict", func(t *testing.T) {
		dup := &models.User{Name: "Other", Email: "admin@example.com", PasswordHash: "y", Role: models.RoleViewer, IsActive: true}
		_, err := store.AddUser(ctx, dup)
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "ADMIN@EXAMPLE.COM")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != u.ID {
			t.Errorf("Expected user %d, got %d", u.ID, got.ID)
		}
	})

	t.Run("missing email returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSettingsUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetSetting(ctx, "absent")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set then update keeps a single row", func(t *testing.T) {
		if err := store.SetSetting(ctx, "theme", "light"); err != nil {
			t.Fatalf("SetSetting failed: %v", err)
		}
		if err := store.SetSetting(ctx, "theme", "dark"); err != nil {
			t.Fatalf("SetSetting failed: %v", err)
		}

		v, err := store.GetSetting(ctx, "theme")
		if err != nil {
			t.Fatalf("GetSetting failed: %v", err)
		}
		if v != "dark" {
			t.Errorf("Expected dark, got %q", v)
		}

		all, err := store.ListSettings(ctx)
		if err != nil {
			t.Fatalf("ListSettings failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("Expected 1 setting, got %d", len(all))
		}
	})

	t.Run("delete is a no-op for absent keys", func(t *testing.T) {
		if err := store.DeleteSetting(ctx, "absent"); err != nil {
			t.Errorf("DeleteSetting failed: %v", err)
		}
	})
}

func TestMarkSynced(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, n := range []string{"A", "B", "C"} {
		id, err := store.AddDeceased(ctx, testDeceased(n))
		if err != nil {
			t.Fatalf("AddDeceased failed: %v", err)
		}
		ids = append(ids, id)
	}

	if err := store.MarkSynced(ctx, storage.KindDeceased, ids[:2]); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}

	list, err := store.ListDeceased(ctx)
	if err != nil {
		t.Fatalf("ListDeceased failed: %v", err)
	}
	synced := 0
	for _, d := range list {
		if d.IsSynced {
			synced++
		}
	}
	if synced != 2 {
		t.Errorf("Expected 2 synced records, got %d", synced)
	}

	if err := store.MarkSynced(ctx, storage.KindDeceased, nil); err != nil {
		t.Errorf("MarkSynced with no IDs failed: %v", err)
	}
	if err := store.MarkSynced(ctx, storage.RecordKind("users"), ids); err == nil {
		t.Error("Expected error for non-syncable collection")
	}
}
