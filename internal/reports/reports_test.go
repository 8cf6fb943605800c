package reports

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/obraledger/obraledger/internal/models"
	"github.com/obraledger/obraledger/internal/storage"
	"github.com/obraledger/obraledger/internal/storage/sqlite"
)

func newTestService(t *testing.T) (*Service, storage.Store) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "obraledger-reports-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewService(store), store
}

// seedLedger loads two cases, two members and a handful of money movements,
// including one contribution pointing at a case that does not exist.
func seedLedger(t *testing.T, store storage.Store) (case1, case2, member1, member2 int64) {
	t.Helper()
	ctx := context.Background()

	case1, err := store.AddDeceased(ctx, &models.Deceased{
		Name: "Abebe Kebede", Age: 70, Gender: models.GenderMale,
		DeathDate: "2024-05-01", Status: models.StatusPending,
	})
	if err != nil {
		t.Fatalf("AddDeceased failed: %v", err)
	}
	case2, err = store.AddDeceased(ctx, &models.Deceased{
		Name: "Almaz Tesfaye", Age: 64, Gender: models.GenderFemale,
		DeathDate: "2024-04-10", Status: models.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("AddDeceased failed: %v", err)
	}

	member1, err = store.AddContributor(ctx, &models.Contributor{
		Name: "Mulu Alem", Phone: "0911000000", Religion: models.ReligionChristian, ExpectedContribution: 200,
	})
	if err != nil {
		t.Fatalf("AddContributor failed: %v", err)
	}
	member2, err = store.AddContributor(ctx, &models.Contributor{
		Name: "Kedir Ahmed", Phone: "0911000001", Religion: models.ReligionMuslim, ExpectedContribution: 150,
	})
	if err != nil {
		t.Fatalf("AddContributor failed: %v", err)
	}

	payments := []models.Contribution{
		{DeceasedID: case1, ContributorID: member1, Amount: 100, Date: "2024-05-02"},
		{DeceasedID: case1, ContributorID: member2, Amount: 150, Date: "2024-05-03"},
		{DeceasedID: case2, ContributorID: member1, Amount: 50, Date: "2024-04-11"},
		{DeceasedID: 9999, ContributorID: 8888, Amount: 25, Date: "2024-05-04"}, // dangling
	}
	for i := range payments {
		if _, err := store.AddContribution(ctx, &payments[i]); err != nil {
			t.Fatalf("AddContribution failed: %v", err)
		}
	}

	expenses := []models.Expense{
		{DeceasedID: case1, Description: "coffin", Amount: 120, Date: "2024-05-02"},
		{DeceasedID: case2, Description: "transport", Amount: 30, Date: "2024-04-12"},
	}
	for i := range expenses {
		if _, err := store.AddExpense(ctx, &expenses[i]); err != nil {
			t.Fatalf("AddExpense failed: %v", err)
		}
	}
	return case1, case2, member1, member2
}

func TestDashboard(t *testing.T) {
	svc, store := newTestService(t)
	seedLedger(t, store)

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if stats.DeceasedTotal != 2 || stats.DeceasedPending != 1 || stats.DeceasedCompleted != 1 {
		t.Errorf("Case counts = %d/%d/%d", stats.DeceasedTotal, stats.DeceasedPending, stats.DeceasedCompleted)
	}
	if stats.ContributorCount != 2 || stats.ContributionCount != 4 || stats.ExpenseCount != 2 {
		t.Errorf("Record counts = %d/%d/%d", stats.ContributorCount, stats.ContributionCount, stats.ExpenseCount)
	}
	if stats.TotalContributions != 325 {
		t.Errorf("TotalContributions = %v, want 325", stats.TotalContributions)
	}
	if stats.TotalExpenses != 150 {
		t.Errorf("TotalExpenses = %v, want 150", stats.TotalExpenses)
	}
	if stats.Balance != 175 {
		t.Errorf("Balance = %v, want 175", stats.Balance)
	}
}

func TestDashboardEmptyStore(t *testing.T) {
	svc, _ := newTestService(t)
	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if *stats != (DashboardStats{}) {
		t.Errorf("Empty store should yield zero stats, got %+v", stats)
	}
}

func TestCaseSummaries(t *testing.T) {
	svc, store := newTestService(t)
	case1, case2, _, _ := seedLedger(t, store)

	summaries, err := svc.CaseSummaries(context.Background())
	if err != nil {
		t.Fatalf("CaseSummaries failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("Expected 2 cases plus the Unknown row, got %d", len(summaries))
	}

	byID := make(map[int64]CaseSummary)
	for _, s := range summaries[:2] {
		byID[s.DeceasedID] = s
	}
	if s := byID[case1]; s.Contributions != 250 || s.Expenses != 120 || s.Balance != 130 {
		t.Errorf("Case 1 summary = %+v", s)
	}
	if s := byID[case2]; s.Contributions != 50 || s.Expenses != 30 || s.Balance != 20 {
		t.Errorf("Case 2 summary = %+v", s)
	}

	unknown := summaries[len(summaries)-1]
	if unknown.Name != UnknownName || unknown.Contributions != 25 || unknown.Balance != 25 {
		t.Errorf("Unknown row = %+v", unknown)
	}
}

func TestCaseSummariesNoDanglingMoney(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := store.AddDeceased(ctx, &models.Deceased{
		Name: "Abebe Kebede", Age: 70, Gender: models.GenderMale,
		DeathDate: "2024-05-01", Status: models.StatusPending,
	}); err != nil {
		t.Fatalf("AddDeceased failed: %v", err)
	}

	summaries, err := svc.CaseSummaries(ctx)
	if err != nil {
		t.Fatalf("CaseSummaries failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("No dangling money means no Unknown row, got %d rows", len(summaries))
	}
}

func TestArrears(t *testing.T) {
	svc, store := newTestService(t)
	_, _, member1, member2 := seedLedger(t, store)

	arrears, err := svc.Arrears(context.Background())
	if err != nil {
		t.Fatalf("Arrears failed: %v", err)
	}
	if len(arrears) != 3 {
		t.Fatalf("Expected 2 members plus the Unknown row, got %d", len(arrears))
	}

	byID := make(map[int64]ContributorArrears)
	for _, a := range arrears[:2] {
		byID[a.ContributorID] = a
	}
	if a := byID[member1]; a.Expected != 200 || a.Contributed != 150 || a.Arrears != 50 {
		t.Errorf("Member 1 arrears = %+v", a)
	}
	if a := byID[member2]; a.Expected != 150 || a.Contributed != 150 || a.Arrears != 0 {
		t.Errorf("Member 2 arrears = %+v", a)
	}

	unknown := arrears[len(arrears)-1]
	if unknown.Name != UnknownName || unknown.Contributed != 25 || unknown.Arrears != -25 {
		t.Errorf("Unknown row = %+v", unknown)
	}
}

func TestByReligion(t *testing.T) {
	svc, store := newTestService(t)
	seedLedger(t, store)

	groups, err := svc.ByReligion(context.Background())
	if err != nil {
		t.Fatalf("ByReligion failed: %v", err)
	}
	want := []ReligionSummary{
		{Religion: models.ReligionChristian, Members: 1, Expected: 200},
		{Religion: models.ReligionMuslim, Members: 1, Expected: 150},
		{Religion: models.ReligionOther, Members: 0, Expected: 0},
	}
	if len(groups) != len(want) {
		t.Fatalf("Expected %d groups, got %d", len(want), len(groups))
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("Group %d = %+v, want %+v", i, groups[i], want[i])
		}
	}
}
