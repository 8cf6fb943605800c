// Package reports computes read-only derived statistics from the local
// store: dashboard totals, per-case balances, arrears and religion
// groupings. Nothing here writes; everything is recomputed on demand.
package reports

import (
	"context"
	"fmt"

	"github.com/obraledger/obraledger/internal/models"
	"github.com/obraledger/obraledger/internal/storage"
)

// UnknownName labels rows whose cross-collection reference dangles. The
// store does not enforce referential integrity, so reads resolve missing
// targets to this placeholder instead of failing.
const UnknownName = "Unknown"

// Service derives statistics from the store.
type Service struct {
	store storage.Store
}

// NewService creates a reports service over the store.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// DashboardStats are the headline figures for the home screen.
type DashboardStats struct {
	DeceasedTotal      int     `json:"deceasedTotal"`
	DeceasedPending    int     `json:"deceasedPending"`
	DeceasedCompleted  int     `json:"deceasedCompleted"`
	ContributorCount   int     `json:"contributorCount"`
	ContributionCount  int     `json:"contributionCount"`
	ExpenseCount       int     `json:"expenseCount"`
	TotalContributions float64 `json:"totalContributions"`
	TotalExpenses      float64 `json:"totalExpenses"`
	Balance            float64 `json:"balance"`
}

// Dashboard computes the headline figures.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	deceased, err := s.store.ListDeceased(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load deceased: %w", err)
	}
	stats.DeceasedTotal = len(deceased)
	for _, d := range deceased {
		switch d.Status {
		case models.StatusPending:
			stats.DeceasedPending++
		case models.StatusCompleted:
			stats.DeceasedCompleted++
		}
	}

	contributors, err := s.store.ListContributors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributors: %w", err)
	}
	stats.ContributorCount = len(contributors)

	contributions, err := s.store.ListContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}
	stats.ContributionCount = len(contributions)
	for _, c := range contributions {
		stats.TotalContributions += c.Amount
	}

	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	stats.ExpenseCount = len(expenses)
	for _, e := range expenses {
		stats.TotalExpenses += e.Amount
	}

	stats.Balance = stats.TotalContributions - stats.TotalExpenses
	return stats, nil
}

// CaseSummary is the financial picture of one death case.
type CaseSummary struct {
	DeceasedID    int64             `json:"deceasedId"`
	Name          string            `json:"name"`
	Status        models.CaseStatus `json:"status"`
	Contributions float64           `json:"contributions"`
	Expenses      float64           `json:"expenses"`
	Balance       float64           `json:"balance"`
}

// CaseSummaries computes per-case totals, newest case first. Contributions
// and expenses whose deceasedId matches no case are grouped under a trailing
// Unknown row so money never silently disappears from the report.
func (s *Service) CaseSummaries(ctx context.Context) ([]CaseSummary, error) {
	deceased, err := s.store.ListDeceased(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load deceased: %w", err)
	}
	contributions, err := s.store.ListContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	index := make(map[int64]int, len(deceased))
	out := make([]CaseSummary, 0, len(deceased))
	for _, d := range deceased {
		index[d.ID] = len(out)
		out = append(out, CaseSummary{DeceasedID: d.ID, Name: d.Name, Status: d.Status})
	}

	var unknown CaseSummary
	unknown.Name = UnknownName

	for _, c := range contributions {
		if i, ok := index[c.DeceasedID]; ok {
			out[i].Contributions += c.Amount
		} else {
			unknown.Contributions += c.Amount
		}
	}
	for _, e := range expenses {
		if i, ok := index[e.DeceasedID]; ok {
			out[i].Expenses += e.Amount
		} else {
			unknown.Expenses += e.Amount
		}
	}

	for i := range out {
		out[i].Balance = out[i].Contributions - out[i].Expenses
	}
	if unknown.Contributions != 0 || unknown.Expenses != 0 {
		unknown.Balance = unknown.Contributions - unknown.Expenses
		out = append(out, unknown)
	}
	return out, nil
}

// ContributorArrears compares what a member was expected to give with what
// they actually gave.
type ContributorArrears struct {
	ContributorID int64           `json:"contributorId"`
	Name          string          `json:"name"`
	Religion      models.Religion `json:"religion"`
	Expected      float64         `json:"expected"`
	Contributed   float64         `json:"contributed"`
	Arrears       float64         `json:"arrears"`
}

// Arrears computes per-member arrears. Contributions whose contributorId
// matches no member appear under an Unknown row with zero expectation.
func (s *Service) Arrears(ctx context.Context) ([]ContributorArrears, error) {
	contributors, err := s.store.ListContributors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributors: %w", err)
	}
	contributions, err := s.store.ListContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}

	index := make(map[int64]int, len(contributors))
	out := make([]ContributorArrears, 0, len(contributors))
	for _, c := range contributors {
		index[c.ID] = len(out)
		out = append(out, ContributorArrears{
			ContributorID: c.ID,
			Name:          c.Name,
			Religion:      c.Religion,
			Expected:      c.ExpectedContribution,
		})
	}

	var unknown ContributorArrears
	unknown.Name = UnknownName
	unknown.Religion = models.ReligionOther

	for _, c := range contributions {
		if i, ok := index[c.ContributorID]; ok {
			out[i].Contributed += c.Amount
		} else {
			unknown.Contributed += c.Amount
		}
	}

	for i := range out {
		out[i].Arrears = out[i].Expected - out[i].Contributed
	}
	if unknown.Contributed != 0 {
		unknown.Arrears = -unknown.Contributed
		out = append(out, unknown)
	}
	return out, nil
}

// ReligionSummary groups membership and expectations by religion.
type ReligionSummary struct {
	Religion models.Religion `json:"religion"`
	Members  int             `json:"members"`
	Expected float64         `json:"expected"`
}

// ByReligion groups contributors by religion in a stable order.
func (s *Service) ByReligion(ctx context.Context) ([]ReligionSummary, error) {
	contributors, err := s.store.ListContributors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributors: %w", err)
	}

	order := []models.Religion{models.ReligionChristian, models.ReligionMuslim, models.ReligionOther}
	byRel := make(map[models.Religion]*ReligionSummary, len(order))
	for _, r := range order {
		byRel[r] = &ReligionSummary{Religion: r}
	}
	for _, c := range contributors {
		sum, ok := byRel[c.Religion]
		if !ok {
			sum = byRel[models.ReligionOther]
		}
		sum.Members++
		sum.Expected += c.ExpectedContribution
	}

	out := make([]ReligionSummary, 0, len(order))
	for _, r := range order {
		out = append(out, *byRel[r])
	}
	return out, nil
}
