package sync

import (
	"context"
	"log/slog"

	"github.com/obraledger/obraledger/internal/models"
)

// ConflictPolicy decides what happens to conflicts the authority reports.
// The engine never resolves conflicts itself; callers supply the policy.
type ConflictPolicy interface {
	Resolve(ctx context.Context, conflicts []models.Conflict)
}

// ServerWinsPolicy accepts the authority's version: the conflicting server
// records arrive in the same response's change set and are applied as-is,
// so resolution amounts to recording that it happened.
type ServerWinsPolicy struct {
	Logger *slog.Logger
}

func (p ServerWinsPolicy) Resolve(ctx context.Context, conflicts []models.Conflict) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, c := range conflicts {
		logger.Warn("sync conflict, keeping server version",
			"record_type", c.RecordType,
			"record_id", c.RecordID,
			"suggested_resolution", c.Resolution,
		)
	}
}
