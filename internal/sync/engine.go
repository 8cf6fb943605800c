package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/obraledger/obraledger/internal/auth"
	"github.com/obraledger/obraledger/internal/models"
	"github.com/obraledger/obraledger/internal/remote"
	"github.com/obraledger/obraledger/internal/storage"
)

// checkpointKey is the settings entry holding the last successful sync
// timestamp, as returned by the authority.
const checkpointKey = "sync.lastTimestamp"

// Authority is the transport boundary the engine pushes through.
// *remote.Client satisfies it.
type Authority interface {
	Sync(ctx context.Context, token string, request models.SyncRequest) (*models.SyncResult, error)
}

// TokenSource supplies the bearer credential for authority calls.
// *auth.Service satisfies it.
type TokenSource interface {
	Token() (string, error)
}

// ConnectivityFunc reports whether the device currently has a network
// connection. It is consulted before any authority traffic.
type ConnectivityFunc func() bool

// Engine reconciles unsynced local records with the remote authority.
// Construct with NewEngine; a single Engine serializes its own attempts.
type Engine struct {
	store     storage.Store
	authority Authority
	tokens    TokenSource
	online    ConnectivityFunc
	policy    ConflictPolicy
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time

	syncing     atomic.Bool
	available   atomic.Bool // authority reachability as of the last attempt
	lastSuccess atomic.Int64 // unix nanos of the last successful attempt; 0 = never
}

// NewEngine wires a sync engine. policy may be nil (server wins), metrics
// may be nil (no instrumentation), logger may be nil (slog default).
func NewEngine(store storage.Store, authority Authority, tokens TokenSource, online ConnectivityFunc, policy ConflictPolicy, metrics *Metrics, logger *slog.Logger) *Engine {
	if policy == nil {
		policy = ServerWinsPolicy{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:     store,
		authority: authority,
		tokens:    tokens,
		online:    online,
		policy:    policy,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
	e.available.Store(true)
	return e
}

// Sync runs one reconciliation attempt and reports whether it succeeded.
// A concurrent attempt, an offline device, or any error yields false; sync
// failures are never fatal and are retried on the next scheduler tick.
func (e *Engine) Sync(ctx context.Context) bool {
	if !e.syncing.CompareAndSwap(false, true) {
		e.logger.Debug("sync already in progress, skipping")
		return false
	}
	defer e.syncing.Store(false)

	if e.online != nil && !e.online() {
		e.logger.Debug("device offline, skipping sync")
		e.countFailure("offline")
		return false
	}

	start := e.now()
	ok := e.attempt(ctx)
	if e.metrics != nil {
		e.metrics.Attempts.Inc()
		e.metrics.Duration.Observe(e.now().Sub(start).Seconds())
	}
	if ok {
		e.lastSuccess.Store(e.now().UnixNano())
	}
	return ok
}

func (e *Engine) attempt(ctx context.Context) bool {
	changes, ids, err := e.collect(ctx)
	if err != nil {
		e.logger.Error("failed to collect unsynced records", "error", err)
		e.countFailure("collect")
		return false
	}
	if changes.Empty() {
		e.logger.Debug("nothing to sync")
		return true
	}

	token, err := e.tokens.Token()
	if err != nil {
		e.logger.Warn("cannot sync without an authority token", "error", err)
		e.countFailure("auth")
		return false
	}

	request := models.SyncRequest{
		ClientChanges:     changes,
		LastSyncTimestamp: e.checkpoint(ctx),
	}

	result, err := e.authority.Sync(ctx, token, request)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		// Reachable but the credential is invalid; a re-login fixes it.
		e.available.Store(true)
		e.logger.Warn("authority rejected sync credential")
		e.countFailure("auth")
		return false
	case errors.Is(err, remote.ErrUnavailable):
		e.available.Store(false)
		e.logger.Info("authority unavailable, will retry on next tick", "error", err)
		e.countFailure("unavailable")
		return false
	case err != nil:
		e.logger.Error("sync request failed", "error", err)
		e.countFailure("error")
		return false
	}
	e.available.Store(true)

	if err := e.store.ApplyServerChanges(ctx, result.ServerChanges); err != nil {
		e.logger.Error("failed to apply server changes", "error", err)
		e.countFailure("apply")
		return false
	}
	if e.metrics != nil {
		e.metrics.RecordsApplied.Add(float64(changeSetSize(result.ServerChanges)))
	}

	if err := e.markPushed(ctx, ids); err != nil {
		e.logger.Error("failed to mark pushed records synced", "error", err)
		e.countFailure("apply")
		return false
	}
	if e.metrics != nil {
		e.metrics.RecordsPushed.Add(float64(changeSetSize(changes)))
	}

	if len(result.Conflicts) > 0 {
		e.policy.Resolve(ctx, result.Conflicts)
	}

	// The checkpoint only moves once everything above succeeded.
	if err := e.store.SetSetting(ctx, checkpointKey, result.SyncTimestamp); err != nil {
		e.logger.Error("failed to persist sync checkpoint", "error", err)
		e.countFailure("checkpoint")
		return false
	}

	e.logger.Info("sync completed",
		"pushed", changeSetSize(changes),
		"applied", changeSetSize(result.ServerChanges),
		"conflicts", len(result.Conflicts),
		"checkpoint", result.SyncTimestamp,
	)
	return true
}

// pushedIDs remembers which local rows went into the request, per collection,
// so they can be flagged synced once the authority acknowledges them.
type pushedIDs map[storage.RecordKind][]int64

// collect reads the four syncable collections and filters to records whose
// IsSynced flag is false, regardless of insertion order.
func (e *Engine) collect(ctx context.Context) (models.ChangeSet, pushedIDs, error) {
	var (
		changes models.ChangeSet
		ids     = make(pushedIDs)
	)

	deceased, err := e.store.ListDeceased(ctx)
	if err != nil {
		return changes, nil, err
	}
	for _, d := range deceased {
		if !d.IsSynced {
			changes.Deceased = append(changes.Deceased, d)
			ids[storage.KindDeceased] = append(ids[storage.KindDeceased], d.ID)
		}
	}

	contributors, err := e.store.ListContributors(ctx)
	if err != nil {
		return changes, nil, err
	}
	for _, c := range contributors {
		if !c.IsSynced {
			changes.Contributors = append(changes.Contributors, c)
			ids[storage.KindContributor] = append(ids[storage.KindContributor], c.ID)
		}
	}

	contributions, err := e.store.ListContributions(ctx)
	if err != nil {
		return changes, nil, err
	}
	for _, c := range contributions {
		if !c.IsSynced {
			changes.Contributions = append(changes.Contributions, c)
			ids[storage.KindContribution] = append(ids[storage.KindContribution], c.ID)
		}
	}

	expenses, err := e.store.ListExpenses(ctx)
	if err != nil {
		return changes, nil, err
	}
	for _, x := range expenses {
		if !x.IsSynced {
			changes.Expenses = append(changes.Expenses, x)
			ids[storage.KindExpense] = append(ids[storage.KindExpense], x.ID)
		}
	}

	// Arrears and settings travel empty: arrears was never implemented
	// client-side and settings hold local bookkeeping only.
	changes.Arrears = []any{}
	changes.Settings = []models.Setting{}

	return changes, ids, nil
}

func (e *Engine) markPushed(ctx context.Context, ids pushedIDs) error {
	for kind, list := range ids {
		if err := e.store.MarkSynced(ctx, kind, list); err != nil {
			return err
		}
	}
	return nil
}

// checkpoint returns the persisted last-sync timestamp, or the epoch when
// the client has never synced.
func (e *Engine) checkpoint(ctx context.Context) string {
	v, err := e.store.GetSetting(ctx, checkpointKey)
	if err != nil || v == "" {
		return time.Unix(0, 0).UTC().Format(time.RFC3339)
	}
	return v
}

func (e *Engine) countFailure(reason string) {
	if e.metrics != nil {
		e.metrics.Failures.WithLabelValues(reason).Inc()
	}
}

// InProgress reports whether an attempt is currently running.
func (e *Engine) InProgress() bool {
	return e.syncing.Load()
}

// AuthorityAvailable reports whether the authority answered the last attempt
// that reached the network. True before any attempt has been made.
func (e *Engine) AuthorityAvailable() bool {
	return e.available.Load()
}

// LastSuccess returns the time of the last successful attempt, zero if none.
func (e *Engine) LastSuccess() time.Time {
	n := e.lastSuccess.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Online reports device connectivity as seen by the engine.
func (e *Engine) Online() bool {
	return e.online == nil || e.online()
}

func changeSetSize(c models.ChangeSet) int {
	return len(c.Deceased) + len(c.Contributors) + len(c.Contributions) + len(c.Expenses)
}

// Ensure the session holder satisfies TokenSource.
var _ TokenSource = (*auth.Service)(nil)
