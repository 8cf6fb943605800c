package sync

import (
	"fmt"
	"time"
)

// State is the single display state derived for the sync indicator.
type State string

const (
	// StateSyncing: an attempt is in flight right now.
	StateSyncing State = "syncing"
	// StateOffline: the device has no network connection.
	StateOffline State = "offline"
	// StateAuthorityUnavailable: online, but the authority did not answer
	// the last attempt.
	StateAuthorityUnavailable State = "authority_unavailable"
	// StateSynced: the last attempt succeeded; Age says how long ago.
	StateSynced State = "synced"
	// StateNeverSynced: no attempt has ever succeeded.
	StateNeverSynced State = "never_synced"
)

// Report is one point-in-time derivation of the sync indicator.
type Report struct {
	State    State
	LastSync time.Time     // zero when never synced
	Age      time.Duration // time since LastSync; zero when never synced
}

// String renders the report for logs and simple UIs.
func (r Report) String() string {
	switch r.State {
	case StateSynced:
		return fmt.Sprintf("synced %s ago", r.Age.Round(time.Second))
	default:
		return string(r.State)
	}
}

// Reporter derives display state from the engine. It holds no state of its
// own; callers poll Report on their own interval.
type Reporter struct {
	engine *Engine
	now    func() time.Time
}

// NewReporter creates a status reporter over the engine.
func NewReporter(engine *Engine) *Reporter {
	return &Reporter{engine: engine, now: time.Now}
}

// Report computes the current display state. The five states are mutually
// exclusive, checked in precedence order.
func (r *Reporter) Report() Report {
	last := r.engine.LastSuccess()
	report := Report{LastSync: last}
	if !last.IsZero() {
		report.Age = r.now().Sub(last)
	}

	switch {
	case r.engine.InProgress():
		report.State = StateSyncing
	case !r.engine.Online():
		report.State = StateOffline
	case !r.engine.AuthorityAvailable():
		report.State = StateAuthorityUnavailable
	case last.IsZero():
		report.State = StateNeverSynced
	default:
		report.State = StateSynced
	}
	return report
}
