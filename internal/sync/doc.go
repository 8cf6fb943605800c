// Package sync reconciles the local store with the remote authority.
//
// The engine's cycle is: guard (no concurrent attempt, device online),
// collect local records whose IsSynced flag is false, transmit them with the
// last checkpoint timestamp, apply the authority's returned change set as a
// single-transaction upsert, hand conflicts to the configured policy, and
// only then advance the checkpoint. Every failure is recoverable: the engine
// logs it, returns false and waits for the next attempt.
//
// A Scheduler drives the engine on a fixed interval, pausing while no user
// is signed in. A Reporter derives the display state (syncing, offline,
// authority unavailable, synced, never synced) without holding state of its
// own.
package sync
