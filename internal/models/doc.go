// Package models defines the core domain records for Obra Ledger.
//
// # Record kinds
//
// Six collections live in the local store:
//   - Deceased: a death case managed by the association
//   - Contributor: a registered member expected to contribute
//   - Contribution: a payment by a contributor toward a case
//   - Expense: money spent on a case
//   - User: a local account that can operate the application
//   - Setting: a key/value entry (also used for sync/session bookkeeping)
//
// # Sync bookkeeping
//
// Deceased, Contributor, Contribution and Expense carry an IsSynced flag.
// It is false when a record is created locally and flips to true only after
// the record has round-tripped through the remote authority. There is no
// per-field change tracking; the flag is the sole pending-upload signal.
//
// # Design principles
//
//  1. IDs are numeric and assigned by the store (monotonic per collection).
//  2. Cross-collection references (Contribution.DeceasedID etc.) are by ID
//     only and are not enforced; dangling references resolve to an "Unknown"
//     placeholder at read time.
//  3. JSON field names match the authority's wire format so the same structs
//     serve storage export, backups and sync payloads.
package models
