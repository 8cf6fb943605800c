package models

// ChangeSet groups records per collection for the sync wire format. The
// authority's contract carries six collections; arrears was never implemented
// client-side and settings are not pushed, so both travel as empty arrays.
type ChangeSet struct {
	Deceased      []Deceased     `json:"deceased"`
	Contributors  []Contributor  `json:"contributors"`
	Contributions []Contribution `json:"contributions"`
	Expenses      []Expense      `json:"expenses"`
	Arrears       []any          `json:"arrears"`
	Settings      []Setting      `json:"settings"`
}

// Empty reports whether the change set carries no records at all.
func (c ChangeSet) Empty() bool {
	return len(c.Deceased) == 0 &&
		len(c.Contributors) == 0 &&
		len(c.Contributions) == 0 &&
		len(c.Expenses) == 0 &&
		len(c.Arrears) == 0 &&
		len(c.Settings) == 0
}

// SyncRequest is the body of POST /api/sync/sync.
// LastSyncTimestamp is RFC3339; the epoch when the client has never synced.
type SyncRequest struct {
	ClientChanges     ChangeSet `json:"clientChanges"`
	LastSyncTimestamp string    `json:"lastSyncTimestamp"`
}

// ConflictResolution is the authority's suggested way out of a conflict.
type ConflictResolution string

const (
	ResolveClient ConflictResolution = "client"
	ResolveServer ConflictResolution = "server"
	ResolveManual ConflictResolution = "manual"
)

// Conflict describes a record the authority could not merge cleanly.
type Conflict struct {
	RecordType    string             `json:"recordType"`
	RecordID      int64              `json:"recordId"`
	ClientVersion map[string]any     `json:"clientVersion"`
	ServerVersion map[string]any     `json:"serverVersion"`
	Resolution    ConflictResolution `json:"resolution"`
}

// SyncResult is the payload inside the authority's sync response envelope.
type SyncResult struct {
	ServerChanges ChangeSet  `json:"serverChanges"`
	Conflicts     []Conflict `json:"conflicts"`
	SyncTimestamp string     `json:"syncTimestamp"`
}

// SyncResponse is the full response envelope of POST /api/sync/sync.
type SyncResponse struct {
	Data SyncResult `json:"data"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the authority's login envelope.
type LoginResponse struct {
	Success bool `json:"success"`
	Data    struct {
		User  AuthUser `json:"user"`
		Token string   `json:"token"`
	} `json:"data"`
}
