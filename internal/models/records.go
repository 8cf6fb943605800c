package models

import "time"

// Gender of a deceased person.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Religion of a contributor.
type Religion string

const (
	ReligionChristian Religion = "christian"
	ReligionMuslim    Religion = "muslim"
	ReligionOther     Religion = "other"
)

// CaseStatus tracks a death case through its lifecycle.
// Transitions go pending -> completed only; the reverse is never written.
type CaseStatus string

const (
	StatusPending   CaseStatus = "pending"
	StatusCompleted CaseStatus = "completed"
)

// Deceased is a death case managed by the association.
type Deceased struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Age                 int        `json:"age"`
	Gender              Gender     `json:"gender"`
	DeathDate           string     `json:"deathDate"`
	BurialDate          string     `json:"burialDate"`
	Photo               string     `json:"photo,omitempty"` // base64-encoded image, optional
	RepresentativeName  string     `json:"representativeName"`
	RepresentativePhone string     `json:"representativePhone"`
	Status              CaseStatus `json:"status"`
	IsSynced            bool       `json:"isSynced"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Contributor is a registered member of the association.
type Contributor struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Phone                string    `json:"phone"`
	Religion             Religion  `json:"religion"`
	ExpectedContribution float64   `json:"expectedContribution"`
	IsSynced             bool      `json:"isSynced"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Contribution is a payment by a contributor toward a death case.
// Contributions are append-only: they carry no UpdatedAt.
type Contribution struct {
	ID            int64     `json:"id"`
	DeceasedID    int64     `json:"deceasedId"`
	ContributorID int64     `json:"contributorId"`
	Amount        float64   `json:"amount"`
	Date          string    `json:"date"`
	Notes         string    `json:"notes,omitempty"`
	IsSynced      bool      `json:"isSynced"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Expense is money spent on a death case. Append-only, like Contribution.
type Expense struct {
	ID          int64     `json:"id"`
	DeceasedID  int64     `json:"deceasedId"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        string    `json:"date"`
	IsSynced    bool      `json:"isSynced"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Setting is a key/value entry with upsert semantics on key.
type Setting struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is the export/import file format: every collection in full,
// including IDs and timestamps, so a restore reproduces the store exactly.
type Snapshot struct {
	Deceased      []Deceased     `json:"deceased"`
	Contributors  []Contributor  `json:"contributors"`
	Contributions []Contribution `json:"contributions"`
	Expenses      []Expense      `json:"expenses"`
	Users         []User         `json:"users"`
	Settings      []Setting      `json:"settings"`
}
