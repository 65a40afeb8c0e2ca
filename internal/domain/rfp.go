package domain

import "time"

// Candidate is the raw record a collector extracts from a procurement site
// before any classification or identity resolution happens.
type Candidate struct {
	Title           string
	Description     string
	Agency          string
	State           string // two-letter code, or "US" for federal sources
	PublicationDate *time.Time
	DueDate         *time.Time
	URL             string
	NativeID        string // source-native solicitation/notice id, if recoverable
}

// Classification captures the rule-based scoring outcome for one candidate.
type Classification struct {
	RelevanceScore    int // 0-100
	IsWaterWastewater bool
	IsMining          bool
	IsOilGas          bool
	IsHVAC            bool
	IsRelevant        bool
}

// Notice is the durable, deduplicated RFP row. ID is immutable once assigned;
// Notified only ever transitions false to true; CreatedAt is set on first insert.
type Notice struct {
	ID string
	Candidate
	Classification
	Processed bool
	Notified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertOutcome reports what the store did with a notice.
type UpsertOutcome string

const (
	OutcomeInserted UpsertOutcome = "inserted"
	OutcomeUpdated  UpsertOutcome = "updated"
)

// RunStatus enumerates scrape-run lifecycle states.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one scrape-run provenance entry, persisted for observability.
type Run struct {
	ID           string
	SourceLabel  string
	Status       RunStatus
	StartTime    time.Time
	EndTime      time.Time
	DurationSecs float64
	Success      bool
	RFPsFound    int
	ErrorMessage string
}
