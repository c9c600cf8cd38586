package pipeline

import (
	"time"

	"catalogd/internal/catalog"
	"catalogd/internal/fuse"
	"catalogd/internal/match"
)

// HistoryEntry is one immutable step in a run's audit trail. Entries are
// appended per transition and never edited.
type HistoryEntry struct {
	Stage     Stage     `json:"stage"`
	Note      string    `json:"note,omitempty"`
	Err       string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunState tracks a single submission through the pipeline. Stage outputs
// are optional pointers populated as the run advances; Version increments on
// every mutation so observers can detect staleness.
type RunState struct {
	ID      string    `json:"id"`
	Status  RunStatus `json:"status"`
	Stage   Stage     `json:"stage"`
	Version int       `json:"version"`

	RawText      string          `json:"raw_text"`
	ProductType  string          `json:"product_type,omitempty"`
	Extracted    *catalog.Fields `json:"extracted,omitempty"`
	Validated    *catalog.Fields `json:"validated,omitempty"`
	ReviewReason string          `json:"review_reason,omitempty"`
	Match        *match.Outcome  `json:"match,omitempty"`
	Fusion       *fuse.Result    `json:"fusion,omitempty"`
	MasterID     int64           `json:"master_id,omitempty"`
	ReviewID     int64           `json:"review_id,omitempty"`
	Error        string          `json:"error,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	History   []HistoryEntry `json:"history"`
}

// snapshot returns a copy safe to hand to callers while the run mutates.
func (r *RunState) snapshot() RunState {
	cp := *r
	cp.History = make([]HistoryEntry, len(r.History))
	copy(cp.History, r.History)
	if r.Extracted != nil {
		fields := *r.Extracted
		cp.Extracted = &fields
	}
	if r.Validated != nil {
		fields := *r.Validated
		cp.Validated = &fields
	}
	if r.Match != nil {
		outcome := *r.Match
		outcome.Candidates = append([]match.Candidate(nil), r.Match.Candidates...)
		cp.Match = &outcome
	}
	if r.Fusion != nil {
		result := *r.Fusion
		result.Conflicts = append([]fuse.Conflict(nil), r.Fusion.Conflicts...)
		cp.Fusion = &result
	}
	return cp
}

// currentFields returns the best available field set for the run.
func (r *RunState) currentFields() catalog.Fields {
	switch {
	case r.Validated != nil:
		return *r.Validated
	case r.Extracted != nil:
		return *r.Extracted
	default:
		return catalog.Fields{ProductType: r.ProductType}
	}
}
