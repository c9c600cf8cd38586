package review

import (
	"catalogd/internal/catalog"
	"catalogd/internal/match"
)

// Reason explains why a run needs human attention. Reasons are structured
// rather than free text so the queue can rank and the UI can render them.
type Reason struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	ExpectedFormat string `json:"expected_format,omitempty"`
}

// Reason types.
const (
	ReasonUnknownProductType = "UNKNOWN_PRODUCT_TYPE"
	ReasonValidationFailed   = "VALIDATION_FAILED"
	ReasonNoMatch            = "NO_MATCH"
	ReasonCriticalMismatch   = "CRITICAL_FIELD_MISMATCH"
	ReasonFusionConflict     = "FUSION_CONFLICT"
	ReasonNewProduct         = "NEW_PRODUCT"
)

// Priority bases and bonus.
const (
	priorityCritical       = 50
	priorityConflict       = 30
	priorityDefault        = 10
	priorityHighSimilarity = 20
)

// PriorityScore ranks a review item from its reasons and the run's match
// status, clamped to [0, 100]. Critical-field trouble outranks fusion
// conflicts, which outrank everything else; near-matches get a bonus since a
// quick confirmation often resolves them.
func PriorityScore(reasons []Reason, matchStatus match.Status) int {
	score := priorityDefault
	switch {
	case anyCritical(reasons):
		score = priorityCritical
	case anyConflict(reasons):
		score = priorityConflict
	}
	if matchStatus == match.StatusHighSimilarity {
		score += priorityHighSimilarity
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func anyCritical(reasons []Reason) bool {
	for _, r := range reasons {
		if r.Type == ReasonCriticalMismatch || r.Field == catalog.FieldApprovalNumber {
			return true
		}
	}
	return false
}

func anyConflict(reasons []Reason) bool {
	for _, r := range reasons {
		if r.Type == ReasonFusionConflict || r.Type == ReasonValidationFailed {
			return true
		}
	}
	return false
}
