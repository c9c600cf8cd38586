package match

import (
	"context"
	"log/slog"
	"sort"

	"catalogd/internal/catalog"
	"catalogd/internal/config"
	"catalogd/internal/logging"
	"catalogd/internal/services"
)

// Status classifies the outcome of a matching pass.
type Status string

const (
	StatusMatch          Status = "MATCH"
	StatusHighSimilarity Status = "HIGH_SIMILARITY"
	StatusCandidates     Status = "CANDIDATES"
	StatusNoMatch        Status = "NO_MATCH"
)

// Classification boundaries on the best candidate's score.
const (
	matchScore          = 90
	highSimilarityScore = 75

	highSimilarityLimit = 5
)

// Candidate pairs a master record with its similarity score.
type Candidate struct {
	MasterID       int64  `json:"master_id"`
	Score          int    `json:"score"`
	ProductName    string `json:"product_name,omitempty"`
	Manufacturer   string `json:"manufacturer,omitempty"`
	ApprovalNumber string `json:"approval_number,omitempty"`
}

// Outcome is the result of evaluating an incoming record against the
// catalog. TargetID is set only for MATCH and HIGH_SIMILARITY.
type Outcome struct {
	Status     Status      `json:"status"`
	TargetID   int64       `json:"target_id,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// CatalogSource supplies master records for comparison.
type CatalogSource interface {
	MastersByApprovalNumber(ctx context.Context, approvalNumber string) ([]*catalog.Record, error)
	MasterPool(ctx context.Context, limit int) ([]*catalog.Record, error)
}

// Engine scores incoming records against the master catalog.
type Engine struct {
	source    CatalogSource
	threshold int
	limit     int
	poolLimit int
	logger    *slog.Logger
}

// NewEngine builds a matching engine from configuration.
func NewEngine(source CatalogSource, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		source:    source,
		threshold: cfg.Matching.Threshold,
		limit:     cfg.Matching.Limit,
		poolLimit: cfg.Matching.PoolLimit,
		logger:    logger.With(logging.String(logging.FieldComponent, "match")),
	}
}

// Evaluate finds and classifies catalog candidates for the incoming fields.
// An exact approval number hit short-circuits the fuzzy pool scan.
func (e *Engine) Evaluate(ctx context.Context, incoming catalog.Fields) (Outcome, error) {
	candidates, err := e.findCandidates(ctx, incoming)
	if err != nil {
		return Outcome{}, err
	}
	outcome := classify(candidates)
	e.logger.Info("matching complete",
		logging.String("status", string(outcome.Status)),
		logging.Int("candidates", len(candidates)),
		logging.Int64("target_id", outcome.TargetID),
	)
	return outcome, nil
}

// findCandidates returns scored candidates at or above the threshold,
// descending by score, truncated to the configured limit.
func (e *Engine) findCandidates(ctx context.Context, incoming catalog.Fields) ([]Candidate, error) {
	if incoming.ApprovalNumber != "" {
		exact, err := e.source.MastersByApprovalNumber(ctx, incoming.ApprovalNumber)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "match", "query approval number", "", err)
		}
		if len(exact) > 0 {
			return e.scoreRecords(incoming, exact, false), nil
		}
	}

	pool, err := e.source.MasterPool(ctx, e.poolLimit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "match", "query master pool", "", err)
	}
	return e.scoreRecords(incoming, pool, true), nil
}

// scoreRecords scores each record. Exact approval hits bypass the threshold
// filter so a regulatory identifier always surfaces its record.
func (e *Engine) scoreRecords(incoming catalog.Fields, records []*catalog.Record, applyThreshold bool) []Candidate {
	candidates := make([]Candidate, 0, len(records))
	for _, record := range records {
		score, _ := Score(incoming, record.Fields)
		if applyThreshold && score < e.threshold {
			continue
		}
		candidates = append(candidates, Candidate{
			MasterID:       record.ID,
			Score:          score,
			ProductName:    record.ProductName,
			Manufacturer:   record.Manufacturer,
			ApprovalNumber: record.ApprovalNumber,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if e.limit > 0 && len(candidates) > e.limit {
		candidates = candidates[:e.limit]
	}
	return candidates
}

func classify(candidates []Candidate) Outcome {
	if len(candidates) == 0 {
		return Outcome{Status: StatusNoMatch}
	}
	best := candidates[0]
	switch {
	case best.Score >= matchScore:
		return Outcome{Status: StatusMatch, TargetID: best.MasterID}
	case best.Score >= highSimilarityScore:
		surfaced := candidates
		if len(surfaced) > highSimilarityLimit {
			surfaced = surfaced[:highSimilarityLimit]
		}
		return Outcome{Status: StatusHighSimilarity, TargetID: best.MasterID, Candidates: surfaced}
	default:
		return Outcome{Status: StatusCandidates, Candidates: candidates}
	}
}
