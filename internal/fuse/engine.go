package fuse

import (
	"context"
	"fmt"
	"log/slog"

	"catalogd/internal/catalog"
	"catalogd/internal/logging"
	"catalogd/internal/match"
	"catalogd/internal/services"
)

// Status classifies the outcome of a fusion pass.
type Status string

const (
	StatusFused       Status = "FUSED"
	StatusNeedsReview Status = "NEEDS_REVIEW"
	StatusNewProduct  Status = "NEW_PRODUCT"
)

// Result is the product of fusing an incoming record against a match
// outcome. Fused is populated for FUSED and NEW_PRODUCT; Conflicts for
// NEEDS_REVIEW.
type Result struct {
	Status    Status         `json:"status"`
	TargetID  int64          `json:"target_id,omitempty"`
	Fused     catalog.Fields `json:"fused,omitempty"`
	Conflicts []Conflict     `json:"conflicts,omitempty"`
}

// MasterSource loads master records by identifier.
type MasterSource interface {
	MasterByID(ctx context.Context, id int64) (*catalog.Record, error)
}

// Engine applies fusion policy to matching outcomes.
type Engine struct {
	source MasterSource
	logger *slog.Logger
}

// NewEngine builds a fusion engine.
func NewEngine(source MasterSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		source: source,
		logger: logger.With(logging.String(logging.FieldComponent, "fuse")),
	}
}

// ForOutcome resolves a match outcome into a fusion result.
//
// A MATCH is authoritative: the master's own fields come back FUSED without
// invoking merge logic. A concrete similarity target runs the merge. No
// target means the incoming record proposes a new master.
func (e *Engine) ForOutcome(ctx context.Context, outcome match.Outcome, incoming catalog.Fields) (Result, error) {
	switch {
	case outcome.Status == match.StatusMatch:
		master, err := e.loadMaster(ctx, outcome.TargetID)
		if err != nil {
			return Result{}, err
		}
		return Result{Status: StatusFused, TargetID: master.ID, Fused: master.Fields}, nil

	case outcome.TargetID != 0:
		master, err := e.loadMaster(ctx, outcome.TargetID)
		if err != nil {
			return Result{}, err
		}
		fused, conflicts := Fuse(master.Fields, incoming)
		if len(conflicts) > 0 {
			e.logger.Info("fusion conflicts",
				logging.Int64(logging.FieldMasterID, master.ID),
				logging.Int("conflicts", len(conflicts)),
			)
			return Result{Status: StatusNeedsReview, TargetID: master.ID, Conflicts: conflicts}, nil
		}
		return Result{Status: StatusFused, TargetID: master.ID, Fused: fused}, nil

	default:
		return Result{Status: StatusNewProduct, Fused: incoming}, nil
	}
}

func (e *Engine) loadMaster(ctx context.Context, id int64) (*catalog.Record, error) {
	master, err := e.source.MasterByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "fusion", "load master", "", err)
	}
	if master == nil {
		return nil, services.Wrap(services.ErrNotFound, "fusion", "load master", fmt.Sprintf("master record %d not found", id), nil)
	}
	return master, nil
}
