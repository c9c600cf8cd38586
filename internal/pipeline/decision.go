package pipeline

import (
	"context"
	"fmt"

	"catalogd/internal/logging"
	"catalogd/internal/review"
	"catalogd/internal/services"
)

// DecisionOutcome reports what a human review decision led to.
type DecisionOutcome struct {
	ReviewID int64     `json:"review_id"`
	Approved bool      `json:"approved"`
	MasterID int64     `json:"master_id,omitempty"`
	Created  bool      `json:"created,omitempty"`
	Status   RunStatus `json:"status"`
}

// SubmitReviewDecision applies a human decision to a pending review item.
// Approval re-enters the pipeline at save only, carrying the reviewer's
// approved data; match and fusion are not replayed. Rejection is terminal.
func (m *Manager) SubmitReviewDecision(ctx context.Context, reviewID int64, approved bool, decidedBy, feedback string) (DecisionOutcome, error) {
	item, err := m.queue.Decide(ctx, reviewID, approved, decidedBy, feedback)
	if err != nil {
		return DecisionOutcome{}, err
	}

	ctx = services.WithRunID(ctx, item.RunID)
	logger := logging.WithContext(ctx, m.logger)

	if !approved {
		m.recordDecision(item, StatusNeedsReview, 0, fmt.Sprintf("review item %d rejected", reviewID))
		logger.Info("review rejected", logging.Int64(logging.FieldReviewID, reviewID))
		return DecisionOutcome{ReviewID: reviewID, Approved: false, Status: StatusNeedsReview}, nil
	}

	masterID, created, err := m.persistFields(ctx, item.Fields, item.TargetID)
	if err != nil {
		m.recordDecision(item, StatusFailed, 0, fmt.Sprintf("save after approval failed: %v", err))
		return DecisionOutcome{}, err
	}

	m.recordDecision(item, StatusCompleted, masterID, fmt.Sprintf("review item %d approved, master %d", reviewID, masterID))
	logger.Info("review approved",
		logging.Int64(logging.FieldReviewID, reviewID),
		logging.Int64(logging.FieldMasterID, masterID),
	)
	if created {
		if err := m.notifier.NotifyMasterCreated(ctx, masterID, item.Fields.ProductName); err != nil {
			logger.Warn("master created notification failed", logging.Error(err))
		}
	}
	return DecisionOutcome{
		ReviewID: reviewID,
		Approved: true,
		MasterID: masterID,
		Created:  created,
		Status:   StatusCompleted,
	}, nil
}

// recordDecision updates the originating run's in-memory state when the
// manager still tracks it. Decisions made after a restart only touch the
// persisted review item.
func (m *Manager) recordDecision(item *review.Item, status RunStatus, masterID int64, note string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[item.RunID]
	if !ok {
		return
	}
	run.Status = status
	if status == StatusCompleted {
		run.Stage = stageCompleted
	}
	if masterID != 0 {
		run.MasterID = masterID
	}
	run.appendHistory(StageSave, note, nil)
	run.Version++
}
