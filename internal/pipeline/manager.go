package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalogd/internal/catalog"
	"catalogd/internal/extraction"
	"catalogd/internal/fuse"
	"catalogd/internal/logging"
	"catalogd/internal/match"
	"catalogd/internal/notifications"
	"catalogd/internal/review"
	"catalogd/internal/services"
	"catalogd/internal/store"
)

// Manager orchestrates runs through the stage pipeline. Each submission gets
// its own goroutine; within a run, stages execute strictly in sequence.
type Manager struct {
	store    *store.Store
	collab   extraction.Collaborators
	matcher  *match.Engine
	fuser    *fuse.Engine
	queue    *review.Queue
	notifier notifications.Service
	logger   *slog.Logger

	mu   sync.RWMutex
	runs map[string]*RunState
	wg   sync.WaitGroup
}

// NewManager wires the pipeline together.
func NewManager(
	st *store.Store,
	collab extraction.Collaborators,
	matcher *match.Engine,
	fuser *fuse.Engine,
	queue *review.Queue,
	notifier notifications.Service,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:    st,
		collab:   collab,
		matcher:  matcher,
		fuser:    fuser,
		queue:    queue,
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
		runs:     make(map[string]*RunState),
	}
}

// FailureStatus maps a stage error to the run's terminal status.
func FailureStatus(err error) RunStatus {
	if services.IsValidation(err) {
		return StatusNeedsReview
	}
	return StatusFailed
}

// Submit starts an asynchronous run for the raw input and returns its id
// immediately. Once started, a run proceeds to a terminal state even if the
// caller's context is cancelled.
func (m *Manager) Submit(ctx context.Context, rawText string) (string, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return "", services.Wrap(services.ErrValidation, "submit", "", "raw text is empty", nil)
	}

	now := time.Now().UTC()
	run := &RunState{
		ID:        uuid.NewString(),
		Status:    StatusRunning,
		Stage:     StageClassify,
		RawText:   rawText,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.execute(context.WithoutCancel(ctx), run)
	}()

	return run.ID, nil
}

// Status returns a point-in-time copy of a run's state.
func (m *Manager) Status(runID string) (RunState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	if !ok {
		return RunState{}, services.Wrap(services.ErrNotFound, "status", "", fmt.Sprintf("run %s not found", runID), nil)
	}
	return run.snapshot(), nil
}

// ListRuns returns snapshots of all known runs, oldest first.
func (m *Manager) ListRuns() []RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]RunState, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run.snapshot())
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
	return runs
}

// Wait blocks until all in-flight runs reach a terminal state.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) execute(ctx context.Context, run *RunState) {
	ctx = services.WithRunID(ctx, run.ID)
	stage := StageClassify

	for {
		stageCtx := services.WithStage(ctx, string(stage))
		m.mutate(run, func(r *RunState) {
			r.Stage = stage
		})

		outcome, err := m.runStage(stageCtx, run, stage)
		if err != nil {
			m.handleStageFailure(stageCtx, run, stage, err)
			return
		}

		next, ok := nextStage(stage, outcome)
		if !ok {
			m.failRun(stageCtx, run, stage, services.Wrap(nil, string(stage), "route",
				fmt.Sprintf("no transition for outcome %q", outcome), nil))
			return
		}

		switch next {
		case stageCompleted:
			m.completeRun(stageCtx, run)
			return
		case stageNeedsReview:
			// request_review already marked the run and queued the item.
			return
		}
		stage = next
	}
}

func (m *Manager) runStage(ctx context.Context, run *RunState, stage Stage) (Outcome, error) {
	switch stage {
	case StageClassify:
		return m.classify(ctx, run)
	case StageExtract:
		return m.extract(ctx, run)
	case StageValidate:
		return m.validate(ctx, run)
	case StageMatch:
		return m.match(ctx, run)
	case StageFusion:
		return m.fusion(ctx, run)
	case StageSave:
		return m.save(ctx, run)
	case StageRequestReview:
		return m.requestReview(ctx, run, nil)
	default:
		return "", services.Wrap(nil, string(stage), "dispatch", "unknown stage", nil)
	}
}

func (m *Manager) classify(ctx context.Context, run *RunState) (Outcome, error) {
	productType, err := m.collab.Classifier.Classify(ctx, run.RawText)
	if err != nil {
		return "", err
	}
	m.mutate(run, func(r *RunState) {
		r.ProductType = productType
		r.appendHistory(StageClassify, fmt.Sprintf("classified as %s", productType), nil)
	})
	if !extraction.IsKnownType(productType) {
		m.mutate(run, func(r *RunState) {
			r.ReviewReason = fmt.Sprintf("unrecognized product type %q", productType)
		})
		return OutcomeTypeUnknown, nil
	}
	return OutcomeTypeKnown, nil
}

func (m *Manager) extract(ctx context.Context, run *RunState) (Outcome, error) {
	fields, err := m.collab.Extractor.Extract(ctx, run.RawText, run.ProductType)
	if err != nil {
		return "", err
	}
	m.mutate(run, func(r *RunState) {
		r.Extracted = &fields
		r.appendHistory(StageExtract, fmt.Sprintf("extracted %q", fields.ProductName), nil)
	})
	return OutcomeExtracted, nil
}

func (m *Manager) validate(ctx context.Context, run *RunState) (Outcome, error) {
	result, err := m.collab.Validator.Validate(ctx, *run.Extracted, run.ProductType)
	if err != nil {
		return "", err
	}
	m.mutate(run, func(r *RunState) {
		r.Validated = &result.Validated
		r.ReviewReason = result.ReviewReason
		note := "validation passed"
		if result.ReviewReason != "" {
			note = "validation flagged: " + result.ReviewReason
		}
		r.appendHistory(StageValidate, note, nil)
	})
	if result.ReviewReason != "" {
		return OutcomeNeedsReview, nil
	}
	return OutcomeValidated, nil
}

func (m *Manager) match(ctx context.Context, run *RunState) (Outcome, error) {
	outcome, err := m.matcher.Evaluate(ctx, run.currentFields())
	if err != nil {
		return "", err
	}
	m.mutate(run, func(r *RunState) {
		r.Match = &outcome
		r.appendHistory(StageMatch, fmt.Sprintf("match status %s", outcome.Status), nil)
	})

	// A MATCH is terminal for the automated path; record the trivial fusion
	// result so the run carries a complete decision trail.
	if outcome.Status == match.StatusMatch {
		result, err := m.fuser.ForOutcome(ctx, outcome, run.currentFields())
		if err != nil {
			return "", err
		}
		m.mutate(run, func(r *RunState) {
			r.Fusion = &result
			r.MasterID = result.TargetID
		})
	}
	return Outcome(outcome.Status), nil
}

func (m *Manager) fusion(ctx context.Context, run *RunState) (Outcome, error) {
	result, err := m.fuser.ForOutcome(ctx, *run.Match, run.currentFields())
	if err != nil {
		return "", err
	}
	m.mutate(run, func(r *RunState) {
		r.Fusion = &result
		r.appendHistory(StageFusion, fmt.Sprintf("fusion status %s, %d conflicts", result.Status, len(result.Conflicts)), nil)
	})
	return Outcome(result.Status), nil
}

func (m *Manager) save(ctx context.Context, run *RunState) (Outcome, error) {
	result := run.Fusion
	if result == nil {
		return "", services.Wrap(nil, "save", "", "no fusion result to save", nil)
	}
	masterID, created, err := m.persistFields(ctx, result.Fused, result.TargetID)
	if err != nil {
		return "", err
	}
	m.mutate(run, func(r *RunState) {
		r.MasterID = masterID
		note := fmt.Sprintf("updated master %d", masterID)
		if created {
			note = fmt.Sprintf("created master %d", masterID)
		}
		r.appendHistory(StageSave, note, nil)
	})
	if created {
		if err := m.notifier.NotifyMasterCreated(ctx, masterID, result.Fused.ProductName); err != nil {
			logging.WithContext(ctx, m.logger).Warn("master created notification failed", logging.Error(err))
		}
	}
	return OutcomeSaved, nil
}

// requestReview queues the run for a human decision. Extra reasons come from
// validation-class stage failures routed here.
func (m *Manager) requestReview(ctx context.Context, run *RunState, extra []review.Reason) (Outcome, error) {
	reasons := append(extra, m.reviewReasons(run)...)
	if len(reasons) == 0 {
		reasons = []review.Reason{{Type: review.ReasonValidationFailed, Message: "run flagged for review without detail"}}
	}

	req := review.EnqueueRequest{
		RunID:   run.ID,
		Fields:  run.currentFields(),
		Reasons: reasons,
	}
	if run.Match != nil {
		req.MatchStatus = run.Match.Status
		req.Candidates = run.Match.Candidates
	}
	if run.Fusion != nil {
		req.Conflicts = run.Fusion.Conflicts
		req.TargetID = run.Fusion.TargetID
	}

	item, err := m.queue.Enqueue(ctx, req)
	if err != nil {
		return "", err
	}

	m.mutate(run, func(r *RunState) {
		r.ReviewID = item.ID
		r.Status = StatusNeedsReview
		r.Stage = StageRequestReview
		r.appendHistory(StageRequestReview, fmt.Sprintf("queued review item %d at priority %d", item.ID, item.Priority), nil)
	})
	logging.WithContext(ctx, m.logger).Info("run needs review",
		logging.Int64(logging.FieldReviewID, item.ID),
		logging.Int("priority", item.Priority),
	)
	if err := m.notifier.NotifyReviewQueued(ctx, item.ID, req.Fields.ProductName, item.Priority); err != nil {
		logging.WithContext(ctx, m.logger).Warn("review notification failed", logging.Error(err))
	}
	return OutcomeQueued, nil
}

// reviewReasons derives structured reasons from the run's accumulated state.
func (m *Manager) reviewReasons(run *RunState) []review.Reason {
	var reasons []review.Reason

	if run.ProductType != "" && !extraction.IsKnownType(run.ProductType) {
		reasons = append(reasons, review.Reason{
			Type:    review.ReasonUnknownProductType,
			Message: fmt.Sprintf("classifier returned unrecognized type %q", run.ProductType),
			Field:   catalog.FieldProductType,
		})
	}
	if run.ReviewReason != "" && len(reasons) == 0 {
		reasons = append(reasons, review.Reason{
			Type:    review.ReasonValidationFailed,
			Message: run.ReviewReason,
		})
	}
	if run.Fusion != nil {
		switch run.Fusion.Status {
		case fuse.StatusNeedsReview:
			for _, conflict := range run.Fusion.Conflicts {
				reasonType := review.ReasonFusionConflict
				if conflict.Reason == fuse.ReasonCriticalMismatch {
					reasonType = review.ReasonCriticalMismatch
				}
				reasons = append(reasons, review.Reason{
					Type:    reasonType,
					Message: fmt.Sprintf("%s: existing %q vs new %q", conflict.Reason, conflict.ExistingValue, conflict.NewValue),
					Field:   conflict.Field,
				})
			}
		case fuse.StatusNewProduct:
			reasons = append(reasons, review.Reason{
				Type:    review.ReasonNewProduct,
				Message: "no existing master record matches; proposing a new product",
			})
		}
	}
	if len(reasons) == 0 && run.Match != nil && run.Match.Status == match.StatusNoMatch {
		reasons = append(reasons, review.Reason{
			Type:    review.ReasonNoMatch,
			Message: "no master record scored above the candidate threshold",
		})
	}
	return reasons
}

// handleStageFailure routes validation-class errors into review and marks
// everything else failed.
func (m *Manager) handleStageFailure(ctx context.Context, run *RunState, stage Stage, err error) {
	m.mutate(run, func(r *RunState) {
		r.appendHistory(stage, "", err)
	})

	if FailureStatus(err) == StatusNeedsReview {
		extra := []review.Reason{{
			Type:    review.ReasonValidationFailed,
			Message: err.Error(),
		}}
		if _, reviewErr := m.requestReview(ctx, run, extra); reviewErr == nil {
			return
		}
	}
	m.failRun(ctx, run, stage, err)
}

func (m *Manager) failRun(ctx context.Context, run *RunState, stage Stage, err error) {
	m.mutate(run, func(r *RunState) {
		r.Status = StatusFailed
		r.Error = err.Error()
	})
	logging.WithContext(ctx, m.logger).Error("run failed",
		logging.String("failed_stage", string(stage)),
		logging.Error(err),
	)
	if notifyErr := m.notifier.NotifyRunFailed(ctx, run.ID, err.Error()); notifyErr != nil {
		logging.WithContext(ctx, m.logger).Warn("failure notification failed", logging.Error(notifyErr))
	}
}

func (m *Manager) completeRun(ctx context.Context, run *RunState) {
	m.mutate(run, func(r *RunState) {
		r.Status = StatusCompleted
		r.Stage = stageCompleted
		r.appendHistory(stageCompleted, "run completed", nil)
	})
	fields := run.currentFields()
	logging.WithContext(ctx, m.logger).Info("run completed",
		logging.Int64(logging.FieldMasterID, run.MasterID),
	)
	if err := m.notifier.NotifyRunCompleted(ctx, run.ID, fields.ProductName, run.MasterID); err != nil {
		logging.WithContext(ctx, m.logger).Warn("completion notification failed", logging.Error(err))
	}
}

// persistFields writes fields to an existing master or creates a new one.
func (m *Manager) persistFields(ctx context.Context, fields catalog.Fields, targetID int64) (int64, bool, error) {
	if targetID != 0 {
		master, err := m.store.MasterByID(ctx, targetID)
		if err != nil {
			return 0, false, services.Wrap(services.ErrTransient, "save", "load master", "", err)
		}
		if master == nil {
			return 0, false, services.Wrap(services.ErrNotFound, "save", "load master",
				fmt.Sprintf("master record %d not found", targetID), nil)
		}
		master.Fields = fields
		if err := m.store.UpdateMaster(ctx, master); err != nil {
			return 0, false, services.Wrap(services.ErrTransient, "save", "update master", "", err)
		}
		return master.ID, false, nil
	}

	record, err := m.store.CreateMaster(ctx, fields)
	if err != nil {
		return 0, false, services.Wrap(services.ErrTransient, "save", "create master", "", err)
	}
	return record.ID, true, nil
}

func (r *RunState) appendHistory(stage Stage, note string, err error) {
	entry := HistoryEntry{
		Stage:     stage,
		Note:      note,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		entry.Err = err.Error()
	}
	r.History = append(r.History, entry)
}

func (m *Manager) mutate(run *RunState, fn func(*RunState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(run)
	run.Version++
	run.UpdatedAt = time.Now().UTC()
}
