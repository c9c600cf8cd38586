package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"catalogd/internal/catalog"
	"catalogd/internal/fuse"
	"catalogd/internal/logging"
	"catalogd/internal/match"
	"catalogd/internal/services"
	"catalogd/internal/store"
)

// Item is the decoded view of a persisted review item.
type Item struct {
	ID         int64             `json:"id"`
	RunID      string            `json:"run_id"`
	Status     store.ReviewStatus `json:"status"`
	Priority   int               `json:"priority"`
	Reasons    []Reason          `json:"reasons"`
	Fields     catalog.Fields    `json:"fields"`
	Candidates []match.Candidate `json:"candidates,omitempty"`
	Conflicts  []fuse.Conflict   `json:"conflicts,omitempty"`
	TargetID   int64             `json:"target_id,omitempty"`
	DecidedBy  string            `json:"decided_by,omitempty"`
	Feedback   string            `json:"feedback,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// EnqueueRequest carries everything a run hands over when it needs review.
type EnqueueRequest struct {
	RunID       string
	Fields      catalog.Fields
	Reasons     []Reason
	MatchStatus match.Status
	Candidates  []match.Candidate
	Conflicts   []fuse.Conflict
	TargetID    int64
}

// Queue persists and ranks review items.
type Queue struct {
	store  *store.Store
	logger *slog.Logger
}

// NewQueue builds a review queue over the catalog store.
func NewQueue(st *store.Store, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Queue{
		store:  st,
		logger: logger.With(logging.String(logging.FieldComponent, "review")),
	}
}

// Enqueue persists a pending review item with a computed priority.
func (q *Queue) Enqueue(ctx context.Context, req EnqueueRequest) (*Item, error) {
	if req.RunID == "" {
		return nil, services.Wrap(services.ErrValidation, "review", "enqueue", "run id is required", nil)
	}
	if len(req.Reasons) == 0 {
		return nil, services.Wrap(services.ErrValidation, "review", "enqueue", "at least one reason is required", nil)
	}

	reasonsJSON, err := json.Marshal(req.Reasons)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "review", "encode reasons", "", err)
	}
	fieldsJSON, err := json.Marshal(req.Fields)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "review", "encode fields", "", err)
	}

	record := &store.ReviewItem{
		RunID:          req.RunID,
		Priority:       PriorityScore(req.Reasons, req.MatchStatus),
		ReasonsJSON:    string(reasonsJSON),
		FieldsJSON:     string(fieldsJSON),
		TargetMasterID: req.TargetID,
	}
	if len(req.Candidates) > 0 {
		encoded, err := json.Marshal(req.Candidates)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "review", "encode candidates", "", err)
		}
		record.CandidatesJSON = string(encoded)
	}
	if len(req.Conflicts) > 0 {
		encoded, err := json.Marshal(req.Conflicts)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "review", "encode conflicts", "", err)
		}
		record.ConflictsJSON = string(encoded)
	}

	stored, err := q.store.CreateReview(ctx, record)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "persist item", "", err)
	}

	q.logger.Info("review item queued",
		logging.Int64(logging.FieldReviewID, stored.ID),
		logging.String(logging.FieldRunID, req.RunID),
		logging.Int("priority", stored.Priority),
	)
	return decodeItem(stored)
}

// Get returns a review item by identifier.
func (q *Queue) Get(ctx context.Context, id int64) (*Item, error) {
	stored, err := q.store.ReviewByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "load item", "", err)
	}
	if stored == nil {
		return nil, services.Wrap(services.ErrNotFound, "review", "load item", fmt.Sprintf("review item %d not found", id), nil)
	}
	return decodeItem(stored)
}

// List returns review items filtered by status, highest priority first
// unless ascending order is requested.
func (q *Queue) List(ctx context.Context, status store.ReviewStatus, limit int, ascending bool) ([]*Item, error) {
	stored, err := q.store.ListReviews(ctx, status, limit, ascending)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "list items", "", err)
	}
	items := make([]*Item, 0, len(stored))
	for _, record := range stored {
		item, err := decodeItem(record)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// PendingCount returns the number of undecided items.
func (q *Queue) PendingCount(ctx context.Context) (int64, error) {
	return q.store.PendingReviewCount(ctx)
}

// Decide applies a human decision. The first decision wins; deciding an
// already-decided item returns a conflict error and changes nothing.
func (q *Queue) Decide(ctx context.Context, id int64, approved bool, decidedBy, feedback string) (*Item, error) {
	status := store.ReviewRejected
	if approved {
		status = store.ReviewApproved
	}

	applied, err := q.store.DecideReview(ctx, id, status, decidedBy, feedback)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "review", "decide item", "", err)
	}
	if !applied {
		current, err := q.store.ReviewByID(ctx, id)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "review", "load item", "", err)
		}
		if current == nil {
			return nil, services.Wrap(services.ErrNotFound, "review", "decide item", fmt.Sprintf("review item %d not found", id), nil)
		}
		return nil, services.Wrap(services.ErrConflict, "review", "decide item",
			fmt.Sprintf("review item %d already %s", id, current.Status), nil)
	}

	q.logger.Info("review item decided",
		logging.Int64(logging.FieldReviewID, id),
		logging.String("decision", string(status)),
	)
	return q.Get(ctx, id)
}

func decodeItem(record *store.ReviewItem) (*Item, error) {
	item := &Item{
		ID:        record.ID,
		RunID:     record.RunID,
		Status:    record.Status,
		Priority:  record.Priority,
		TargetID:  record.TargetMasterID,
		DecidedBy: record.DecidedBy,
		Feedback:  record.Feedback,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.ReasonsJSON != "" {
		if err := json.Unmarshal([]byte(record.ReasonsJSON), &item.Reasons); err != nil {
			return nil, services.Wrap(services.ErrValidation, "review", "decode reasons", "", err)
		}
	}
	if record.FieldsJSON != "" {
		if err := json.Unmarshal([]byte(record.FieldsJSON), &item.Fields); err != nil {
			return nil, services.Wrap(services.ErrValidation, "review", "decode fields", "", err)
		}
	}
	if record.CandidatesJSON != "" {
		if err := json.Unmarshal([]byte(record.CandidatesJSON), &item.Candidates); err != nil {
			return nil, services.Wrap(services.ErrValidation, "review", "decode candidates", "", err)
		}
	}
	if record.ConflictsJSON != "" {
		if err := json.Unmarshal([]byte(record.ConflictsJSON), &item.Conflicts); err != nil {
			return nil, services.Wrap(services.ErrValidation, "review", "decode conflicts", "", err)
		}
	}
	return item, nil
}
