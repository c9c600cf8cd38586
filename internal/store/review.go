package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReviewStatus tracks a review item through the human decision flow.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// ReviewItem is a persisted entry in the human review queue. The structured
// payloads (reasons, extracted fields, candidates, conflicts) are stored as
// JSON blobs; the review package owns their shapes.
type ReviewItem struct {
	ID             int64
	RunID          string
	Status         ReviewStatus
	Priority       int
	ReasonsJSON    string
	FieldsJSON     string
	CandidatesJSON string
	ConflictsJSON  string
	TargetMasterID int64
	DecidedBy      string
	Feedback       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const reviewColumns = "id, run_id, status, priority, reasons_json, fields_json, candidates_json, conflicts_json, target_master_id, decided_by, feedback, created_at, updated_at"

func scanReview(scanner interface{ Scan(dest ...any) error }) (*ReviewItem, error) {
	var (
		id         int64
		runID      string
		status     string
		priority   int
		reasons    string
		fields     string
		candidates sql.NullString
		conflicts  sql.NullString
		targetID   sql.NullInt64
		decidedBy  sql.NullString
		feedback   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&status,
		&priority,
		&reasons,
		&fields,
		&candidates,
		&conflicts,
		&targetID,
		&decidedBy,
		&feedback,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &ReviewItem{
		ID:             id,
		RunID:          runID,
		Status:         ReviewStatus(status),
		Priority:       priority,
		ReasonsJSON:    reasons,
		FieldsJSON:     fields,
		CandidatesJSON: candidates.String,
		ConflictsJSON:  conflicts.String,
		TargetMasterID: targetID.Int64,
		DecidedBy:      decidedBy.String,
		Feedback:       feedback.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

// CreateReview inserts a pending review item and returns the stored row.
func (s *Store) CreateReview(ctx context.Context, item *ReviewItem) (*ReviewItem, error) {
	if item == nil {
		return nil, errors.New("item is nil")
	}
	if item.RunID == "" {
		return nil, errors.New("run id is required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO review_items (
            run_id, status, priority, reasons_json, fields_json,
            candidates_json, conflicts_json, target_master_id,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.RunID,
		ReviewPending,
		item.Priority,
		item.ReasonsJSON,
		item.FieldsJSON,
		nullableString(item.CandidatesJSON),
		nullableString(item.ConflictsJSON),
		nullableInt64(item.TargetMasterID),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert review item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.ReviewByID(ctx, id)
}

// ReviewByID fetches a review item by identifier.
func (s *Store) ReviewByID(ctx context.Context, id int64) (*ReviewItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM review_items WHERE id = ?`, id)
	item, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review item: %w", err)
	}
	return item, nil
}

// ListReviews returns review items filtered by status (or all items when
// status is empty), ordered by priority then age. Ascending puts the
// lowest-priority items first; the default surfaces urgent items on top.
func (s *Store) ListReviews(ctx context.Context, status ReviewStatus, limit int, ascending bool) ([]*ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_items`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	if ascending {
		query += ` ORDER BY priority, created_at`
	} else {
		query += ` ORDER BY priority DESC, created_at`
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}
	defer rows.Close()

	var items []*ReviewItem
	for rows.Next() {
		item, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// PendingReviewCount returns the number of undecided review items.
func (s *Store) PendingReviewCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM review_items WHERE status = ?`,
		ReviewPending,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending reviews: %w", err)
	}
	return count, nil
}

// DecideReview transitions a pending item to APPROVED or REJECTED. The
// conditional update makes the first decision win: a second decision on the
// same item affects zero rows and returns false.
func (s *Store) DecideReview(ctx context.Context, id int64, status ReviewStatus, decidedBy, feedback string) (bool, error) {
	if status != ReviewApproved && status != ReviewRejected {
		return false, fmt.Errorf("invalid decision status %q", status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE review_items
         SET status = ?, decided_by = ?, feedback = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		status,
		nullableString(decidedBy),
		nullableString(feedback),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		ReviewPending,
	)
	if err != nil {
		return false, fmt.Errorf("decide review item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
