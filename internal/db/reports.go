package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveReport records an archived score report and returns it with its id.
func (r *Repository) SaveReport(ctx context.Context, userID int64, objectRef string, scores []byte, partial bool) (Report, error) {
	rep := Report{
		ID:        uuid.NewString(),
		UserID:    userID,
		ObjectRef: objectRef,
		Scores:    scores,
		Partial:   partial,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.NamedExecContext(ctx, `
INSERT INTO score_reports (id, user_id, object_ref, scores, partial, created_at)
VALUES (:id, :user_id, :object_ref, :scores, :partial, :created_at)`, rep)
	if err != nil {
		return Report{}, fmt.Errorf("insert report: %w", err)
	}
	return rep, nil
}

// LatestReport returns the newest report for userID or ErrNotFound.
func (r *Repository) LatestReport(ctx context.Context, userID int64) (Report, error) {
	var rep Report
	err := r.db.GetContext(ctx, &rep, r.db.Rebind(`
SELECT id, user_id, object_ref, scores, partial, created_at
FROM score_reports
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT 1`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, fmt.Errorf("report for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return Report{}, fmt.Errorf("select report: %w", err)
	}
	return rep, nil
}
