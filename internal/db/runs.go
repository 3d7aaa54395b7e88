package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fauxpas-eval/internal/scoring"
)

// staleRunAfter bounds how long an unfinished run counts as in flight. A
// worker that dies mid-run never closes its row.
const staleRunAfter = 30 * time.Minute

var _ scoring.RunRegistry = (*Repository)(nil)

// BeginRun opens an evaluation_runs row for userID. Every process sharing
// the database sees it until EndRun closes it.
func (r *Repository) BeginRun(ctx context.Context, userID int64) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
INSERT INTO evaluation_runs (id, user_id, started_at) VALUES (?, ?, ?)`),
		id, userID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

func (r *Repository) EndRun(ctx context.Context, runID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
UPDATE evaluation_runs SET finished_at = ? WHERE id = ? AND finished_at IS NULL`),
		time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("close run %s: %w", runID, err)
	}
	return nil
}

// RunInFlight reports whether userID has an open run younger than
// staleRunAfter.
func (r *Repository) RunInFlight(ctx context.Context, userID int64) (bool, error) {
	var started []time.Time
	err := r.db.SelectContext(ctx, &started, r.db.Rebind(`
SELECT started_at FROM evaluation_runs WHERE user_id = ? AND finished_at IS NULL`), userID)
	if err != nil {
		return false, fmt.Errorf("select runs: %w", err)
	}
	cutoff := time.Now().Add(-staleRunAfter)
	for _, t := range started {
		if t.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}
