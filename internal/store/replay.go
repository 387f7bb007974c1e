package store

import (
	"context"
	"fmt"
)

// RunSummary aggregates the runs of one program for history listings.
type RunSummary struct {
	ProgramID string
	Name      string
	Forward   int
	Inverse   int
	Failed    int
	LastSeq   int64
}

// GetLastSeq returns the highest seq number used in the store.
// Used to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var progSeq, runSeq int64

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM programs
	`).Scan(&progSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from programs: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM runs
	`).Scan(&runSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from runs: %w", err)
	}

	return max(progSeq, runSeq), nil
}

// SummarizeRuns returns per-program run counts, one row per stored program
// ID, named after its earliest record. Ordered by first appearance.
func (s *Store) SummarizeRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			p.id,
			(SELECT name FROM programs WHERE id = p.id ORDER BY seq ASC, name COLLATE BINARY ASC LIMIT 1),
			COALESCE(SUM(CASE WHEN r.direction = 'forward' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN r.direction = 'inverse' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN r.error_code != '' THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(r.seq), 0)
		FROM (SELECT id, MIN(seq) AS seq FROM programs GROUP BY id) p
		LEFT JOIN runs r ON r.program_id = p.id
		GROUP BY p.id, p.seq
		ORDER BY p.seq ASC, p.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("summarize runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		if err := rows.Scan(&sum.ProgramID, &sum.Name, &sum.Forward, &sum.Inverse, &sum.Failed, &sum.LastSeq); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}

	if summaries == nil {
		summaries = []RunSummary{}
	}
	return summaries, nil
}
