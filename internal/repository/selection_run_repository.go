package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/scholardist/internal/model"
)

// SelectionRunRepository stores the history of selection runs.
type SelectionRunRepository struct {
	pool *pgxpool.Pool
}

// NewSelectionRunRepository creates a new SelectionRunRepository.
func NewSelectionRunRepository(pool *pgxpool.Pool) *SelectionRunRepository {
	return &SelectionRunRepository{pool: pool}
}

const insertRunSQL = `
	INSERT INTO selection_runs (run_id, program_id, triggered_by, outcome, paid, failed,
	                            amount_disbursed, failure_reason, ran_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (run_id) DO NOTHING`

func runArgs(r *model.Report) []any {
	return []any{r.RunID, r.ProgramID, r.TriggeredBy, string(r.Outcome), r.Paid, r.Failed,
		r.AmountDisbursed, r.FailureReason, r.RanAt}
}

// InsertBatch writes all reports in one round trip. Duplicate run ids are
// ignored so a requeued report is harmless.
func (r *SelectionRunRepository) InsertBatch(ctx context.Context, reports []*model.Report) error {
	batch := &pgx.Batch{}
	for _, rep := range reports {
		batch.Queue(insertRunSQL, runArgs(rep)...)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// Insert writes a single report.
func (r *SelectionRunRepository) Insert(ctx context.Context, rep *model.Report) error {
	_, err := r.pool.Exec(ctx, insertRunSQL, runArgs(rep)...)
	return err
}

// ListByProgram returns a page of a program's runs, newest first, and the total count.
func (r *SelectionRunRepository) ListByProgram(ctx context.Context, programID int64, limit, offset int) ([]model.Report, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM selection_runs WHERE program_id = $1`, programID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT run_id, program_id, triggered_by, outcome, paid, failed,
		        amount_disbursed, failure_reason, ran_at
		 FROM selection_runs
		 WHERE program_id = $1
		 ORDER BY ran_at DESC
		 LIMIT $2 OFFSET $3`, programID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []model.Report
	for rows.Next() {
		var rep model.Report
		var outcome string
		if err := rows.Scan(&rep.RunID, &rep.ProgramID, &rep.TriggeredBy, &outcome, &rep.Paid, &rep.Failed,
			&rep.AmountDisbursed, &rep.FailureReason, &rep.RanAt); err != nil {
			return nil, 0, err
		}
		rep.Outcome = model.RunOutcome(outcome)
		runs = append(runs, rep)
	}
	return runs, total, rows.Err()
}
