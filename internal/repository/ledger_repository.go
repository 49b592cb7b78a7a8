package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/scholardist/internal/engine"
	"github.com/stemsi/scholardist/internal/model"
)

// ledgerLockKey is the advisory lock every ledger transaction takes, so
// engine operations are serialised across all server replicas.
const ledgerLockKey int64 = 0x5C401A25

// LedgerRepository is the PostgreSQL-backed engine.Store.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// InTx runs fn inside one database transaction holding the ledger lock.
func (r *LedgerRepository) InTx(ctx context.Context, fn func(tx engine.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	if err := fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type ledgerTx struct {
	tx pgx.Tx
}

const programColumns = `id, name, award, min_score, total_seats, required_attendance,
	required_academic, active, balance, seats_filled, created_by, created_at, updated_at`

func scanProgram(row pgx.Row, p *model.Program) error {
	return row.Scan(&p.ID, &p.Name, &p.Award, &p.MinScore, &p.TotalSeats, &p.RequiredAttendance,
		&p.RequiredAcademic, &p.Active, &p.Balance, &p.SeatsFilled, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
}

// CreateProgram allocates MAX(id)+1 under the ledger lock so ids stay dense
// even when earlier transactions rolled back.
func (t *ledgerTx) CreateProgram(ctx context.Context, p *model.Program) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO programs (id, name, award, min_score, total_seats, required_attendance,
		                       required_academic, active, balance, created_by)
		 SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4, $5, $6, $7, $8, $9 FROM programs
		 RETURNING id, seats_filled, created_at, updated_at`,
		p.Name, p.Award, p.MinScore, p.TotalSeats, p.RequiredAttendance,
		p.RequiredAcademic, p.Active, p.Balance, p.CreatedBy,
	).Scan(&p.ID, &p.SeatsFilled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert program: %w", err)
	}

	if p.Balance > 0 {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO program_fundings (program_id, amount) VALUES ($1, $2)`, p.ID, p.Balance); err != nil {
			return fmt.Errorf("record deposit: %w", err)
		}
	}
	return nil
}

func (t *ledgerTx) GetProgram(ctx context.Context, id int64) (*model.Program, error) {
	p := &model.Program{}
	err := scanProgram(t.tx.QueryRow(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (t *ledgerTx) ListPrograms(ctx context.Context) ([]model.Program, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+programColumns+` FROM programs ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var programs []model.Program
	for rows.Next() {
		var p model.Program
		if err := scanProgram(rows, &p); err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

func (t *ledgerTx) SetProgramActive(ctx context.Context, id int64, active bool) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE programs SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (t *ledgerTx) CreditProgram(ctx context.Context, id, amount int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE programs SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, amount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO program_fundings (program_id, amount) VALUES ($1, $2)`, id, amount)
	return err
}

// DebitProgram is a single conditional update, so a failed debit leaves the
// transaction usable.
func (t *ledgerTx) DebitProgram(ctx context.Context, id, amount int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE programs SET balance = balance - $1, updated_at = NOW()
		 WHERE id = $2 AND balance >= $1`, amount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrInsufficientFunds
	}
	return nil
}

// PutApplication inserts the application; a conflicting (program, identity)
// pair yields no row and maps to ErrDuplicateApplication.
func (t *ledgerTx) PutApplication(ctx context.Context, a *model.Application) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO applications (program_id, identity, student_name, reg_number, college, course,
		                           attendance_percent, academic_mark, score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (program_id, identity) DO NOTHING
		 RETURNING seq, received, created_at`,
		a.ProgramID, a.Identity, a.StudentName, a.RegNumber, a.College, a.Course,
		a.AttendancePercent, a.AcademicMark, a.Score,
	).Scan(&a.Seq, &a.Received, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return engine.ErrDuplicateApplication
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

const applicationColumns = `seq, program_id, identity, student_name, reg_number, college, course,
	attendance_percent, academic_mark, score, received, received_at, created_at`

func scanApplication(row pgx.Row, a *model.Application) error {
	return row.Scan(&a.Seq, &a.ProgramID, &a.Identity, &a.StudentName, &a.RegNumber, &a.College, &a.Course,
		&a.AttendancePercent, &a.AcademicMark, &a.Score, &a.Received, &a.ReceivedAt, &a.CreatedAt)
}

func (t *ledgerTx) GetApplication(ctx context.Context, programID int64, identity string) (*model.Application, error) {
	a := &model.Application{}
	err := scanApplication(t.tx.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE program_id = $1 AND identity = $2`,
		programID, identity), a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (t *ledgerTx) ListApplications(ctx context.Context, programID int64) ([]model.Application, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE program_id = $1 ORDER BY seq ASC`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		var a model.Application
		if err := scanApplication(rows, &a); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// MarkReceived flips the flag only while it is still false and records the
// payout; the programs CHECK constraint guards seats_filled.
func (t *ledgerTx) MarkReceived(ctx context.Context, programID int64, identity string, amount int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE applications SET received = TRUE, received_at = NOW()
		 WHERE program_id = $1 AND identity = $2 AND received = FALSE`, programID, identity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	if _, err := t.tx.Exec(ctx,
		`UPDATE programs SET seats_filled = seats_filled + 1, updated_at = NOW() WHERE id = $1`,
		programID); err != nil {
		return fmt.Errorf("fill seat: %w", err)
	}
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO disbursements (program_id, identity, amount) VALUES ($1, $2, $3)`,
		programID, identity, amount); err != nil {
		return fmt.Errorf("record disbursement: %w", err)
	}
	return nil
}
