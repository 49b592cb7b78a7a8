// Package engine is the scholarship allocation and disbursement core: it
// owns program and application records, enforces eligibility and
// authorisation, ranks applicants and pays winners exactly once.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/identity"
	"github.com/stemsi/scholardist/internal/model"
)

// Engine is the facade over the ledger. Public operations run one at a time,
// each inside a single Store transaction.
type Engine struct {
	mu       sync.Mutex
	store    Store
	access   AccessController
	transfer Transferer
	now      func() time.Time
	log      zerolog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithTransferer replaces the default escrow transferer.
func WithTransferer(t Transferer) Option {
	return func(e *Engine) { e.transfer = t }
}

// WithClock overrides the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine whose administrator is fixed to admin.
func New(store Store, admin string, log zerolog.Logger, opts ...Option) (*Engine, error) {
	access, err := NewAccessController(admin)
	if err != nil {
		return nil, fmt.Errorf("administrator identity: %w", err)
	}

	e := &Engine{
		store:    store,
		access:   access,
		transfer: EscrowTransferer{},
		now:      time.Now,
		log:      log.With().Str("component", "engine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Administrator returns the canonical administrator identity.
func (e *Engine) Administrator() string {
	return e.access.Administrator()
}

// IsAdmin reports whether caller is the administrator.
func (e *Engine) IsAdmin(caller string) bool {
	canon, err := identity.Normalize(caller)
	if err != nil {
		return false
	}
	return e.access.IsAdmin(canon)
}

func (e *Engine) run(ctx context.Context, fn func(tx Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.InTx(ctx, fn)
}

func canonical(caller string) (string, error) {
	canon, err := identity.Normalize(caller)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return canon, nil
}

// AddProgram creates an active program. Administrator only.
func (e *Engine) AddProgram(ctx context.Context, caller string, spec model.ProgramSpec) (*model.Program, error) {
	caller, err := canonical(caller)
	if err != nil {
		return nil, err
	}
	if err := e.access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	spec.Name = strings.TrimSpace(spec.Name)
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	p := &model.Program{
		Name:               spec.Name,
		Award:              spec.Award,
		MinScore:           spec.MinScore,
		TotalSeats:         spec.TotalSeats,
		RequiredAttendance: spec.RequiredAttendance,
		RequiredAcademic:   spec.RequiredAcademic,
		Active:             true,
		Balance:            spec.Deposit,
		CreatedBy:          caller,
	}
	err = e.run(ctx, func(tx Tx) error {
		return tx.CreateProgram(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Int64("program_id", p.ID).Str("name", p.Name).Msg("Program created")
	return p, nil
}

func validateSpec(spec model.ProgramSpec) error {
	fields := map[string]string{}
	if spec.Name == "" {
		fields["name"] = "is required"
	}
	if spec.Award < 0 {
		fields["award"] = "must not be negative"
	}
	if spec.TotalSeats < 1 {
		fields["total_seats"] = "must be at least 1"
	}
	if spec.MinScore < 0 || spec.MinScore > 100 {
		fields["min_score"] = "must be between 0 and 100"
	}
	if spec.RequiredAttendance < 0 || spec.RequiredAttendance > 100 {
		fields["required_attendance"] = "must be between 0 and 100"
	}
	if spec.RequiredAcademic < 0 || spec.RequiredAcademic > 100 {
		fields["required_academic"] = "must be between 0 and 100"
	}
	if spec.Deposit < 0 {
		fields["deposit"] = "must not be negative"
	}
	if len(fields) > 0 {
		return &ValidationError{Kind: ErrInvalidProgram, Fields: fields}
	}
	return nil
}

// FundProgram adds amount to a program's escrow balance. Administrator only.
func (e *Engine) FundProgram(ctx context.Context, caller string, programID, amount int64) (*model.Program, error) {
	caller, err := canonical(caller)
	if err != nil {
		return nil, err
	}
	if err := e.access.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var p *model.Program
	err = e.run(ctx, func(tx Tx) error {
		current, err := tx.GetProgram(ctx, programID)
		if err != nil {
			return err
		}
		if amount > math.MaxInt64-current.Balance {
			return ErrInvalidAmount
		}
		if err := tx.CreditProgram(ctx, programID, amount); err != nil {
			return err
		}
		p, err = tx.GetProgram(ctx, programID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Int64("program_id", programID).Int64("amount", amount).Int64("balance", p.Balance).Msg("Program funded")
	return p, nil
}

// DeactivateProgram stops a program from accepting applications.
// Administrator only; deactivating an inactive program is a no-op.
func (e *Engine) DeactivateProgram(ctx context.Context, caller string, programID int64) (*model.Program, error) {
	caller, err := canonical(caller)
	if err != nil {
		return nil, err
	}
	if err := e.access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	var p *model.Program
	err = e.run(ctx, func(tx Tx) error {
		p, err = tx.GetProgram(ctx, programID)
		if err != nil || !p.Active {
			return err
		}
		if err := tx.SetProgramActive(ctx, programID, false); err != nil {
			return err
		}
		p.Active = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProgram returns one program.
func (e *Engine) GetProgram(ctx context.Context, programID int64) (*model.Program, error) {
	var p *model.Program
	err := e.run(ctx, func(tx Tx) (err error) {
		p, err = tx.GetProgram(ctx, programID)
		return err
	})
	return p, err
}

// ListPrograms returns every program ordered by id.
func (e *Engine) ListPrograms(ctx context.Context) ([]model.Program, error) {
	var out []model.Program
	err := e.run(ctx, func(tx Tx) (err error) {
		out, err = tx.ListPrograms(ctx)
		return err
	})
	return out, err
}

// Apply records caller's application to a program after the eligibility
// gate. Rejected submissions leave no trace.
func (e *Engine) Apply(ctx context.Context, programID int64, caller string, details model.ApplicationDetails) (*model.Application, error) {
	caller, err := canonical(caller)
	if err != nil {
		return nil, err
	}
	details = details.Normalize()
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	app := &model.Application{
		ProgramID:         programID,
		Identity:          caller,
		StudentName:       details.StudentName,
		RegNumber:         details.RegNumber,
		College:           details.College,
		Course:            details.Course,
		AttendancePercent: details.AttendancePercent,
		AcademicMark:      details.AcademicMark,
		Score:             Score(details.AttendancePercent, details.AcademicMark),
	}

	err = e.run(ctx, func(tx Tx) error {
		p, err := tx.GetProgram(ctx, programID)
		if err != nil {
			return err
		}
		if err := RequireProgramActive(p); err != nil {
			return err
		}
		_, err = tx.GetApplication(ctx, programID, caller)
		switch {
		case err == nil:
			return ErrDuplicateApplication
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("check existing application: %w", err)
		}
		if err := Evaluate(p, details.AttendancePercent, details.AcademicMark); err != nil {
			return err
		}
		return tx.PutApplication(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int64("program_id", programID).
		Str("identity", caller).
		Int("score", app.Score).
		Msg("Application accepted")
	return app, nil
}

func validateDetails(d model.ApplicationDetails) error {
	fields := map[string]string{}
	for name, v := range map[string]string{
		"student_name": d.StudentName,
		"reg_number":   d.RegNumber,
		"college":      d.College,
		"course":       d.Course,
	} {
		if v == "" {
			fields[name] = "is required"
		}
	}
	if d.AttendancePercent < 0 || d.AttendancePercent > 100 {
		fields["attendance_percent"] = "must be between 0 and 100"
	}
	if d.AcademicMark < 0 || d.AcademicMark > 100 {
		fields["academic_mark"] = "must be between 0 and 100"
	}
	if len(fields) > 0 {
		return &ValidationError{Kind: ErrInvalidApplication, Fields: fields}
	}
	return nil
}

// RunSelection ranks the unpaid pool and pays winners up to the remaining
// capacity. Administrator only. A run that runs out of funds commits the
// payouts made so far and reports the rest as failed.
func (e *Engine) RunSelection(ctx context.Context, caller string, programID int64) (*model.Report, error) {
	caller, err := canonical(caller)
	if err != nil {
		return nil, err
	}
	if err := e.access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	report := &model.Report{
		RunID:       uuid.New(),
		ProgramID:   programID,
		TriggeredBy: caller,
		Paid:        []string{},
		Failed:      []string{},
	}

	err = e.run(ctx, func(tx Tx) error {
		// Reset in case a previous attempt of fn was rolled back mid-way.
		report.Paid, report.Failed = []string{}, []string{}
		report.AmountDisbursed, report.FailureReason, report.Outcome = 0, "", ""

		p, err := tx.GetProgram(ctx, programID)
		if err != nil {
			return err
		}
		apps, err := tx.ListApplications(ctx, programID)
		if err != nil {
			return fmt.Errorf("list applications: %w", err)
		}

		winners := SelectWinners(p, apps)
		if len(winners) == 0 {
			report.Outcome = model.RunOutcomeNoop
			return nil
		}
		if err := Disburse(ctx, tx, e.transfer, p, winners, report); err != nil {
			return err
		}
		if report.Outcome == "" {
			report.Outcome = model.RunOutcomeCompleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.RanAt = e.now().UTC()

	e.log.Info().
		Int64("program_id", programID).
		Str("run_id", report.RunID.String()).
		Str("outcome", string(report.Outcome)).
		Int("paid", len(report.Paid)).
		Int("failed", len(report.Failed)).
		Int64("amount", report.AmountDisbursed).
		Msg("Selection run finished")
	return report, nil
}

// ListApplications returns a program's applications in submission order.
func (e *Engine) ListApplications(ctx context.Context, programID int64) ([]model.Application, error) {
	var out []model.Application
	err := e.run(ctx, func(tx Tx) error {
		if _, err := tx.GetProgram(ctx, programID); err != nil {
			return err
		}
		apps, err := tx.ListApplications(ctx, programID)
		out = apps
		return err
	})
	return out, err
}

// ListWinners returns the paid applications of a program.
func (e *Engine) ListWinners(ctx context.Context, programID int64) ([]model.Application, error) {
	apps, err := e.ListApplications(ctx, programID)
	if err != nil {
		return nil, err
	}
	winners := make([]model.Application, 0, len(apps))
	for _, a := range apps {
		if a.Received {
			winners = append(winners, a)
		}
	}
	return winners, nil
}
