package engine

import (
	"context"

	"github.com/stemsi/scholardist/internal/model"
)

// Store opens atomic units of work over the ledger.
type Store interface {
	// InTx runs fn against a transaction. Writes made through tx are
	// committed only when fn returns nil; otherwise none of them are visible.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the ledger as seen from inside one unit of work.
type Tx interface {
	// CreateProgram assigns the next dense id (starting at 1) and stores p.
	CreateProgram(ctx context.Context, p *model.Program) error
	GetProgram(ctx context.Context, id int64) (*model.Program, error)
	ListPrograms(ctx context.Context) ([]model.Program, error)
	SetProgramActive(ctx context.Context, id int64, active bool) error
	CreditProgram(ctx context.Context, id, amount int64) error
	// DebitProgram fails with ErrInsufficientFunds, writing nothing, when
	// the balance is below amount.
	DebitProgram(ctx context.Context, id, amount int64) error

	// PutApplication fails with ErrDuplicateApplication when the
	// (program, identity) slot is taken.
	PutApplication(ctx context.Context, app *model.Application) error
	GetApplication(ctx context.Context, programID int64, identity string) (*model.Application, error)
	// ListApplications returns a program's applications in insertion order.
	ListApplications(ctx context.Context, programID int64) ([]model.Application, error)
	// MarkReceived flips received to true and records the payout.
	MarkReceived(ctx context.Context, programID int64, identity string, amount int64) error
}
