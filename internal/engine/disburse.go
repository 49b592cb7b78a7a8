package engine

import (
	"context"
	"fmt"

	"github.com/stemsi/scholardist/internal/model"
)

// Transferer moves value from a program to a recipient. A transfer either
// fully succeeds or fails without writing anything.
type Transferer interface {
	Transfer(ctx context.Context, tx Tx, p *model.Program, recipient string, amount int64) error
}

// EscrowTransferer pays awards out of the program's own escrow balance.
type EscrowTransferer struct{}

// Transfer debits the program balance.
func (EscrowTransferer) Transfer(ctx context.Context, tx Tx, p *model.Program, _ string, amount int64) error {
	return tx.DebitProgram(ctx, p.ID, amount)
}

// Disburse pays winners in order. Already-paid winners are skipped. The first
// failed transfer stops the run: that winner and every later one are reported
// as failed while earlier payouts stand. Only ledger errors abort the whole
// unit of work.
func Disburse(ctx context.Context, tx Tx, t Transferer, p *model.Program, winners []model.Application, report *model.Report) error {
	for i, w := range winners {
		current, err := tx.GetApplication(ctx, p.ID, w.Identity)
		if err != nil {
			return fmt.Errorf("load winner %s: %w", w.Identity, err)
		}
		if current.Received {
			continue
		}

		if err := t.Transfer(ctx, tx, p, w.Identity, p.Award); err != nil {
			for _, rest := range winners[i:] {
				report.Failed = append(report.Failed, rest.Identity)
			}
			report.FailureReason = fmt.Sprintf("transfer to %s: %v", w.Identity, err)
			report.Outcome = model.RunOutcomePartial
			return nil
		}

		if err := tx.MarkReceived(ctx, p.ID, w.Identity, p.Award); err != nil {
			return fmt.Errorf("mark received %s: %w", w.Identity, err)
		}
		report.Paid = append(report.Paid, w.Identity)
		report.AmountDisbursed += p.Award
	}
	return nil
}
