package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/database"
	"github.com/stemsi/scholardist/internal/engine"
	"github.com/stemsi/scholardist/internal/model"
	"github.com/stemsi/scholardist/internal/repository"
)

// SeedResult summarises a seed run.
type SeedResult struct {
	ProgramID  int64 `json:"program_id"`
	Applied    int   `json:"applied"`
	Ineligible int   `json:"ineligible"`
	Failed     int   `json:"failed"`
}

var seedNames = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Lukman Hakim", "Maya Septiana", "Nanda Pratama",
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		applicants int
		spec       model.ProgramSpec
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo program with applicants in the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.AdminIdentity == "" {
				return errors.New("ADMIN_IDENTITY is not set")
			}
			log := commandLogger(rootOpts, cmd.ErrOrStderr())

			ctx := cmd.Context()
			pool, err := database.NewPostgresPool(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			eng, err := engine.New(repository.NewLedgerRepository(pool), cfg.AdminIdentity, log)
			if err != nil {
				return err
			}

			p, err := eng.AddProgram(ctx, cfg.AdminIdentity, spec)
			if err != nil {
				return fmt.Errorf("create program: %w", err)
			}

			res := SeedResult{ProgramID: p.ID}
			for i := 0; i < applicants; i++ {
				_, err := eng.Apply(ctx, p.ID, seedIdentity(p.ID, i), seedDetails(i))
				switch {
				case err == nil:
					res.Applied++
				case errors.Is(err, engine.ErrIneligible):
					res.Ineligible++
				default:
					res.Failed++
					log.Warn().Err(err).Int("applicant", i).Msg("Seed application failed")
				}
			}

			return emit(cmd.OutOrStdout(), rootOpts.Format, res, func(w io.Writer) error {
				return textLine(w, "Seeded program %d: %d applied, %d ineligible, %d failed",
					res.ProgramID, res.Applied, res.Ineligible, res.Failed)
			})
		},
	}

	cmd.Flags().IntVar(&applicants, "applicants", 50, "number of applicants to submit")
	cmd.Flags().StringVar(&spec.Name, "name", "Demo Merit Scholarship "+time.Now().Format("2006-01-02"), "program name")
	cmd.Flags().Int64Var(&spec.Award, "award", 1000, "award per winner")
	cmd.Flags().IntVar(&spec.MinScore, "min-score", 60, "minimum score")
	cmd.Flags().IntVar(&spec.TotalSeats, "seats", 10, "total seats")
	cmd.Flags().IntVar(&spec.RequiredAttendance, "required-attendance", 75, "attendance threshold")
	cmd.Flags().IntVar(&spec.RequiredAcademic, "required-academic", 60, "academic threshold")
	cmd.Flags().Int64Var(&spec.Deposit, "deposit", 10000, "initial escrow deposit")

	return cmd
}

// seedIdentity derives a stable, program-scoped address for applicant i.
func seedIdentity(programID int64, i int) string {
	return fmt.Sprintf("0x%020x%020x", programID, i+1)
}

// seedDetails spreads metrics over 60..100 and 55..100 deterministically.
func seedDetails(i int) model.ApplicationDetails {
	return model.ApplicationDetails{
		StudentName:       seedNames[i%len(seedNames)],
		RegNumber:         fmt.Sprintf("REG-%05d", i+1),
		College:           "Seed College",
		Course:            "General Studies",
		AttendancePercent: 60 + (i*7)%41,
		AcademicMark:      55 + (i*13)%46,
	}
}
