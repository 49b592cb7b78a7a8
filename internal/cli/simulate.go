package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stemsi/scholardist/internal/engine"
	"github.com/stemsi/scholardist/internal/model"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of ledger operations.
type Scenario struct {
	Administrator string `yaml:"administrator"`
	Steps         []Step `yaml:"steps"`
}

// Step holds exactly one operation. As overrides the caller, which
// defaults to the administrator (or the applicant for apply).
type Step struct {
	As         string             `yaml:"as,omitempty"`
	AddProgram *model.ProgramSpec `yaml:"add_program,omitempty"`
	Fund       *FundStep          `yaml:"fund,omitempty"`
	Apply      *ApplyStep         `yaml:"apply,omitempty"`
	Run        *ProgramStep       `yaml:"run,omitempty"`
	Deactivate *ProgramStep       `yaml:"deactivate,omitempty"`
}

type ProgramStep struct {
	Program int64 `yaml:"program"`
}

type FundStep struct {
	Program int64 `yaml:"program"`
	Amount  int64 `yaml:"amount"`
}

type ApplyStep struct {
	Program  int64                    `yaml:"program"`
	Identity string                   `yaml:"identity"`
	Details  model.ApplicationDetails `yaml:",inline"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Index  int    `json:"index"`
	Op     string `json:"op"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// SimulationResult is the full output of simulate.
type SimulationResult struct {
	Steps    []StepResult    `json:"steps"`
	Programs []model.Program `json:"programs"`
	Failures int             `json:"failures"`
}

var errBadStep = errors.New("step must set exactly one operation")

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a scenario against an in-memory ledger",
		Long: `Replay a YAML scenario against an in-memory ledger and print the result of
every step followed by the final program states. Rejected steps are reported
and the scenario carries on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}

			log := commandLogger(rootOpts, cmd.ErrOrStderr())
			res, err := Simulate(cmd.Context(), sc, log)
			if err != nil {
				return err
			}

			if err := emit(cmd.OutOrStdout(), rootOpts.Format, res, func(w io.Writer) error {
				return renderSimulation(w, res)
			}); err != nil {
				return err
			}
			if strict && res.Failures > 0 {
				return fmt.Errorf("%d step(s) failed", res.Failures)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any step fails")

	return cmd
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &sc, nil
}

// Simulate runs sc on a fresh in-memory ledger.
func Simulate(ctx context.Context, sc *Scenario, log zerolog.Logger) (*SimulationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	eng, err := engine.New(engine.NewMemoryStore(), sc.Administrator, log)
	if err != nil {
		return nil, fmt.Errorf("administrator: %w", err)
	}

	res := &SimulationResult{Steps: make([]StepResult, 0, len(sc.Steps))}
	for i, step := range sc.Steps {
		sr := runStep(ctx, eng, step)
		sr.Index = i + 1
		if !sr.OK {
			res.Failures++
		}
		res.Steps = append(res.Steps, sr)
	}

	programs, err := eng.ListPrograms(ctx)
	if err != nil {
		return nil, err
	}
	res.Programs = programs
	return res, nil
}

func runStep(ctx context.Context, eng *engine.Engine, s Step) StepResult {
	caller := s.As
	if caller == "" {
		caller = eng.Administrator()
	}

	var (
		op     string
		result any
		err    error
		ops    int
	)
	if s.AddProgram != nil {
		ops++
		op = "add_program"
		result, err = eng.AddProgram(ctx, caller, *s.AddProgram)
	}
	if s.Fund != nil {
		ops++
		op = "fund"
		result, err = eng.FundProgram(ctx, caller, s.Fund.Program, s.Fund.Amount)
	}
	if s.Apply != nil {
		ops++
		op = "apply"
		applicant := s.Apply.Identity
		if s.As != "" {
			applicant = s.As
		}
		result, err = eng.Apply(ctx, s.Apply.Program, applicant, s.Apply.Details)
	}
	if s.Run != nil {
		ops++
		op = "run"
		result, err = eng.RunSelection(ctx, caller, s.Run.Program)
	}
	if s.Deactivate != nil {
		ops++
		op = "deactivate"
		result, err = eng.DeactivateProgram(ctx, caller, s.Deactivate.Program)
	}

	if ops != 1 {
		return StepResult{Op: "invalid", Error: errBadStep.Error()}
	}
	if err != nil {
		return StepResult{Op: op, Error: err.Error()}
	}
	return StepResult{Op: op, OK: true, Result: result}
}

func renderSimulation(w io.Writer, res *SimulationResult) error {
	for _, s := range res.Steps {
		if err := textLine(w, "%3d  %-12s %s", s.Index, s.Op, summarize(s)); err != nil {
			return err
		}
	}
	if err := textLine(w, ""); err != nil {
		return err
	}
	for _, p := range res.Programs {
		if err := textLine(w, "program %d %q active=%t balance=%d seats=%d/%d",
			p.ID, p.Name, p.Active, p.Balance, p.SeatsFilled, p.TotalSeats); err != nil {
			return err
		}
	}
	return nil
}

func summarize(s StepResult) string {
	if !s.OK {
		return "error: " + s.Error
	}
	switch r := s.Result.(type) {
	case *model.Program:
		return fmt.Sprintf("program %d balance=%d", r.ID, r.Balance)
	case *model.Application:
		return fmt.Sprintf("%s score=%d", r.Identity, r.Score)
	case *model.Report:
		return fmt.Sprintf("%s paid=%d failed=%d amount=%d", r.Outcome, len(r.Paid), len(r.Failed), r.AmountDisbursed)
	default:
		return "ok"
	}
}
