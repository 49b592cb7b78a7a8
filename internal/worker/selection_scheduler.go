package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/model"
)

// SelectionRunner is the slice of the scholarship service the scheduler needs.
type SelectionRunner interface {
	ListPrograms(ctx context.Context) ([]model.Program, error)
	RunSelection(ctx context.Context, caller string, programID int64) (*model.Report, error)
	Administrator() string
}

// SelectionScheduler periodically re-runs selection for every active program
// on behalf of the administrator. Repeated runs only pay newly qualifying
// applicants, so the schedule can be as tight as operators like.
type SelectionScheduler struct {
	runner  SelectionRunner
	cron    *cron.Cron
	timeout time.Duration
	log     zerolog.Logger
}

// NewSelectionScheduler validates spec (standard 5-field cron syntax or a
// descriptor such as "@every 10m").
func NewSelectionScheduler(runner SelectionRunner, spec string, log zerolog.Logger) (*SelectionScheduler, error) {
	s := &SelectionScheduler{
		runner:  runner,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: time.Minute,
		log:     log.With().Str("component", "selection_scheduler").Logger(),
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parse selection schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled.
func (s *SelectionScheduler) Start(ctx context.Context) {
	s.log.Info().Msg("SelectionScheduler started")
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("SelectionScheduler stopped")
}

// RunOnce runs selection for each active program and returns the reports.
// A failing program is logged and skipped.
func (s *SelectionScheduler) RunOnce(ctx context.Context) []*model.Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	programs, err := s.runner.ListPrograms(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("List programs failed")
		return nil
	}

	admin := s.runner.Administrator()
	var reports []*model.Report
	for _, p := range programs {
		if !p.Active || p.SeatsLeft() == 0 {
			continue
		}
		rep, err := s.runner.RunSelection(ctx, admin, p.ID)
		if err != nil {
			s.log.Warn().Err(err).Int64("program_id", p.ID).Msg("Scheduled selection failed")
			continue
		}
		reports = append(reports, rep)
	}

	s.log.Debug().Int("programs", len(programs)).Int("runs", len(reports)).Msg("Scheduled selection pass done")
	return reports
}
