package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/engine"
	"github.com/stemsi/scholardist/internal/metrics"
	"github.com/stemsi/scholardist/internal/model"
	"github.com/stemsi/scholardist/internal/response"
	ws "github.com/stemsi/scholardist/internal/websocket"
)

// RunHistory reads persisted selection reports.
type RunHistory interface {
	ListByProgram(ctx context.Context, programID int64, limit, offset int) ([]model.Report, int, error)
}

// ScholarshipService wraps the engine with read caches, the live feed and
// run history. The engine stays the only writer of the ledger; Redis
// failures after a committed write are logged and never undo it.
type ScholarshipService struct {
	engine   *engine.Engine
	runs     RunHistory
	rdb      *redis.Client
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewScholarshipService creates a new ScholarshipService.
func NewScholarshipService(
	eng *engine.Engine,
	runs RunHistory,
	rdb *redis.Client,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *ScholarshipService {
	return &ScholarshipService{
		engine:   eng,
		runs:     runs,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "scholarship_service").Logger(),
	}
}

func (s *ScholarshipService) Administrator() string {
	return s.engine.Administrator()
}

func (s *ScholarshipService) IsAdmin(caller string) bool {
	return s.engine.IsAdmin(caller)
}

// ─── Programs ───────────────────────────────────────────────────────

// AddProgram registers a new program.
func (s *ScholarshipService) AddProgram(ctx context.Context, caller string, spec model.ProgramSpec) (*model.Program, error) {
	p, err := s.engine.AddProgram(ctx, caller, spec)
	if err != nil {
		return nil, err
	}
	s.afterProgramChange(ctx, p)
	return p, nil
}

// FundProgram tops up a program's escrow balance.
func (s *ScholarshipService) FundProgram(ctx context.Context, caller string, programID, amount int64) (*model.Program, error) {
	p, err := s.engine.FundProgram(ctx, caller, programID, amount)
	if err != nil {
		return nil, err
	}
	s.afterProgramChange(ctx, p)
	return p, nil
}

// DeactivateProgram closes a program to new applications.
func (s *ScholarshipService) DeactivateProgram(ctx context.Context, caller string, programID int64) (*model.Program, error) {
	p, err := s.engine.DeactivateProgram(ctx, caller, programID)
	if err != nil {
		return nil, err
	}
	s.afterProgramChange(ctx, p)
	return p, nil
}

func (s *ScholarshipService) GetProgram(ctx context.Context, programID int64) (*model.Program, error) {
	return s.engine.GetProgram(ctx, programID)
}

// ListPrograms serves the program list from Redis when cached.
func (s *ScholarshipService) ListPrograms(ctx context.Context) ([]model.Program, error) {
	key := config.CacheKey.ProgramListKey()

	var cached []model.Program
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	programs, err := s.engine.ListPrograms(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, programs)
	return programs, nil
}

func (s *ScholarshipService) afterProgramChange(ctx context.Context, p *model.Program) {
	s.invalidate(ctx, config.CacheKey.ProgramListKey())
	s.publish(ctx, ws.FeedEvent{Event: ws.EventProgramUpdated, ProgramID: p.ID, Data: p})
}

// ─── Applications ───────────────────────────────────────────────────

// Apply submits caller's application to a program.
func (s *ScholarshipService) Apply(ctx context.Context, programID int64, caller string, details model.ApplicationDetails) (*model.Application, error) {
	app, err := s.engine.Apply(ctx, programID, caller, details)
	metrics.RecordApplication(applicationResult(err))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ws.FeedEvent{
		Event:     ws.EventApplicationReceived,
		ProgramID: programID,
		Data:      ws.ApplicationReceivedData{Identity: app.Identity, Score: app.Score},
	})
	return app, nil
}

func applicationResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, engine.ErrIneligible):
		return "ineligible"
	case errors.Is(err, engine.ErrDuplicateApplication):
		return "duplicate"
	case errors.Is(err, engine.ErrProgramInactive):
		return "inactive"
	case errors.Is(err, engine.ErrNotFound):
		return "not_found"
	case errors.Is(err, engine.ErrInvalidApplication), errors.Is(err, engine.ErrInvalidIdentity):
		return "invalid"
	default:
		return "error"
	}
}

func (s *ScholarshipService) ListApplications(ctx context.Context, programID int64) ([]model.Application, error) {
	return s.engine.ListApplications(ctx, programID)
}

// ListWinners serves a program's paid applications from Redis when cached.
func (s *ScholarshipService) ListWinners(ctx context.Context, programID int64) ([]model.Application, error) {
	key := config.CacheKey.ProgramWinnersKey(programID)

	var cached []model.Application
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	winners, err := s.engine.ListWinners(ctx, programID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, winners)
	return winners, nil
}

// ─── Selection ──────────────────────────────────────────────────────

// RunSelection runs selection, then announces the report and queues it for
// the run history.
func (s *ScholarshipService) RunSelection(ctx context.Context, caller string, programID int64) (*model.Report, error) {
	start := time.Now()
	rep, err := s.engine.RunSelection(ctx, caller, programID)
	if err != nil {
		return nil, err
	}
	metrics.RecordSelection(rep, time.Since(start))

	if len(rep.Paid) > 0 {
		s.invalidate(ctx,
			config.CacheKey.ProgramListKey(),
			config.CacheKey.ProgramWinnersKey(programID),
		)
	}
	s.publish(ctx, ws.FeedEvent{Event: ws.EventSelectionCompleted, ProgramID: programID, Data: rep})
	s.enqueueRun(ctx, rep)
	return rep, nil
}

// ListRuns returns persisted selection reports, newest first.
func (s *ScholarshipService) ListRuns(ctx context.Context, programID int64, page, perPage int) ([]model.Report, *response.Pagination, error) {
	if _, err := s.engine.GetProgram(ctx, programID); err != nil {
		return nil, nil, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	runs, total, err := s.runs.ListByProgram(ctx, programID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list selection runs: %w", err)
	}

	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	return runs, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (s *ScholarshipService) enqueueRun(ctx context.Context, rep *model.Report) {
	raw, err := json.Marshal(rep)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal report failed")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.SelectionRunsQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Str("run_id", rep.RunID.String()).Msg("Queue selection run failed")
	}
}

// ─── Redis helpers ──────────────────────────────────────────────────

func (s *ScholarshipService) cacheGet(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Corrupt cache entry")
		return false
	}
	return true
}

func (s *ScholarshipService) cacheSet(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func (s *ScholarshipService) invalidate(ctx context.Context, keys ...string) {
	pipe := s.rdb.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("Cache invalidation failed")
	}
}

func (s *ScholarshipService) publish(ctx context.Context, ev ws.FeedEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	channel := config.CacheKey.ProgramEventsChannel(ev.ProgramID)
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("Publish feed event failed")
	}
}
