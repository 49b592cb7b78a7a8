package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/model"
)

const (
	RunBatchSize    = 50
	RunBatchTimeout = 2 * time.Second
	RunPollTimeout  = 1 * time.Second
)

// RunStore persists selection reports.
type RunStore interface {
	InsertBatch(ctx context.Context, reports []*model.Report) error
	Insert(ctx context.Context, rep *model.Report) error
}

// RunHistoryWorker drains the selection report queue into the run history.
type RunHistoryWorker struct {
	runs RunStore
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewRunHistoryWorker(runs RunStore, rdb *redis.Client, log zerolog.Logger) *RunHistoryWorker {
	return &RunHistoryWorker{
		runs: runs,
		rdb:  rdb,
		log:  log.With().Str("component", "run_history_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *RunHistoryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("RunHistoryWorker started")

	batch := make([]*model.Report, 0, RunBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= RunBatchSize || time.Since(lastFlush) >= RunBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			rep, ok := w.poll(ctx)
			if ok {
				batch = append(batch, rep)
			}
		}
	}
}

func (w *RunHistoryWorker) poll(ctx context.Context) (*model.Report, bool) {
	item, err := w.rdb.BLPop(ctx, RunPollTimeout, config.WorkerKey.SelectionRunsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return nil, false
	}
	if len(item) < 2 {
		return nil, false
	}

	var rep model.Report
	if err := json.Unmarshal([]byte(item[1]), &rep); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return nil, false
	}
	return &rep, true
}

// ----------------------------------------------------------------
// Batch insert with per-row fallback
// ----------------------------------------------------------------

func (w *RunHistoryWorker) flushSafe(ctx context.Context, batch []*model.Report) {
	if len(batch) == 0 {
		return
	}

	if err := w.runs.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk run insert failed, using fallback")

		for _, rep := range batch {
			if err := w.runs.Insert(ctx, rep); err != nil {
				w.log.Error().Err(err).Str("run_id", rep.RunID.String()).Msg("Insert failed, requeueing")
				raw, _ := json.Marshal(rep)
				w.rdb.RPush(ctx, config.WorkerKey.SelectionRunsQueue, raw)
			}
		}
		return
	}

	w.log.Debug().Int("runs", len(batch)).Msg("Selection runs persisted")
}
