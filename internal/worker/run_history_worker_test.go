package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunStore struct {
	mu        sync.Mutex
	saved     []*model.Report
	failBatch bool
	failOne   uuid.UUID
}

func (f *fakeRunStore) InsertBatch(_ context.Context, reports []*model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBatch {
		return errors.New("batch rejected")
	}
	f.saved = append(f.saved, reports...)
	return nil
}

func (f *fakeRunStore) Insert(_ context.Context, rep *model.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rep.RunID == f.failOne {
		return errors.New("row rejected")
	}
	f.saved = append(f.saved, rep)
	return nil
}

func (f *fakeRunStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func pushReport(t *testing.T, rdb *redis.Client, rep *model.Report) {
	t.Helper()
	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.SelectionRunsQueue, raw).Err())
}

func TestRunHistoryWorker_DrainsQueue(t *testing.T) {
	rdb := newTestRedis(t)
	store := &fakeRunStore{}
	w := NewRunHistoryWorker(store, rdb, zerolog.Nop())

	for i := 0; i < 3; i++ {
		pushReport(t, rdb, &model.Report{RunID: uuid.New(), ProgramID: 1, Outcome: model.RunOutcomeNoop})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.count() == 3 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	<-done
}

func TestRunHistoryWorker_FallbackRequeuesRejectedRow(t *testing.T) {
	rdb := newTestRedis(t)
	bad := uuid.New()
	store := &fakeRunStore{failBatch: true, failOne: bad}
	w := NewRunHistoryWorker(store, rdb, zerolog.Nop())

	batch := []*model.Report{
		{RunID: uuid.New(), ProgramID: 1, Outcome: model.RunOutcomeCompleted},
		{RunID: bad, ProgramID: 1, Outcome: model.RunOutcomePartial},
	}
	w.flushSafe(context.Background(), batch)

	assert.Equal(t, 1, store.count())

	raw, err := rdb.LRange(context.Background(), config.WorkerKey.SelectionRunsQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, raw, 1)

	var requeued model.Report
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &requeued))
	assert.Equal(t, bad, requeued.RunID)
}

func TestRunHistoryWorker_SkipsInvalidPayload(t *testing.T) {
	rdb := newTestRedis(t)
	w := NewRunHistoryWorker(&fakeRunStore{}, rdb, zerolog.Nop())

	require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.SelectionRunsQueue, "{not json").Err())

	rep, ok := w.poll(context.Background())
	assert.False(t, ok)
	assert.Nil(t, rep)
}
