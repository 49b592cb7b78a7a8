package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	programs []model.Program
	failFor  int64
	calls    []int64
	callers  []string
}

func (f *fakeRunner) ListPrograms(context.Context) ([]model.Program, error) {
	return f.programs, nil
}

func (f *fakeRunner) RunSelection(_ context.Context, caller string, programID int64) (*model.Report, error) {
	f.calls = append(f.calls, programID)
	f.callers = append(f.callers, caller)
	if programID == f.failFor {
		return nil, errors.New("boom")
	}
	return &model.Report{ProgramID: programID, Outcome: model.RunOutcomeNoop}, nil
}

func (f *fakeRunner) Administrator() string { return "0xadmin" }

func TestSelectionScheduler_RunOnce(t *testing.T) {
	runner := &fakeRunner{
		programs: []model.Program{
			{ID: 1, Active: true, TotalSeats: 2},
			{ID: 2, Active: false, TotalSeats: 2},
			{ID: 3, Active: true, TotalSeats: 1, SeatsFilled: 1},
			{ID: 4, Active: true, TotalSeats: 3},
			{ID: 5, Active: true, TotalSeats: 3},
		},
		failFor: 4,
	}
	s, err := NewSelectionScheduler(runner, "@every 1h", zerolog.Nop())
	require.NoError(t, err)

	reports := s.RunOnce(context.Background())

	assert.Equal(t, []int64{1, 4, 5}, runner.calls)
	for _, c := range runner.callers {
		assert.Equal(t, "0xadmin", c)
	}
	require.Len(t, reports, 2)
	assert.Equal(t, int64(1), reports[0].ProgramID)
	assert.Equal(t, int64(5), reports[1].ProgramID)
}

func TestNewSelectionScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewSelectionScheduler(&fakeRunner{}, "not a schedule", zerolog.Nop())
	assert.Error(t, err)
}
