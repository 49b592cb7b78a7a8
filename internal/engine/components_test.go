package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/scholardist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		attendance, academic, want int
	}{
		{90, 90, 90},
		{85, 80, 82},
		{80, 80, 80},
		{0, 0, 0},
		{100, 100, 100},
		{100, 0, 40},
		{0, 100, 60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.attendance, tt.academic), "score(%d,%d)", tt.attendance, tt.academic)
	}
}

func TestScore_Monotonic(t *testing.T) {
	for att := 0; att <= 100; att++ {
		for acad := 0; acad <= 100; acad++ {
			s := Score(att, acad)
			if att < 100 {
				require.LessOrEqual(t, s, Score(att+1, acad))
			}
			if acad < 100 {
				require.LessOrEqual(t, s, Score(att, acad+1))
			}
		}
	}
}

func TestEvaluate(t *testing.T) {
	p := &model.Program{RequiredAttendance: 80, RequiredAcademic: 70}

	assert.NoError(t, Evaluate(p, 80, 70))
	assert.NoError(t, Evaluate(p, 100, 100))

	err := Evaluate(p, 79, 69)
	require.ErrorIs(t, err, ErrIneligible)
	var ie *IneligibleError
	require.True(t, errors.As(err, &ie))
	assert.Len(t, ie.Reasons, 2)

	cases := []struct {
		name                 string
		attendance, academic int
	}{
		{name: "academic one below", attendance: 80, academic: 69},
		{name: "attendance one below", attendance: 79, academic: 70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Evaluate(p, tc.attendance, tc.academic)
			require.ErrorIs(t, err, ErrIneligible)
			var ie *IneligibleError
			require.True(t, errors.As(err, &ie))
			assert.Len(t, ie.Reasons, 1)
		})
	}
}

func TestRequireProgramActive(t *testing.T) {
	assert.NoError(t, RequireProgramActive(&model.Program{Active: true}))
	assert.ErrorIs(t, RequireProgramActive(&model.Program{}), ErrProgramInactive)
}

func TestSelectWinners(t *testing.T) {
	p := &model.Program{ID: 1, TotalSeats: 3, SeatsFilled: 1, MinScore: 60}
	apps := []model.Application{
		{ProgramID: 1, Identity: "paid", Score: 99, Seq: 1, Received: true},
		{ProgramID: 1, Identity: "low", Score: 59, Seq: 2},
		{ProgramID: 1, Identity: "late-tie", Score: 75, Seq: 5},
		{ProgramID: 1, Identity: "early-tie", Score: 75, Seq: 3},
		{ProgramID: 1, Identity: "top", Score: 88, Seq: 4},
		{ProgramID: 2, Identity: "other", Score: 100, Seq: 6},
	}

	got := SelectWinners(p, apps)
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.Identity
	}
	assert.Equal(t, []string{"top", "early-tie"}, ids)
}

func TestSelectWinners_NoCapacity(t *testing.T) {
	p := &model.Program{ID: 1, TotalSeats: 1, SeatsFilled: 1}
	got := SelectWinners(p, []model.Application{{ProgramID: 1, Identity: "x", Score: 100}})
	assert.Empty(t, got)
}

func TestMemoryStore_RollbackUndoesAllWrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	require.NoError(t, s.InTx(ctx, func(tx Tx) error {
		return tx.CreateProgram(ctx, &model.Program{Name: "kept", TotalSeats: 1, Active: true, Balance: 10})
	}))

	err := s.InTx(ctx, func(tx Tx) error {
		if err := tx.CreateProgram(ctx, &model.Program{Name: "dropped", TotalSeats: 1}); err != nil {
			return err
		}
		if err := tx.CreditProgram(ctx, 1, 90); err != nil {
			return err
		}
		if err := tx.SetProgramActive(ctx, 1, false); err != nil {
			return err
		}
		app := &model.Application{ProgramID: 1, Identity: "a"}
		if err := tx.PutApplication(ctx, app); err != nil {
			return err
		}
		if err := tx.DebitProgram(ctx, 1, 50); err != nil {
			return err
		}
		if err := tx.MarkReceived(ctx, 1, "a", 50); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.InTx(ctx, func(tx Tx) error {
		programs, err := tx.ListPrograms(ctx)
		require.NoError(t, err)
		require.Len(t, programs, 1)
		assert.Equal(t, "kept", programs[0].Name)
		assert.True(t, programs[0].Active)
		assert.Equal(t, int64(10), programs[0].Balance)
		assert.Equal(t, 0, programs[0].SeatsFilled)

		apps, err := tx.ListApplications(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, apps)

		_, err = tx.GetApplication(ctx, 1, "a")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))

	// The slot freed by the rollback can be taken again.
	require.NoError(t, s.InTx(ctx, func(tx Tx) error {
		return tx.PutApplication(ctx, &model.Application{ProgramID: 1, Identity: "a"})
	}))
}

func TestMemoryStore_DebitInsufficient(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.InTx(ctx, func(tx Tx) error {
		if err := tx.CreateProgram(ctx, &model.Program{Name: "p", TotalSeats: 1, Balance: 5}); err != nil {
			return err
		}
		return tx.DebitProgram(ctx, 1, 6)
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestMemoryStore_DuplicateApplication(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.InTx(ctx, func(tx Tx) error {
		return tx.CreateProgram(ctx, &model.Program{Name: "p", TotalSeats: 1})
	}))
	require.NoError(t, s.InTx(ctx, func(tx Tx) error {
		return tx.PutApplication(ctx, &model.Application{ProgramID: 1, Identity: "a"})
	}))
	err := s.InTx(ctx, func(tx Tx) error {
		return tx.PutApplication(ctx, &model.Application{ProgramID: 1, Identity: "a"})
	})
	require.ErrorIs(t, err, ErrDuplicateApplication)

	err = s.InTx(ctx, func(tx Tx) error {
		return tx.PutApplication(ctx, &model.Application{ProgramID: 2, Identity: "a"})
	})
	require.ErrorIs(t, err, ErrNotFound)
}
