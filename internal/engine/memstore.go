package engine

import (
	"context"
	"sync"
	"time"

	"github.com/stemsi/scholardist/internal/model"
)

type appKey struct {
	programID int64
	identity  string
}

// MemoryStore is an in-process ledger: programs and applications live in
// flat arenas indexed by id/sequence, with a per-program secondary index
// preserving insertion order.
type MemoryStore struct {
	mu        sync.Mutex
	programs  []model.Program
	apps      []model.Application
	byKey     map[appKey]int
	byProgram map[int64][]int
	now       func() time.Time
}

// NewMemoryStore returns an empty ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:     make(map[appKey]int),
		byProgram: make(map[int64][]int),
		now:       time.Now,
	}
}

// InTx runs fn under the store lock and undoes every write if fn fails.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

type memTx struct {
	s    *MemoryStore
	undo []func()
}

func (t *memTx) program(id int64) (*model.Program, error) {
	if id < 1 || id > int64(len(t.s.programs)) {
		return nil, ErrNotFound
	}
	return &t.s.programs[id-1], nil
}

func (t *memTx) CreateProgram(_ context.Context, p *model.Program) error {
	now := t.s.now()
	p.ID = int64(len(t.s.programs)) + 1
	p.SeatsFilled = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	t.s.programs = append(t.s.programs, *p)
	t.undo = append(t.undo, func() {
		t.s.programs = t.s.programs[:len(t.s.programs)-1]
	})
	return nil
}

func (t *memTx) GetProgram(_ context.Context, id int64) (*model.Program, error) {
	p, err := t.program(id)
	if err != nil {
		return nil, err
	}
	out := *p
	return &out, nil
}

func (t *memTx) ListPrograms(_ context.Context) ([]model.Program, error) {
	out := make([]model.Program, len(t.s.programs))
	copy(out, t.s.programs)
	return out, nil
}

func (t *memTx) SetProgramActive(_ context.Context, id int64, active bool) error {
	p, err := t.program(id)
	if err != nil {
		return err
	}
	prev, prevAt := p.Active, p.UpdatedAt
	p.Active = active
	p.UpdatedAt = t.s.now()
	t.undo = append(t.undo, func() {
		p := &t.s.programs[id-1]
		p.Active, p.UpdatedAt = prev, prevAt
	})
	return nil
}

func (t *memTx) CreditProgram(_ context.Context, id, amount int64) error {
	p, err := t.program(id)
	if err != nil {
		return err
	}
	p.Balance += amount
	t.undo = append(t.undo, func() { t.s.programs[id-1].Balance -= amount })
	return nil
}

func (t *memTx) DebitProgram(_ context.Context, id, amount int64) error {
	p, err := t.program(id)
	if err != nil {
		return err
	}
	if p.Balance < amount {
		return ErrInsufficientFunds
	}
	p.Balance -= amount
	t.undo = append(t.undo, func() { t.s.programs[id-1].Balance += amount })
	return nil
}

func (t *memTx) PutApplication(_ context.Context, app *model.Application) error {
	if _, err := t.program(app.ProgramID); err != nil {
		return err
	}
	key := appKey{app.ProgramID, app.Identity}
	if _, ok := t.s.byKey[key]; ok {
		return ErrDuplicateApplication
	}

	app.Seq = int64(len(t.s.apps)) + 1
	app.Received = false
	app.ReceivedAt = nil
	app.CreatedAt = t.s.now()

	idx := len(t.s.apps)
	t.s.apps = append(t.s.apps, *app)
	t.s.byKey[key] = idx
	t.s.byProgram[app.ProgramID] = append(t.s.byProgram[app.ProgramID], idx)

	t.undo = append(t.undo, func() {
		list := t.s.byProgram[key.programID]
		t.s.byProgram[key.programID] = list[:len(list)-1]
		delete(t.s.byKey, key)
		t.s.apps = t.s.apps[:idx]
	})
	return nil
}

func (t *memTx) GetApplication(_ context.Context, programID int64, identity string) (*model.Application, error) {
	idx, ok := t.s.byKey[appKey{programID, identity}]
	if !ok {
		return nil, ErrNotFound
	}
	out := t.s.apps[idx]
	return &out, nil
}

func (t *memTx) ListApplications(_ context.Context, programID int64) ([]model.Application, error) {
	idxs := t.s.byProgram[programID]
	out := make([]model.Application, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, t.s.apps[i])
	}
	return out, nil
}

func (t *memTx) MarkReceived(_ context.Context, programID int64, identity string, _ int64) error {
	idx, ok := t.s.byKey[appKey{programID, identity}]
	if !ok {
		return ErrNotFound
	}
	app := &t.s.apps[idx]
	if app.Received {
		return nil
	}
	p, err := t.program(programID)
	if err != nil {
		return err
	}

	at := t.s.now()
	app.Received = true
	app.ReceivedAt = &at
	p.SeatsFilled++
	t.undo = append(t.undo, func() {
		a := &t.s.apps[idx]
		a.Received = false
		a.ReceivedAt = nil
		t.s.programs[programID-1].SeatsFilled--
	})
	return nil
}
