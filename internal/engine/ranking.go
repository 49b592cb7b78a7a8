package engine

import (
	"sort"

	"github.com/stemsi/scholardist/internal/model"
)

// SelectWinners picks the unpaid applications that should be paid next.
// The pool is ordered by score descending, ties by submission order; only
// entries at or above the program's minimum score qualify, and at most
// SeatsLeft of them are returned.
func SelectWinners(p *model.Program, apps []model.Application) []model.Application {
	seats := p.SeatsLeft()
	if seats == 0 {
		return nil
	}

	pool := make([]model.Application, 0, len(apps))
	for _, a := range apps {
		if a.ProgramID != p.ID || a.Received || a.Score < p.MinScore {
			continue
		}
		pool = append(pool, a)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		return pool[i].Seq < pool[j].Seq
	})

	if len(pool) > seats {
		pool = pool[:seats]
	}
	return pool
}
