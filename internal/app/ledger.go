package app

import (
	"fmt"
	"sync"

	"quiz-battle/internal/domain"
)

// ScoreLedger is the only place scores change. Totals and per-round buckets
// are updated under one lock so readers never see them disagree.
type ScoreLedger struct {
	mu       sync.RWMutex
	totals   map[domain.TeamKey]int
	perRound map[domain.TeamKey]map[domain.RoundID]int
}

func NewScoreLedger() *ScoreLedger {
	l := &ScoreLedger{}
	l.resetLocked()
	return l
}

// Award adds points to team in the given round bucket and to its total.
func (l *ScoreLedger) Award(team domain.TeamKey, points int, round domain.RoundID) error {
	if !team.Valid() {
		return fmt.Errorf("award %q: %w", team, domain.ErrUnknownTeam)
	}
	if !round.Valid() {
		return fmt.Errorf("award round %q: %w", round, domain.ErrUnknownRound)
	}
	if points < 0 {
		return fmt.Errorf("award %d: %w", points, domain.ErrNegativePoints)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals[team] += points
	l.perRound[team][round] += points
	return nil
}

// Reset zeroes every team in every round.
func (l *ScoreLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked()
}

// Snapshot returns a copy of the current scores.
func (l *ScoreLedger) Snapshot() domain.Scores {
	l.mu.RLock()
	defer l.mu.RUnlock()

	scores := domain.Scores{
		Totals:   make(map[domain.TeamKey]int, len(domain.TeamKeys)),
		PerRound: make(map[domain.TeamKey]map[domain.RoundID]int, len(domain.TeamKeys)),
	}
	for _, team := range domain.TeamKeys {
		scores.Totals[team] = l.totals[team]
		buckets := make(map[domain.RoundID]int, len(domain.RoundIDs))
		for _, round := range domain.RoundIDs {
			buckets[round] = l.perRound[team][round]
		}
		scores.PerRound[team] = buckets
	}
	return scores
}

// restore replaces the ledger from per-round buckets; totals are derived so
// the sum invariant holds for whatever was persisted.
func (l *ScoreLedger) restore(perRound map[domain.TeamKey]map[domain.RoundID]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked()
	for _, team := range domain.TeamKeys {
		for _, round := range domain.RoundIDs {
			points := perRound[team][round]
			if points < 0 {
				points = 0
			}
			l.perRound[team][round] = points
			l.totals[team] += points
		}
	}
}

func (l *ScoreLedger) resetLocked() {
	l.totals = make(map[domain.TeamKey]int, len(domain.TeamKeys))
	l.perRound = make(map[domain.TeamKey]map[domain.RoundID]int, len(domain.TeamKeys))
	for _, team := range domain.TeamKeys {
		l.totals[team] = 0
		l.perRound[team] = make(map[domain.RoundID]int, len(domain.RoundIDs))
		for _, round := range domain.RoundIDs {
			l.perRound[team][round] = 0
		}
	}
}
