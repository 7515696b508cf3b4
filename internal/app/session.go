package app

import (
	"fmt"
	"strings"
	"sync"

	"quiz-battle/internal/domain"
)

const finalRound = 3

// Session is the durable aggregate of one play-through: team names, the round
// pointer, the bonus flag and the score ledger.
type Session struct {
	mu          sync.RWMutex
	teams       domain.Teams
	ledger      *ScoreLedger
	round       int // 1..3, 0 once the game is finished
	bonusActive bool
}

func NewSession() *Session {
	return &Session{
		teams:  domain.DefaultTeams(),
		ledger: NewScoreLedger(),
		round:  1,
	}
}

func (s *Session) Teams() domain.Teams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teams
}

// SetTeamNames renames both teams; blank names fall back to the defaults.
func (s *Session) SetTeamNames(team1, team2 string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = normalizeTeams(domain.Teams{Team1: team1, Team2: team2})
}

// Award is the session's only score mutation; it delegates to the ledger.
func (s *Session) Award(team domain.TeamKey, points int, round domain.RoundID) error {
	return s.ledger.Award(team, points, round)
}

// CurrentRound returns the round to play next, or false once the game is finished.
func (s *Session) CurrentRound() (domain.RoundID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.RoundFromNumber(s.round)
}

func (s *Session) BonusActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bonusActive
}

// CompleteRound advances the round pointer after round finished: 1→2, 2→3,
// 3→finished. Finishing round 3 on tied totals raises the bonus flag.
// Completing the bonus round clears the flag and forces the finished state.
func (s *Session) CompleteRound(round domain.RoundID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if round == domain.RoundBonus {
		s.bonusActive = false
		s.round = 0
		return nil
	}
	if !round.Valid() {
		return fmt.Errorf("complete %q: %w", round, domain.ErrUnknownRound)
	}
	if round.Number() != s.round {
		return fmt.Errorf("complete round %s at round %d: %w", round, s.round, domain.ErrRoundMismatch)
	}

	s.round++
	if s.round > finalRound {
		s.round = 0
		scores := s.ledger.Snapshot()
		s.bonusActive = scores.Total(domain.Team1) == scores.Total(domain.Team2)
	}
	return nil
}

// Reset restores default names, zero scores and round 1.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = domain.DefaultTeams()
	s.ledger.Reset()
	s.round = 1
	s.bonusActive = false
}

// Scoreboard returns a consistent display snapshot.
func (s *Session) Scoreboard() domain.Scoreboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := s.ledger.Snapshot()
	board := domain.Scoreboard{
		Teams:       s.teams,
		Scores:      scores,
		BonusActive: s.bonusActive,
		Finished:    s.round == 0,
		Standing:    standing(scores),
	}
	if s.round != 0 {
		round := s.round
		board.CurrentRound = &round
	}
	return board
}

func (s *Session) state() sessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sessionState{
		Teams:       s.teams,
		PerRound:    s.ledger.Snapshot().PerRound,
		Round:       s.round,
		BonusActive: s.bonusActive,
	}
}

func (s *Session) restore(st sessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = normalizeTeams(st.Teams)
	s.ledger.restore(st.PerRound)
	s.round = st.Round
	s.bonusActive = st.BonusActive && st.Round == 0
}

func standing(scores domain.Scores) domain.Standing {
	t1, t2 := scores.Total(domain.Team1), scores.Total(domain.Team2)
	switch {
	case t1 > t2:
		return domain.Standing{Leader: domain.Team1}
	case t2 > t1:
		return domain.Standing{Leader: domain.Team2}
	}
	return domain.Standing{Draw: true}
}

func normalizeTeams(t domain.Teams) domain.Teams {
	t.Team1 = strings.TrimSpace(t.Team1)
	t.Team2 = strings.TrimSpace(t.Team2)
	if t.Team1 == "" {
		t.Team1 = domain.DefaultTeam1Name
	}
	if t.Team2 == "" {
		t.Team2 = domain.DefaultTeam2Name
	}
	return t
}
