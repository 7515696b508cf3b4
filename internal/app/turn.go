package app

import "quiz-battle/internal/domain"

// WhoseTurn returns the team that acts on the question at index in a
// turn-based round: even indexes belong to team1, odd ones to team2.
func WhoseTurn(index int) domain.TeamKey {
	if index%2 == 0 {
		return domain.Team1
	}
	return domain.Team2
}
