package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"quiz-battle/internal/domain"
)

// SnapshotVersion is written into every persisted session. Snapshots without
// a version predate it and come in two shapes: with and without perRound.
const SnapshotVersion = 2

// sessionState is the persisted part of a Session.
type sessionState struct {
	Teams       domain.Teams
	PerRound    map[domain.TeamKey]map[domain.RoundID]int
	Round       int // 0 when finished
	BonusActive bool
}

type snapshot struct {
	Version      int             `json:"version"`
	Teams        *snapshotTeams  `json:"teams,omitempty"`
	Scores       *snapshotScores `json:"scores,omitempty"`
	CurrentRound json.RawMessage `json:"currentRound,omitempty"`
	IsBonusRound *bool           `json:"isBonusRound,omitempty"`
}

type snapshotTeams struct {
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
}

type snapshotScores struct {
	Team1    *int                      `json:"team1,omitempty"`
	Team2    *int                      `json:"team2,omitempty"`
	PerRound map[string]map[string]int `json:"perRound,omitempty"`
}

var jsonNull = []byte("null")

func encodeSnapshot(st sessionState) ([]byte, error) {
	perRound := make(map[string]map[string]int, len(domain.TeamKeys))
	totals := make(map[domain.TeamKey]int, len(domain.TeamKeys))
	for _, team := range domain.TeamKeys {
		buckets := make(map[string]int, len(domain.RoundIDs))
		for _, round := range domain.RoundIDs {
			points := st.PerRound[team][round]
			buckets[string(round)] = points
			totals[team] += points
		}
		perRound[string(team)] = buckets
	}
	t1, t2 := totals[domain.Team1], totals[domain.Team2]

	current := json.RawMessage(jsonNull)
	if st.Round != 0 {
		current = json.RawMessage(strconv.Itoa(st.Round))
	}
	bonus := st.BonusActive

	return json.Marshal(snapshot{
		Version:      SnapshotVersion,
		Teams:        &snapshotTeams{Team1: st.Teams.Team1, Team2: st.Teams.Team2},
		Scores:       &snapshotScores{Team1: &t1, Team2: &t2, PerRound: perRound},
		CurrentRound: current,
		IsBonusRound: &bonus,
	})
}

// decodeSnapshot migrates any known snapshot shape to the current state.
// Unreadable JSON is an error; missing or out-of-range fields take their
// defaults and are reported as warnings.
func decodeSnapshot(data []byte) (sessionState, []string, error) {
	st := sessionState{
		Teams:    domain.DefaultTeams(),
		PerRound: emptyPerRound(),
		Round:    1,
	}
	var warnings []string

	var raw snapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return st, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if raw.Version > SnapshotVersion {
		warnings = append(warnings, fmt.Sprintf("snapshot version %d is newer than %d", raw.Version, SnapshotVersion))
	}

	if raw.Teams != nil {
		st.Teams = normalizeTeams(domain.Teams{Team1: raw.Teams.Team1, Team2: raw.Teams.Team2})
	}

	switch current := bytes.TrimSpace(raw.CurrentRound); {
	case len(current) == 0:
	case bytes.Equal(current, jsonNull):
		// Unversioned snapshots could not express the finished state.
		if raw.Version >= SnapshotVersion {
			st.Round = 0
		}
	default:
		n, err := strconv.Atoi(string(current))
		if err != nil || n < 1 || n > finalRound {
			warnings = append(warnings, fmt.Sprintf("currentRound %s out of range, using 1", current))
		} else {
			st.Round = n
		}
	}

	if raw.IsBonusRound != nil {
		if *raw.IsBonusRound && st.Round != 0 {
			warnings = append(warnings, "bonus flag set before the final round, ignoring it")
		} else {
			st.BonusActive = *raw.IsBonusRound
		}
	}

	if raw.Scores != nil {
		warnings = append(warnings, decodeScores(raw.Scores, &st)...)
	}
	return st, warnings, nil
}

func decodeScores(raw *snapshotScores, st *sessionState) []string {
	var warnings []string
	totals := map[domain.TeamKey]*int{domain.Team1: raw.Team1, domain.Team2: raw.Team2}

	if raw.PerRound == nil {
		// Legacy shape: totals only. Keep them in the last round that could have earned them.
		bucket := legacyBucket(st.Round)
		for _, team := range domain.TeamKeys {
			if total := totals[team]; total != nil && *total > 0 {
				st.PerRound[team][bucket] = *total
			}
		}
		warnings = append(warnings, fmt.Sprintf("snapshot has no per-round scores, totals kept in round %s", bucket))
		return warnings
	}

	for _, team := range domain.TeamKeys {
		sum := 0
		for _, round := range domain.RoundIDs {
			points := raw.PerRound[string(team)][string(round)]
			if points < 0 {
				warnings = append(warnings, fmt.Sprintf("%s round %s has negative score %d, using 0", team, round, points))
				points = 0
			}
			st.PerRound[team][round] = points
			sum += points
		}
		if total := totals[team]; total != nil && *total != sum {
			warnings = append(warnings, fmt.Sprintf("%s total %d does not match rounds %d, using rounds", team, *total, sum))
		}
	}
	return warnings
}

func legacyBucket(round int) domain.RoundID {
	if round == 0 {
		return domain.RoundImage
	}
	if round > 1 {
		round--
	}
	id, _ := domain.RoundFromNumber(round)
	return id
}

func emptyPerRound() map[domain.TeamKey]map[domain.RoundID]int {
	perRound := make(map[domain.TeamKey]map[domain.RoundID]int, len(domain.TeamKeys))
	for _, team := range domain.TeamKeys {
		perRound[team] = make(map[domain.RoundID]int, len(domain.RoundIDs))
	}
	return perRound
}
