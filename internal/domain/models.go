package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// TeamKey is the stable identifier of one of the two competing teams.
type TeamKey string

const (
	Team1 TeamKey = "team1"
	Team2 TeamKey = "team2"
)

// TeamKeys lists both teams in their fixed priority order.
var TeamKeys = []TeamKey{Team1, Team2}

func (t TeamKey) Valid() bool {
	return t == Team1 || t == Team2
}

const (
	DefaultTeam1Name = "Kelompok 1"
	DefaultTeam2Name = "Kelompok 2"
)

// Teams holds the display names chosen at session start.
type Teams struct {
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
}

func DefaultTeams() Teams {
	return Teams{Team1: DefaultTeam1Name, Team2: DefaultTeam2Name}
}

// Name returns the display name for a team key.
func (t Teams) Name(key TeamKey) string {
	if key == Team2 {
		return t.Team2
	}
	return t.Team1
}

// RoundID names a score bucket: the three scored rounds plus the bonus round.
type RoundID string

const (
	RoundWord   RoundID = "1"
	RoundChoice RoundID = "2"
	RoundImage  RoundID = "3"
	RoundBonus  RoundID = "bonus"
)

// RoundIDs lists every score bucket in play order.
var RoundIDs = []RoundID{RoundWord, RoundChoice, RoundImage, RoundBonus}

func (r RoundID) Valid() bool {
	switch r {
	case RoundWord, RoundChoice, RoundImage, RoundBonus:
		return true
	}
	return false
}

// Number returns 1..3 for scored rounds and 0 for the bonus round.
func (r RoundID) Number() int {
	switch r {
	case RoundWord:
		return 1
	case RoundChoice:
		return 2
	case RoundImage:
		return 3
	}
	return 0
}

// RoundFromNumber maps 1..3 onto the scored round identifiers.
func RoundFromNumber(n int) (RoundID, bool) {
	switch n {
	case 1:
		return RoundWord, true
	case 2:
		return RoundChoice, true
	case 3:
		return RoundImage, true
	}
	return "", false
}

// RoundKind is the question format played in a round.
type RoundKind string

const (
	KindWord   RoundKind = "word"
	KindChoice RoundKind = "choice"
	KindImage  RoundKind = "image"
	KindBonus  RoundKind = "bonus"
)

func (r RoundID) Kind() RoundKind {
	switch r {
	case RoundWord:
		return KindWord
	case RoundChoice:
		return KindChoice
	case RoundImage:
		return KindImage
	}
	return KindBonus
}

// Phase is the state of the question currently open in a round.
type Phase string

const (
	PhaseReady    Phase = "ready"
	PhaseAwaiting Phase = "awaiting"
	PhaseLocked   Phase = "locked"
	PhaseResolved Phase = "resolved"
	PhaseComplete Phase = "complete"
)

// Outcome is computed when a question locks.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeTimeout   Outcome = "timeout"
)

// ChoiceQuestion is a prompt with lettered options; also used by the bonus round.
type ChoiceQuestion struct {
	Prompt  string   `json:"question" yaml:"question"`
	Options []string `json:"options" yaml:"options"`
	Answer  int      `json:"answer" yaml:"answer"`
}

// ImageQuestion is a picture guess with an optional reveal picture.
type ImageQuestion struct {
	Image   string   `json:"image" yaml:"image"`
	Options []string `json:"options" yaml:"options"`
	Answer  int      `json:"answer" yaml:"answer"`
	Reveal  string   `json:"reveal,omitempty" yaml:"reveal,omitempty"`
}

// Pools are the static question sets for one game.
type Pools struct {
	Words   []string         `json:"round1" yaml:"round1"`
	Choices []ChoiceQuestion `json:"round2" yaml:"round2"`
	Images  []ImageQuestion  `json:"round3" yaml:"round3"`
	Bonus   []ChoiceQuestion `json:"bonus" yaml:"bonus"`
}

// Validate checks every question of every pool. Empty pools are allowed;
// entering their round fails later with ErrEmptyPool.
func (p Pools) Validate() error {
	for i, word := range p.Words {
		if len([]rune(word)) < 2 {
			return fmt.Errorf("round1[%d] %q: word needs two letters: %w", i, word, ErrInvalidPool)
		}
		if strings.IndexFunc(word, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
			return fmt.Errorf("round1[%d] %q: word must be letters only: %w", i, word, ErrInvalidPool)
		}
	}
	for i, q := range p.Choices {
		if err := validateOptions(q.Options, q.Answer); err != nil {
			return fmt.Errorf("round2[%d]: %v: %w", i, err, ErrInvalidPool)
		}
	}
	for i, q := range p.Images {
		if q.Image == "" {
			return fmt.Errorf("round3[%d]: missing image: %w", i, ErrInvalidPool)
		}
		if err := validateOptions(q.Options, q.Answer); err != nil {
			return fmt.Errorf("round3[%d]: %v: %w", i, err, ErrInvalidPool)
		}
	}
	for i, q := range p.Bonus {
		if err := validateOptions(q.Options, q.Answer); err != nil {
			return fmt.Errorf("bonus[%d]: %v: %w", i, err, ErrInvalidPool)
		}
	}
	return nil
}

func validateOptions(options []string, answer int) error {
	if len(options) < 2 {
		return fmt.Errorf("needs at least two options, got %d", len(options))
	}
	if len(options) > 26 {
		return fmt.Errorf("at most 26 options, got %d", len(options))
	}
	if answer < 0 || answer >= len(options) {
		return fmt.Errorf("answer %d out of range", answer)
	}
	return nil
}

// Scores is a consistent read of the score ledger.
type Scores struct {
	Totals   map[TeamKey]int             `json:"totals"`
	PerRound map[TeamKey]map[RoundID]int `json:"perRound"`
}

func (s Scores) Total(team TeamKey) int {
	return s.Totals[team]
}

func (s Scores) Round(team TeamKey, round RoundID) int {
	return s.PerRound[team][round]
}

// EventType enumerates the actions a presenter can send to a round.
type EventType string

const (
	EventSelectLetter EventType = "select_letter"
	EventUndoLetter   EventType = "undo_letter"
	EventSelectOption EventType = "select_option"
	EventAttribute    EventType = "attribute"
	EventCancel       EventType = "cancel"
	EventSubmit       EventType = "submit"
)

// Event is one user action. Team is the acting team when known; Index is the
// letter tile or option index.
type Event struct {
	Type  EventType `json:"type"`
	Team  TeamKey   `json:"team,omitempty"`
	Index int       `json:"index"`
}

// LetterTile is one scrambled letter; Used tiles have been moved into the answer.
type LetterTile struct {
	Letter string `json:"letter"`
	Used   bool   `json:"used"`
}

type QuestionView struct {
	Prompt  string       `json:"prompt,omitempty"`
	Image   string       `json:"image,omitempty"`
	Options []string     `json:"options,omitempty"`
	Letters []LetterTile `json:"letters,omitempty"`
}

// Reveal is shown once a question locks.
type Reveal struct {
	Answer string `json:"answer"`
	Letter string `json:"letter,omitempty"`
	Image  string `json:"image,omitempty"`
}

// RoundView is everything a presenter needs to draw the active round.
type RoundView struct {
	RunID     string       `json:"runId"`
	Round     RoundID      `json:"round"`
	Kind      RoundKind    `json:"kind"`
	Index     int          `json:"index"`
	Total     int          `json:"total"`
	Phase     Phase        `json:"phase"`
	Eligible  TeamKey      `json:"eligible,omitempty"` // empty when open to both teams
	Remaining int          `json:"remaining"`
	Question  QuestionView `json:"question"`
	Built     string       `json:"built,omitempty"`
	Selected  *int         `json:"selected,omitempty"`
	Attempted []TeamKey    `json:"attempted,omitempty"`
	Outcome   Outcome      `json:"outcome,omitempty"`
	Winner    TeamKey      `json:"winner,omitempty"`
	Awarded   int          `json:"awarded"`
	Tiebreak  bool         `json:"tiebreak,omitempty"`
	Reveal    *Reveal      `json:"reveal,omitempty"`
}

// Standing is the leader by total score, or a draw.
type Standing struct {
	Leader TeamKey `json:"leader,omitempty"`
	Draw   bool    `json:"draw"`
}

// Scoreboard is a snapshot of the session for display.
type Scoreboard struct {
	Teams        Teams    `json:"teams"`
	Scores       Scores   `json:"scores"`
	CurrentRound *int     `json:"currentRound"`
	BonusActive  bool     `json:"isBonusRound"`
	Finished     bool     `json:"finished"`
	Standing     Standing `json:"standing"`
}

// GameView is the full presenter payload.
type GameView struct {
	Scoreboard Scoreboard `json:"scoreboard"`
	Round      *RoundView `json:"round,omitempty"`
}
