package app

import (
	"fmt"
	"time"

	"quiz-battle/internal/domain"
	"quiz-battle/internal/sampler"
	"quiz-battle/internal/timer"
)

// Scorer receives the awards made by a running round.
type Scorer interface {
	Award(team domain.TeamKey, points int, round domain.RoundID) error
}

// RoundMachine drives the questions of one round. Implementations are not
// safe for concurrent use; GameService serializes every call.
type RoundMachine interface {
	ID() string
	Round() domain.RoundID
	Phase() domain.Phase
	// Apply handles a user event or rejects it without changing state.
	Apply(ev domain.Event) error
	// Tick advances the question countdown by one second.
	Tick()
	// Resolve moves past a locked question and reports whether the round is complete.
	Resolve() (bool, error)
	// Resolutions counts resolved questions.
	Resolutions() int
	View() domain.RoundView
}

// RoundRules configures one round type.
type RoundRules struct {
	Questions      int // 0 plays the whole pool
	Points         int
	Seconds        int           // per-question countdown; 0 disables it
	Delay          time.Duration // feedback display time between lock and resolution
	ShuffleOptions bool
}

// Rules configures every round of a game.
type Rules struct {
	Word       RoundRules
	Choice     RoundRules
	Image      RoundRules
	Bonus      RoundRules
	BonusReady int // seconds of ready countdown before the first bonus question
}

// DefaultRules mirrors the classroom game: two questions per team in the
// first two rounds, the whole image pool, and a three-question sudden death.
func DefaultRules() Rules {
	return Rules{
		Word:       RoundRules{Questions: 4, Points: 10, Seconds: 60, Delay: 1200 * time.Millisecond},
		Choice:     RoundRules{Questions: 4, Points: 15, Seconds: 30, Delay: 800 * time.Millisecond, ShuffleOptions: true},
		Image:      RoundRules{Questions: 0, Points: 20, Seconds: 30, Delay: 900 * time.Millisecond, ShuffleOptions: true},
		Bonus:      RoundRules{Questions: 3, Points: 50, Seconds: 10, Delay: 2 * time.Second, ShuffleOptions: true},
		BonusReady: 3,
	}
}

func (r Rules) For(round domain.RoundID) RoundRules {
	switch round {
	case domain.RoundWord:
		return r.Word
	case domain.RoundChoice:
		return r.Choice
	case domain.RoundImage:
		return r.Image
	}
	return r.Bonus
}

// NewRound samples the questions for round and builds its state machine.
func NewRound(id string, round domain.RoundID, rules Rules, pools domain.Pools, s *sampler.Sampler, scorer Scorer) (RoundMachine, error) {
	rr := rules.For(round)
	var (
		machine RoundMachine
		size    int
	)
	switch round {
	case domain.RoundWord:
		words := sampler.Sample(s, pools.Words, questionCount(rr, len(pools.Words)))
		size = len(words)
		machine = newWordRound(newRun(id, round, rr, scorer, size), words, s)
	case domain.RoundChoice:
		questions := sampler.Sample(s, pools.Choices, questionCount(rr, len(pools.Choices)))
		size = len(questions)
		machine = newChoiceRound(newRun(id, round, rr, scorer, size), shuffleChoices(s, rr, questions))
	case domain.RoundImage:
		questions := sampler.Sample(s, pools.Images, questionCount(rr, len(pools.Images)))
		size = len(questions)
		machine = newRaceRound(newRun(id, round, rr, scorer, size), imageRace(s, rr, questions), raceOptions{})
	case domain.RoundBonus:
		questions := sampler.Sample(s, pools.Bonus, questionCount(rr, len(pools.Bonus)))
		size = len(questions)
		machine = newRaceRound(newRun(id, round, rr, scorer, size), choiceRace(shuffleChoices(s, rr, questions)), raceOptions{
			winEndsRound: true,
			readySeconds: rules.BonusReady,
			tiebreak:     func() domain.TeamKey { return domain.TeamKeys[s.Intn(len(domain.TeamKeys))] },
		})
	default:
		return nil, fmt.Errorf("new round %q: %w", round, domain.ErrUnknownRound)
	}
	if size == 0 {
		return nil, fmt.Errorf("round %s: %w", round, domain.ErrEmptyPool)
	}
	return machine, nil
}

func questionCount(rr RoundRules, poolSize int) int {
	if rr.Questions <= 0 {
		return poolSize
	}
	return rr.Questions
}

func shuffleChoices(s *sampler.Sampler, rr RoundRules, questions []domain.ChoiceQuestion) []domain.ChoiceQuestion {
	if !rr.ShuffleOptions {
		return questions
	}
	out := make([]domain.ChoiceQuestion, len(questions))
	for i, q := range questions {
		q.Options, q.Answer = s.ShuffleOptions(q.Options, q.Answer)
		out[i] = q
	}
	return out
}

// run is the state shared by every round type: question index, phase,
// outcome and the per-question countdown.
type run struct {
	id        string
	round     domain.RoundID
	rules     RoundRules
	scorer    Scorer
	total     int
	index     int
	phase     domain.Phase
	outcome   domain.Outcome
	winner    domain.TeamKey
	awarded   int
	resolved  int
	countdown *timer.Countdown
}

// newRun builds the shared state. Callers open the first question with
// startQuestion once the run is embedded at its final address, so the
// countdown callback binds to the right value.
func newRun(id string, round domain.RoundID, rules RoundRules, scorer Scorer, total int) run {
	return run{id: id, round: round, rules: rules, scorer: scorer, total: total}
}

func (r *run) ID() string { return r.id }
func (r *run) Round() domain.RoundID { return r.round }
func (r *run) Phase() domain.Phase { return r.phase }
func (r *run) Resolutions() int { return r.resolved }
func (r *run) isLast() bool { return r.index+1 >= r.total }
func (r *run) remaining() int { return remainingOf(r.countdown) }
func (r *run) revealed() bool { return r.phase == domain.PhaseLocked || r.phase == domain.PhaseComplete }

// startQuestion opens the question at r.index with a fresh countdown.
func (r *run) startQuestion() {
	r.phase = domain.PhaseAwaiting
	r.outcome = domain.OutcomeNone
	r.winner = ""
	r.awarded = 0
	r.countdown = nil
	if r.rules.Seconds > 0 {
		r.countdown = timer.NewCountdown(r.rules.Seconds, r.expire)
	}
}

func (r *run) Tick() {
	if r.phase == domain.PhaseAwaiting && r.countdown != nil {
		r.countdown.Tick()
	}
}

// expire is the countdown callback. A countdown that belongs to a question
// that already locked has been suspended, so this only runs while awaiting.
func (r *run) expire() {
	if r.phase != domain.PhaseAwaiting {
		return
	}
	_ = r.lock(domain.OutcomeTimeout, "")
}

// acceptInput rejects answers unless the question is open.
func (r *run) acceptInput() error {
	switch r.phase {
	case domain.PhaseAwaiting:
		return nil
	case domain.PhaseReady:
		return domain.ErrNotReady
	case domain.PhaseComplete:
		return domain.ErrRoundComplete
	}
	return domain.ErrQuestionLocked
}

// lock stops input and the countdown and records the outcome. A correct
// outcome awards points to winner first; if that fails nothing changes.
func (r *run) lock(outcome domain.Outcome, winner domain.TeamKey) error {
	if outcome == domain.OutcomeCorrect {
		if err := r.scorer.Award(winner, r.rules.Points, r.round); err != nil {
			return err
		}
		r.awarded = r.rules.Points
		r.winner = winner
	}
	if r.countdown != nil {
		r.countdown.Suspend()
	}
	r.phase = domain.PhaseLocked
	r.outcome = outcome
	return nil
}

func (r *run) checkResolvable() error {
	switch r.phase {
	case domain.PhaseLocked:
		return nil
	case domain.PhaseComplete:
		return domain.ErrRoundComplete
	}
	return domain.ErrNotLocked
}

// finishQuestion records a resolution and either completes the round or
// opens the next question.
func (r *run) finishQuestion(last bool) bool {
	r.phase = domain.PhaseResolved
	r.resolved++
	if last {
		r.phase = domain.PhaseComplete
		return true
	}
	r.index++
	r.startQuestion()
	return false
}

func (r *run) baseView() domain.RoundView {
	return domain.RoundView{
		RunID:     r.id,
		Round:     r.round,
		Kind:      r.round.Kind(),
		Index:     r.index,
		Total:     r.total,
		Phase:     r.phase,
		Remaining: r.remaining(),
		Outcome:   r.outcome,
		Winner:    r.winner,
		Awarded:   r.awarded,
	}
}

// checkTeam validates an explicit acting team against the eligible one.
func checkTeam(team, eligible domain.TeamKey) error {
	if team == "" {
		return nil
	}
	if !team.Valid() {
		return fmt.Errorf("team %q: %w", team, domain.ErrUnknownTeam)
	}
	if team != eligible {
		return domain.ErrNotYourTurn
	}
	return nil
}

func optionLetter(i int) string {
	return string(rune('A' + i))
}

func remainingOf(c *timer.Countdown) int {
	if c == nil {
		return 0
	}
	return c.Remaining()
}

func intPtr(v int) *int {
	return &v
}
