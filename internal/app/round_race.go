package app

import (
	"fmt"

	"quiz-battle/internal/domain"
	"quiz-battle/internal/sampler"
	"quiz-battle/internal/timer"
)

// raceQuestion is the common shape of image and bonus questions.
type raceQuestion struct {
	prompt  string
	image   string
	reveal  string
	options []string
	answer  int
}

func imageRace(s *sampler.Sampler, rr RoundRules, questions []domain.ImageQuestion) []raceQuestion {
	out := make([]raceQuestion, len(questions))
	for i, q := range questions {
		options, answer := q.Options, q.Answer
		if rr.ShuffleOptions {
			options, answer = s.ShuffleOptions(q.Options, q.Answer)
		}
		out[i] = raceQuestion{image: q.Image, reveal: q.Reveal, options: options, answer: answer}
	}
	return out
}

func choiceRace(questions []domain.ChoiceQuestion) []raceQuestion {
	out := make([]raceQuestion, len(questions))
	for i, q := range questions {
		out[i] = raceQuestion{prompt: q.Prompt, options: q.Options, answer: q.Answer}
	}
	return out
}

type raceOptions struct {
	// winEndsRound makes the first correct answer win the whole round.
	winEndsRound bool
	// readySeconds holds the round in the ready phase before the first question.
	readySeconds int
	// tiebreak picks the team awarded when no question was won; nil awards nobody.
	tiebreak func() domain.TeamKey
}

// raceRound is the buzzer round: both teams may answer the open question and
// the first correct answer wins it. A team that answers wrong is locked out
// of that question. Events are applied in the order GameService receives
// them, so of two correct answers in one pass the first one wins.
type raceRound struct {
	run
	opts      raceOptions
	questions []raceQuestion
	pending   *int
	chosen    *int
	attempted map[domain.TeamKey]bool
	ready     *timer.Countdown
	tiebroken bool
}

func newRaceRound(r run, questions []raceQuestion, opts raceOptions) *raceRound {
	rr := &raceRound{run: r, opts: opts, questions: questions}
	rr.startQuestion()
	rr.clearInteraction()
	if opts.readySeconds > 0 {
		rr.phase = domain.PhaseReady
		rr.ready = timer.NewCountdown(opts.readySeconds, rr.begin)
	}
	return rr
}

func (r *raceRound) begin() {
	if r.phase != domain.PhaseReady {
		return
	}
	r.startQuestion()
}

func (r *raceRound) Tick() {
	if r.phase == domain.PhaseReady {
		r.ready.Tick()
		return
	}
	r.run.Tick()
}

func (r *raceRound) Apply(ev domain.Event) error {
	if err := r.acceptInput(); err != nil {
		return err
	}

	switch ev.Type {
	case domain.EventSelectOption:
		if err := r.checkOption(ev.Index); err != nil {
			return err
		}
		if ev.Team == "" {
			r.pending = intPtr(ev.Index)
			return nil
		}
		return r.attempt(ev.Team, ev.Index)
	case domain.EventAttribute:
		if r.pending == nil {
			return domain.ErrNoSelection
		}
		return r.attempt(ev.Team, *r.pending)
	case domain.EventCancel:
		if r.pending == nil {
			return domain.ErrNoSelection
		}
		r.pending = nil
		return nil
	}
	return domain.ErrUnsupportedEvent
}

// attempt is the compare-and-set at the heart of the race: it only succeeds
// while the question is open and team has not answered it yet.
func (r *raceRound) attempt(team domain.TeamKey, option int) error {
	if team == "" {
		return domain.ErrTeamRequired
	}
	if !team.Valid() {
		return fmt.Errorf("team %q: %w", team, domain.ErrUnknownTeam)
	}
	if r.attempted[team] {
		return domain.ErrAlreadyAnswered
	}

	q := r.questions[r.index]
	if option == q.answer {
		if err := r.lock(domain.OutcomeCorrect, team); err != nil {
			return err
		}
		r.attempted[team] = true
		r.chosen = intPtr(option)
		r.pending = nil
		return nil
	}

	r.attempted[team] = true
	r.chosen = intPtr(option)
	r.pending = nil
	if len(r.attempted) == len(domain.TeamKeys) {
		return r.lock(domain.OutcomeIncorrect, "")
	}
	return nil
}

func (r *raceRound) checkOption(i int) error {
	if i < 0 || i >= len(r.questions[r.index].options) {
		return domain.ErrOptionOutOfRange
	}
	return nil
}

func (r *raceRound) Resolve() (bool, error) {
	if err := r.checkResolvable(); err != nil {
		return false, err
	}
	last := r.isLast() || (r.opts.winEndsRound && r.outcome == domain.OutcomeCorrect)
	if last && r.opts.tiebreak != nil && r.outcome != domain.OutcomeCorrect {
		team := r.opts.tiebreak()
		if err := r.scorer.Award(team, r.rules.Points, r.round); err != nil {
			return false, err
		}
		r.winner = team
		r.awarded = r.rules.Points
		r.tiebroken = true
	}
	if r.finishQuestion(last) {
		return true, nil
	}
	r.clearInteraction()
	return false, nil
}

func (r *raceRound) clearInteraction() {
	r.pending = nil
	r.chosen = nil
	r.attempted = make(map[domain.TeamKey]bool, len(domain.TeamKeys))
}

func (r *raceRound) View() domain.RoundView {
	v := r.baseView()
	v.Tiebreak = r.tiebroken
	if r.phase == domain.PhaseReady {
		v.Remaining = r.ready.Remaining()
		return v
	}

	q := r.questions[r.index]
	v.Question = domain.QuestionView{
		Prompt:  q.prompt,
		Image:   q.image,
		Options: append([]string(nil), q.options...),
	}
	if r.pending != nil {
		v.Selected = intPtr(*r.pending)
	} else if r.chosen != nil {
		v.Selected = intPtr(*r.chosen)
	}
	for _, team := range domain.TeamKeys {
		if r.attempted[team] {
			v.Attempted = append(v.Attempted, team)
		}
	}
	if r.revealed() {
		image := q.reveal
		if image == "" {
			image = q.image
		}
		v.Reveal = &domain.Reveal{Answer: q.options[q.answer], Letter: optionLetter(q.answer), Image: image}
	}
	return v
}
