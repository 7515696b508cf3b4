package app

import "quiz-battle/internal/domain"

// choiceRound is the turn-based multiple-choice round. Selecting an option
// locks the question at once.
type choiceRound struct {
	run
	questions []domain.ChoiceQuestion
	selected  *int
}

func newChoiceRound(r run, questions []domain.ChoiceQuestion) *choiceRound {
	c := &choiceRound{run: r, questions: questions}
	c.startQuestion()
	return c
}

func (c *choiceRound) Apply(ev domain.Event) error {
	if err := c.acceptInput(); err != nil {
		return err
	}
	turn := WhoseTurn(c.index)
	if err := checkTeam(ev.Team, turn); err != nil {
		return err
	}
	if ev.Type != domain.EventSelectOption {
		return domain.ErrUnsupportedEvent
	}

	q := c.questions[c.index]
	if ev.Index < 0 || ev.Index >= len(q.Options) {
		return domain.ErrOptionOutOfRange
	}
	outcome := domain.OutcomeIncorrect
	if ev.Index == q.Answer {
		outcome = domain.OutcomeCorrect
	}
	if err := c.lock(outcome, turn); err != nil {
		return err
	}
	c.selected = intPtr(ev.Index)
	return nil
}

func (c *choiceRound) Resolve() (bool, error) {
	if err := c.checkResolvable(); err != nil {
		return false, err
	}
	done := c.finishQuestion(c.isLast())
	if !done {
		c.selected = nil
	}
	return done, nil
}

func (c *choiceRound) View() domain.RoundView {
	q := c.questions[c.index]
	v := c.baseView()
	v.Eligible = WhoseTurn(c.index)
	v.Question = domain.QuestionView{Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
	if c.selected != nil {
		v.Selected = intPtr(*c.selected)
	}
	if c.revealed() {
		v.Reveal = &domain.Reveal{Answer: q.Options[q.Answer], Letter: optionLetter(q.Answer)}
	}
	return v
}
