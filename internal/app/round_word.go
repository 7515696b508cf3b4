package app

import (
	"strings"

	"quiz-battle/internal/domain"
	"quiz-battle/internal/sampler"
)

// wordRound is the turn-based unscramble round. The acting team picks letter
// tiles one by one into an answer and submits it.
type wordRound struct {
	run
	words     []string
	scrambled [][]string
	tiles     []domain.LetterTile
	built     []int // tile indexes in selection order
}

func newWordRound(r run, words []string, s *sampler.Sampler) *wordRound {
	scrambled := make([][]string, len(words))
	for i, word := range words {
		scrambled[i] = s.Scramble(word)
	}
	w := &wordRound{run: r, words: words, scrambled: scrambled}
	w.startQuestion()
	w.deal()
	return w
}

func (w *wordRound) deal() {
	w.built = nil
	w.tiles = nil
	if w.index >= len(w.scrambled) {
		return
	}
	letters := w.scrambled[w.index]
	w.tiles = make([]domain.LetterTile, len(letters))
	for i, letter := range letters {
		w.tiles[i] = domain.LetterTile{Letter: letter}
	}
}

func (w *wordRound) Apply(ev domain.Event) error {
	if err := w.acceptInput(); err != nil {
		return err
	}
	turn := WhoseTurn(w.index)
	if err := checkTeam(ev.Team, turn); err != nil {
		return err
	}

	switch ev.Type {
	case domain.EventSelectLetter:
		if ev.Index < 0 || ev.Index >= len(w.tiles) || w.tiles[ev.Index].Used {
			return domain.ErrLetterUnavailable
		}
		w.tiles[ev.Index].Used = true
		w.built = append(w.built, ev.Index)
		return nil
	case domain.EventUndoLetter:
		if len(w.built) == 0 {
			return domain.ErrNothingToUndo
		}
		last := w.built[len(w.built)-1]
		w.built = w.built[:len(w.built)-1]
		w.tiles[last].Used = false
		return nil
	case domain.EventSubmit:
		if len(w.built) == 0 {
			return domain.ErrEmptyAnswer
		}
		outcome := domain.OutcomeIncorrect
		if strings.EqualFold(w.answer(), w.words[w.index]) {
			outcome = domain.OutcomeCorrect
		}
		return w.lock(outcome, turn)
	}
	return domain.ErrUnsupportedEvent
}

func (w *wordRound) Resolve() (bool, error) {
	if err := w.checkResolvable(); err != nil {
		return false, err
	}
	if w.finishQuestion(w.isLast()) {
		return true, nil
	}
	w.deal()
	return false, nil
}

func (w *wordRound) answer() string {
	var b strings.Builder
	for _, i := range w.built {
		b.WriteString(w.tiles[i].Letter)
	}
	return b.String()
}

func (w *wordRound) View() domain.RoundView {
	v := w.baseView()
	v.Eligible = WhoseTurn(w.index)
	v.Question.Letters = append([]domain.LetterTile(nil), w.tiles...)
	v.Built = w.answer()
	if w.revealed() {
		v.Reveal = &domain.Reveal{Answer: w.words[w.index]}
	}
	return v
}
