package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quiz-battle/internal/domain"
	"quiz-battle/internal/sampler"
)

func testPools() domain.Pools {
	return domain.Pools{
		Words: []string{"CAT", "DOG", "BIRD", "FISH", "LION", "BEAR"},
		Choices: []domain.ChoiceQuestion{
			{Prompt: "2 + 2?", Options: []string{"3", "4", "5", "6"}, Answer: 1},
			{Prompt: "Capital of France?", Options: []string{"Paris", "Rome", "Oslo", "Bern"}, Answer: 0},
			{Prompt: "Largest ocean?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, Answer: 3},
			{Prompt: "Bees make?", Options: []string{"Milk", "Honey", "Butter", "Cheese"}, Answer: 1},
		},
		Images: []domain.ImageQuestion{
			{Image: "cat-blur.jpg", Reveal: "cat.jpg", Options: []string{"Cat", "Dog", "Cow"}, Answer: 0},
			{Image: "dog-blur.jpg", Reveal: "dog.jpg", Options: []string{"Cat", "Dog", "Cow"}, Answer: 1},
		},
		Bonus: []domain.ChoiceQuestion{
			{Prompt: "Sky?", Options: []string{"Green", "Blue", "Red", "Yellow"}, Answer: 1},
			{Prompt: "Week days?", Options: []string{"5", "6", "7", "8"}, Answer: 2},
			{Prompt: "Spider legs?", Options: []string{"6", "8", "10", "4"}, Answer: 1},
			{Prompt: "Months?", Options: []string{"10", "11", "12", "13"}, Answer: 2},
		},
	}
}

func newTestRound(t *testing.T, round domain.RoundID, rules Rules, pools domain.Pools) (RoundMachine, *ScoreLedger) {
	t.Helper()
	ledger := NewScoreLedger()
	machine, err := NewRound("run-1", round, rules, pools, sampler.New(3), ledger)
	if err != nil {
		t.Fatalf("new round %s: %v", round, err)
	}
	return machine, ledger
}

// spellTiles returns the tile indexes that build word.
func spellTiles(t *testing.T, tiles []domain.LetterTile, word string) []int {
	t.Helper()
	used := make([]bool, len(tiles))
	var out []int
	for _, r := range word {
		found := false
		for i, tile := range tiles {
			if !used[i] && strings.EqualFold(tile.Letter, string(r)) {
				used[i] = true
				out = append(out, i)
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("letter %q not among tiles %+v", r, tiles)
		}
	}
	return out
}

// optionIndex finds text among the displayed options.
func optionIndex(t *testing.T, options []string, text string) int {
	t.Helper()
	for i, opt := range options {
		if opt == text {
			return i
		}
	}
	t.Fatalf("option %q not in %v", text, options)
	return -1
}

func TestWordRoundSelectAndUndoAreInverses(t *testing.T) {
	machine, _ := newTestRound(t, domain.RoundWord, DefaultRules(), testPools())
	before := machine.View()

	if err := machine.Apply(domain.Event{Type: domain.EventSelectLetter, Index: 1}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSelectLetter, Index: 1}); !errors.Is(err, domain.ErrLetterUnavailable) {
		t.Fatalf("expected used tile rejected, got %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventUndoLetter}); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if diff := cmp.Diff(before, machine.View()); diff != "" {
		t.Fatalf("undo did not restore view (-want +got):\n%s", diff)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventUndoLetter}); !errors.Is(err, domain.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSubmit}); !errors.Is(err, domain.ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
}

func TestWordRoundTurnsAndScoring(t *testing.T) {
	pools := testPools()
	pools.Words = []string{"CAT", "DOG"}
	machine, ledger := newTestRound(t, domain.RoundWord, DefaultRules(), pools)

	view := machine.View()
	if view.Eligible != domain.Team1 || view.Total != 2 {
		t.Fatalf("expected team1 on a 2-question round, got %+v", view)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSelectLetter, Team: domain.Team2, Index: 0}); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}

	word := wordOf(view.Question.Letters, pools.Words)
	for _, i := range spellTiles(t, view.Question.Letters, strings.ToLower(word)) {
		if err := machine.Apply(domain.Event{Type: domain.EventSelectLetter, Index: i}); err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSubmit}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	view = machine.View()
	if view.Phase != domain.PhaseLocked || view.Outcome != domain.OutcomeCorrect || view.Reveal.Answer != word {
		t.Fatalf("expected correct lock revealing %s, got %+v", word, view)
	}
	if got := ledger.Snapshot().Round(domain.Team1, domain.RoundWord); got != 10 {
		t.Fatalf("expected 10 points for team1, got %d", got)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventUndoLetter}); !errors.Is(err, domain.ErrQuestionLocked) {
		t.Fatalf("expected ErrQuestionLocked, got %v", err)
	}

	done, err := machine.Resolve()
	if err != nil || done {
		t.Fatalf("expected next question, got done=%v err=%v", done, err)
	}
	view = machine.View()
	if view.Eligible != domain.Team2 || view.Built != "" {
		t.Fatalf("expected fresh question for team2, got %+v", view)
	}
}

func wordOf(tiles []domain.LetterTile, words []string) string {
	letters := make([]string, len(tiles))
	for i, tile := range tiles {
		letters[i] = tile.Letter
	}
	for _, word := range words {
		if sortedLetters(word) == sortedLetters(strings.Join(letters, "")) {
			return word
		}
	}
	return ""
}

func sortedLetters(s string) string {
	r := []rune(strings.ToUpper(s))
	for i := 1; i < len(r); i++ {
		for j := i; j > 0 && r[j] < r[j-1]; j-- {
			r[j], r[j-1] = r[j-1], r[j]
		}
	}
	return string(r)
}

func TestRoundResolvesExactlyKQuestions(t *testing.T) {
	rules := DefaultRules()
	rules.Word.Seconds = 2
	machine, _ := newTestRound(t, domain.RoundWord, rules, testPools())

	completions := 0
	for i := 0; i < 10 && completions == 0; i++ {
		machine.Tick()
		machine.Tick()
		if machine.Phase() != domain.PhaseLocked || machine.View().Outcome != domain.OutcomeTimeout {
			t.Fatalf("expected timeout lock, got %+v", machine.View())
		}
		done, err := machine.Resolve()
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if done {
			completions++
		}
	}
	if machine.Resolutions() != rules.Word.Questions || completions != 1 {
		t.Fatalf("expected %d resolutions and one completion, got %d and %d", rules.Word.Questions, machine.Resolutions(), completions)
	}
	if _, err := machine.Resolve(); !errors.Is(err, domain.ErrRoundComplete) {
		t.Fatalf("expected ErrRoundComplete, got %v", err)
	}
}

func TestChoiceRoundLocksOnSelection(t *testing.T) {
	pools := testPools()
	machine, ledger := newTestRound(t, domain.RoundChoice, DefaultRules(), pools)

	answers := map[string]string{}
	for _, q := range pools.Choices {
		answers[q.Prompt] = q.Options[q.Answer]
	}

	view := machine.View()
	correct := optionIndex(t, view.Question.Options, answers[view.Question.Prompt])
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: domain.Team1, Index: correct}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := ledger.Snapshot().Round(domain.Team1, domain.RoundChoice); got != 15 {
		t.Fatalf("expected 15 for team1, got %d", got)
	}
	if _, err := machine.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	view = machine.View()
	correct = optionIndex(t, view.Question.Options, answers[view.Question.Prompt])
	wrong := (correct + 1) % len(view.Question.Options)
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: domain.Team1, Index: wrong}); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Index: 9}); !errors.Is(err, domain.ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Index: wrong}); err != nil {
		t.Fatalf("select wrong: %v", err)
	}
	view = machine.View()
	if view.Outcome != domain.OutcomeIncorrect || view.Reveal.Letter != optionLetter(correct) {
		t.Fatalf("expected incorrect with letter %s revealed, got %+v", optionLetter(correct), view)
	}
	if got := ledger.Snapshot().Total(domain.Team2); got != 0 {
		t.Fatalf("expected team2 to stay at 0, got %d", got)
	}
}

func TestRaceRoundLockoutAndAttribution(t *testing.T) {
	pools := testPools()
	machine, ledger := newTestRound(t, domain.RoundImage, DefaultRules(), pools)

	view := machine.View()
	if view.Eligible != "" || view.Total != len(pools.Images) {
		t.Fatalf("expected open race over the whole pool, got %+v", view)
	}
	answer := map[string]string{}
	for _, q := range pools.Images {
		answer[q.Image] = q.Options[q.Answer]
	}
	correct := optionIndex(t, view.Question.Options, answer[view.Question.Image])
	wrong := (correct + 1) % len(view.Question.Options)

	if err := machine.Apply(domain.Event{Type: domain.EventAttribute, Team: domain.Team1}); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Index: wrong}); err != nil {
		t.Fatalf("pending select: %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventAttribute}); !errors.Is(err, domain.ErrTeamRequired) {
		t.Fatalf("expected ErrTeamRequired, got %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventAttribute, Team: domain.Team1}); err != nil {
		t.Fatalf("attribute: %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: domain.Team1, Index: correct}); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: domain.Team2, Index: correct}); err != nil {
		t.Fatalf("team2 answer: %v", err)
	}

	view = machine.View()
	if view.Winner != domain.Team2 || view.Awarded != 20 || view.Reveal == nil || view.Reveal.Image == "" {
		t.Fatalf("expected team2 to win 20 with reveal image, got %+v", view)
	}
	if got := ledger.Snapshot().Round(domain.Team2, domain.RoundImage); got != 20 {
		t.Fatalf("expected 20 in round 3 for team2, got %d", got)
	}
}

func TestRaceRoundBothWrongLocksWithoutAward(t *testing.T) {
	pools := testPools()
	machine, ledger := newTestRound(t, domain.RoundImage, DefaultRules(), pools)

	view := machine.View()
	answer := map[string]string{}
	for _, q := range pools.Images {
		answer[q.Image] = q.Options[q.Answer]
	}
	wrong := (optionIndex(t, view.Question.Options, answer[view.Question.Image]) + 1) % len(view.Question.Options)

	for _, team := range domain.TeamKeys {
		if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: team, Index: wrong}); err != nil {
			t.Fatalf("%s answer: %v", team, err)
		}
	}
	if machine.Phase() != domain.PhaseLocked || machine.View().Outcome != domain.OutcomeIncorrect {
		t.Fatalf("expected incorrect lock, got %+v", machine.View())
	}
	scores := ledger.Snapshot()
	if scores.Total(domain.Team1)+scores.Total(domain.Team2) != 0 {
		t.Fatalf("expected no award, got %+v", scores.Totals)
	}
}

func TestRaceRoundSamePassAwardsExactlyOnce(t *testing.T) {
	pools := testPools()
	for seed := int64(0); seed < 20; seed++ {
		ledger := NewScoreLedger()
		machine, err := NewRound("run", domain.RoundImage, DefaultRules(), pools, sampler.New(seed), ledger)
		if err != nil {
			t.Fatalf("new round: %v", err)
		}
		view := machine.View()
		correct := -1
		for _, q := range pools.Images {
			if q.Image == view.Question.Image {
				correct = optionIndex(t, view.Question.Options, q.Options[q.Answer])
			}
		}

		first, second := domain.TeamKeys[seed%2], domain.TeamKeys[(seed+1)%2]
		if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: first, Index: correct}); err != nil {
			t.Fatalf("first answer: %v", err)
		}
		if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: second, Index: correct}); !errors.Is(err, domain.ErrQuestionLocked) {
			t.Fatalf("expected second answer rejected, got %v", err)
		}

		scores := ledger.Snapshot()
		if scores.Total(first) != 20 || scores.Total(second) != 0 {
			t.Fatalf("seed %d: expected exactly one award to %s, got %+v", seed, first, scores.Totals)
		}
	}
}

func TestBonusRoundReadyPhaseAndSuddenDeath(t *testing.T) {
	pools := testPools()
	machine, ledger := newTestRound(t, domain.RoundBonus, DefaultRules(), pools)

	if machine.Phase() != domain.PhaseReady || machine.View().Remaining != 3 {
		t.Fatalf("expected 3s ready phase, got %+v", machine.View())
	}
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: domain.Team1, Index: 0}); !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	for i := 0; i < 3; i++ {
		machine.Tick()
	}
	view := machine.View()
	if view.Phase != domain.PhaseAwaiting || view.Remaining != 10 || view.Total != 3 {
		t.Fatalf("expected first of 3 questions with 10s, got %+v", view)
	}

	answers := map[string]string{}
	for _, q := range pools.Bonus {
		answers[q.Prompt] = q.Options[q.Answer]
	}
	correct := optionIndex(t, view.Question.Options, answers[view.Question.Prompt])
	if err := machine.Apply(domain.Event{Type: domain.EventSelectOption, Team: domain.Team2, Index: correct}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	done, err := machine.Resolve()
	if err != nil || !done {
		t.Fatalf("expected first correct answer to end the round, got done=%v err=%v", done, err)
	}
	if got := ledger.Snapshot().Round(domain.Team2, domain.RoundBonus); got != 50 {
		t.Fatalf("expected 50 bonus points, got %d", got)
	}
}

func TestBonusRoundTiebreakAwardsOnce(t *testing.T) {
	rules := DefaultRules()
	rules.BonusReady = 0
	machine, ledger := newTestRound(t, domain.RoundBonus, rules, testPools())

	for {
		for i := 0; i < rules.Bonus.Seconds; i++ {
			machine.Tick()
		}
		if machine.View().Outcome != domain.OutcomeTimeout {
			t.Fatalf("expected timeout, got %+v", machine.View())
		}
		done, err := machine.Resolve()
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if done {
			break
		}
	}

	view := machine.View()
	if !view.Tiebreak || !view.Winner.Valid() || view.Awarded != 50 {
		t.Fatalf("expected random tiebreak winner, got %+v", view)
	}
	scores := ledger.Snapshot()
	if scores.Round(domain.Team1, domain.RoundBonus)+scores.Round(domain.Team2, domain.RoundBonus) != 50 {
		t.Fatalf("expected exactly one 50 point award, got %+v", scores.PerRound)
	}
	if machine.Resolutions() != 3 {
		t.Fatalf("expected 3 resolutions, got %d", machine.Resolutions())
	}
}

func TestNewRoundRejectsEmptyPool(t *testing.T) {
	pools := testPools()
	pools.Images = nil
	if _, err := NewRound("run", domain.RoundImage, DefaultRules(), pools, sampler.New(1), NewScoreLedger()); !errors.Is(err, domain.ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}
