package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quiz-battle/internal/domain"
	"quiz-battle/internal/sampler"
	"quiz-battle/internal/timer"
)

// SnapshotStore persists the session snapshot under a single key.
type SnapshotStore interface {
	// Load returns domain.ErrSnapshotNotFound when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// PoolRepository loads the question pools (from cache/backing store).
type PoolRepository interface {
	GetPools(ctx context.Context) (domain.Pools, error)
}

// Option customizes a GameService.
type Option func(*GameService)

func WithClock(clock clockwork.Clock) Option {
	return func(s *GameService) { s.clock = clock }
}

func WithSampler(smp *sampler.Sampler) Option {
	return func(s *GameService) { s.sampler = smp }
}

func WithRules(rules Rules) Option {
	return func(s *GameService) { s.rules = rules }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *GameService) { s.log = logger }
}

// GameService is the single arbiter of a game. User events, timer ticks and
// delayed resolutions are all applied under one mutex, in arrival order.
type GameService struct {
	store   SnapshotStore
	pools   PoolRepository
	sampler *sampler.Sampler
	clock   clockwork.Clock
	rules   Rules
	log     zerolog.Logger

	mu          sync.Mutex
	session     *Session
	run         RoundMachine
	pending     clockwork.Timer
	gen         uint64
	subscribers map[chan domain.GameView]struct{}
}

// NewGameService restores the persisted session. A missing or unreadable
// snapshot starts a fresh game.
func NewGameService(ctx context.Context, store SnapshotStore, pools PoolRepository, opts ...Option) *GameService {
	s := &GameService{
		store:       store,
		pools:       pools,
		clock:       clockwork.NewRealClock(),
		rules:       DefaultRules(),
		log:         zerolog.Nop(),
		session:     NewSession(),
		subscribers: make(map[chan domain.GameView]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sampler == nil {
		s.sampler = sampler.NewRandom()
	}
	s.restore(ctx)
	return s
}

func (s *GameService) restore(ctx context.Context) {
	data, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		s.log.Info().Msg("no saved game, starting fresh")
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("load saved game failed, starting fresh")
		return
	}
	st, warnings, err := decodeSnapshot(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("saved game is malformed, starting fresh")
		return
	}
	for _, w := range warnings {
		s.log.Warn().Str("detail", w).Msg("saved game migrated")
	}
	s.session.restore(st)
	s.log.Info().Int("round", st.Round).Bool("bonus", st.BonusActive).Msg("saved game restored")
}

// StartGame resets the session and names the teams.
func (s *GameService) StartGame(ctx context.Context, team1, team2 string) domain.GameView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropRunLocked()
	s.session.Reset()
	s.session.SetTeamNames(team1, team2)
	teams := s.session.Teams()
	s.log.Info().Str("team1", teams.Team1).Str("team2", teams.Team2).Msg("game started")
	s.persistLocked(ctx)
	return s.broadcastLocked()
}

// SetTeamNames renames the teams without touching scores or rounds.
func (s *GameService) SetTeamNames(ctx context.Context, team1, team2 string) domain.GameView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.SetTeamNames(team1, team2)
	s.persistLocked(ctx)
	return s.broadcastLocked()
}

// ResetGame discards the active run and every score and clears the saved game.
func (s *GameService) ResetGame(ctx context.Context) domain.GameView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropRunLocked()
	s.session.Reset()
	if err := s.store.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("clear saved game failed")
	}
	s.log.Info().Msg("game reset")
	return s.broadcastLocked()
}

// EnterRound starts the current round, or the bonus round once the game is
// finished on a tie. Entering while a run is active returns that run.
func (s *GameService) EnterRound(ctx context.Context) (domain.GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		return s.viewLocked(), nil
	}

	round, ok := s.session.CurrentRound()
	if !ok {
		if !s.session.BonusActive() {
			return s.viewLocked(), domain.ErrGameFinished
		}
		round = domain.RoundBonus
	}

	pools, err := s.pools.GetPools(ctx)
	if err != nil {
		return s.viewLocked(), err
	}
	run, err := NewRound(uuid.NewString(), round, s.rules, pools, s.sampler, s.session)
	if err != nil {
		return s.viewLocked(), err
	}
	s.run = run
	s.log.Info().Str("run_id", run.ID()).Str("round", string(round)).Int("questions", run.View().Total).Msg("round entered")
	return s.broadcastLocked(), nil
}

// AbandonRound discards the active run. Points it already awarded stay; a
// bonus run that already awarded its points is completed instead.
func (s *GameService) AbandonRound(ctx context.Context) (domain.GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return s.viewLocked(), domain.ErrNoActiveRound
	}
	run := s.run
	settled := s.settleBonusLocked()
	s.dropRunLocked()
	if settled {
		s.completeLocked(run)
	} else {
		s.log.Info().Str("run_id", run.ID()).Str("round", string(run.Round())).Msg("round abandoned")
	}
	s.persistLocked(ctx)
	return s.broadcastLocked(), nil
}

// Dispatch applies one user event to the active run.
func (s *GameService) Dispatch(ctx context.Context, ev domain.Event) (domain.GameView, error) {
	view, errs := s.DispatchBatch(ctx, []domain.Event{ev})
	return view, errs[0]
}

// DispatchBatch applies the events received in one processing pass in
// order. Each event sees the effect of the ones before it, so of two
// competing answers the first accepted one wins. errs[i] belongs to evs[i].
func (s *GameService) DispatchBatch(ctx context.Context, evs []domain.Event) (domain.GameView, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make([]error, len(evs))
	accepted := 0
	for i, ev := range evs {
		if s.run == nil {
			errs[i] = domain.ErrNoActiveRound
			continue
		}
		before := s.run.Phase()
		if err := s.run.Apply(ev); err != nil {
			errs[i] = err
			continue
		}
		accepted++
		if before != domain.PhaseLocked && s.run.Phase() == domain.PhaseLocked {
			s.logLockLocked()
			s.settleBonusLocked()
		}
	}
	if accepted == 0 {
		return s.viewLocked(), errs
	}
	s.scheduleLocked()
	s.persistLocked(ctx)
	return s.broadcastLocked(), errs
}

// Tick advances the active question countdown by one second.
func (s *GameService) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return
	}
	before := s.run.Phase()
	s.run.Tick()
	if before != domain.PhaseLocked && s.run.Phase() == domain.PhaseLocked {
		s.logLockLocked()
		s.scheduleLocked()
	}
	s.broadcastLocked()
}

// Run ticks the service once per second until ctx is done.
func (s *GameService) Run(ctx context.Context) {
	timer.Run(ctx, s.clock, time.Second, func() { s.Tick(ctx) })
}

// View returns the scoreboard and the active run, if any.
func (s *GameService) View() domain.GameView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *GameService) Scoreboard() domain.Scoreboard {
	return s.session.Scoreboard()
}

// Subscribe returns a channel that receives a view after every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context) (<-chan domain.GameView, func()) {
	ch := make(chan domain.GameView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// scheduleLocked arms the delayed resolution of a locked question. The
// timer carries the generation it was armed in; anything that replaces the
// run or the question bumps the generation and the stale callback does nothing.
func (s *GameService) scheduleLocked() {
	if s.run == nil || s.run.Phase() != domain.PhaseLocked || s.pending != nil {
		return
	}
	s.gen++
	gen := s.gen
	s.pending = s.clock.AfterFunc(s.rules.For(s.run.Round()).Delay, func() {
		s.resolveScheduled(gen)
	})
}

func (s *GameService) resolveScheduled(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.run == nil {
		return
	}
	s.pending = nil

	run := s.run
	done, err := run.Resolve()
	if err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID()).Msg("resolve question failed")
		return
	}
	if done {
		s.completeLocked(run)
	}
	s.persistLocked(context.Background())
	s.broadcastLocked()
}

func (s *GameService) completeLocked(run RoundMachine) {
	view := run.View()
	if view.Tiebreak {
		s.log.Info().Str("run_id", run.ID()).Str("team", string(view.Winner)).Int("points", view.Awarded).Msg("bonus decided by draw")
	}
	if err := s.session.CompleteRound(run.Round()); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID()).Msg("complete round failed")
	}
	board := s.session.Scoreboard()
	s.log.Info().
		Str("run_id", run.ID()).
		Str("round", string(run.Round())).
		Int("team1", board.Scores.Total(domain.Team1)).
		Int("team2", board.Scores.Total(domain.Team2)).
		Bool("bonus", board.BonusActive).
		Msg("round completed")
	s.run = nil
}

// settleBonusLocked finishes the game as soon as the bonus round has awarded
// its points, so the saved session never holds both the bonus award and the
// bonus flag. It reports whether the active run is a settled bonus run.
func (s *GameService) settleBonusLocked() bool {
	if s.run == nil || s.run.Round() != domain.RoundBonus || s.run.View().Winner == "" {
		return false
	}
	if s.session.BonusActive() {
		if err := s.session.CompleteRound(domain.RoundBonus); err != nil {
			s.log.Error().Err(err).Str("run_id", s.run.ID()).Msg("settle bonus failed")
		}
	}
	return true
}

func (s *GameService) logLockLocked() {
	v := s.run.View()
	evt := s.log.Info().Str("run_id", v.RunID).Str("round", string(v.Round)).Int("question", v.Index).Str("outcome", string(v.Outcome))
	if v.Winner != "" {
		evt = evt.Str("team", string(v.Winner)).Int("points", v.Awarded)
	}
	evt.Msg("question locked")
}

func (s *GameService) dropRunLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.gen++
	s.run = nil
}

// persistLocked saves the session. A failed save is logged and play goes on.
func (s *GameService) persistLocked(ctx context.Context) {
	data, err := encodeSnapshot(s.session.state())
	if err != nil {
		s.log.Error().Err(err).Msg("encode game failed")
		return
	}
	if err := s.store.Save(ctx, data); err != nil {
		s.log.Error().Err(err).Msg("save game failed")
	}
}

func (s *GameService) viewLocked() domain.GameView {
	view := domain.GameView{Scoreboard: s.session.Scoreboard()}
	if s.run != nil {
		rv := s.run.View()
		view.Round = &rv
	}
	return view
}

func (s *GameService) broadcastLocked() domain.GameView {
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow subscriber: replace its stale view with the latest one.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}
