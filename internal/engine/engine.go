// Package engine runs the global phase machine: pre-countdown, playing,
// betting, next-countdown, in a loop, persisting every tick. One process
// (the leader) drives transitions; everyone else mirrors the stored row and
// re-derives local counters from it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/virtbet/vleague/internal/fixtures"
	"github.com/virtbet/vleague/internal/leader"
	"github.com/virtbet/vleague/internal/league"
	"github.com/virtbet/vleague/internal/schedule"
	"github.com/virtbet/vleague/internal/sim"
	"github.com/virtbet/vleague/internal/store"
)

// stuckGrace is how long a non-positive countdown may sit unchanged before
// a client forces the transition locally and re-persists.
const stuckGrace = 3 * time.Second

type Engine struct {
	repo    *store.Repo
	sched   *schedule.Clock
	elector leader.Elector
	lg      *league.League
	cw      clockwork.Clock
	reducer Reducer

	// duration is the compressed simulated match length in minutes.
	duration int

	mu           sync.RWMutex
	state        State
	lastProgress time.Time
}

func New(repo *store.Repo, sched *schedule.Clock, elector leader.Elector, lg *league.League, cw clockwork.Clock) *Engine {
	if cw == nil {
		cw = clockwork.NewRealClock()
	}
	if elector == nil {
		elector = leader.Static(true)
	}
	return &Engine{
		repo:    repo,
		sched:   sched,
		elector: elector,
		lg:      lg,
		cw:      cw,
		reducer: Reducer{
			WeeksPerSeason: fixtures.WeeksPerSeason,
			PreCountdown:   store.DefaultPreCountdown,
			BettingWindow:  store.DefaultBettingWindow,
			NewSalt:        NewSalt,
		},
		duration: sim.DefaultDuration,
	}
}

// NewSalt produces a fixture salt that will never repeat in practice.
func NewSalt() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// Run loads the persisted state and ticks once per second until the context
// is cancelled.
func (e *Engine) Run(ctx context.Context) {
	now := e.sched.Now()
	stored, err := e.repo.LoadState(ctx)
	if err != nil {
		slog.Error("load global state, starting from defaults", "error", err)
		stored = store.DefaultState()
		stored.UpdatedAt = now
	}
	e.setState(Reconcile(stored, now), now)
	slog.Info("engine started",
		"season", stored.FixtureSetIdx, "week", stored.CurrentWeek, "phase", stored.MatchState)

	ticker := e.cw.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return
		case <-ticker.Chan():
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	now := e.sched.Now()
	if e.elector.IsLeader(ctx) {
		e.lead(ctx, now)
	} else {
		e.follow(ctx, now)
	}
}

// lead advances the machine one second and persists the result. Store
// failures are logged and swallowed: the local clock keeps running and the
// next successful write self-heals.
func (e *Engine) lead(ctx context.Context, now time.Time) {
	next, effects := e.reducer.Tick(e.Snapshot())

	for _, eff := range effects {
		switch eff {
		case EffectMatchStarted:
			slog.Info("week kicked off", "season", next.SeasonIdx, "week", next.Week)
		case EffectWeekFinished:
			if err := e.finalizeWeek(ctx, next); err != nil {
				slog.Warn("finalize week", "week", next.Week, "error", err)
			}
		case EffectWeekAdvanced:
			slog.Info("week advanced", "season", next.SeasonIdx, "week", next.Week)
		case EffectSeasonRolled:
			slog.Info("season rolled over", "season", next.SeasonIdx, "salt", next.Salt)
		}
	}

	// Persist before adopting locally; on rollover the store must learn the
	// new season first so late joiners never regenerate the old schedule.
	if err := e.repo.SaveState(ctx, toStored(next, e.sched.CurrentSlot(), now)); err != nil {
		slog.Warn("persist global state", "error", err)
	}
	e.setState(next, now)
}

// follow mirrors the stored row. When the store is unreachable the follower
// ticks locally so the visible clock never freezes; when the stored state
// stops moving with an expired countdown, it forces the transition itself.
func (e *Engine) follow(ctx context.Context, now time.Time) {
	stored, err := e.repo.LoadState(ctx)
	if err != nil {
		slog.Warn("poll global state", "error", err)
		next, _ := e.reducer.Tick(e.Snapshot())
		e.setState(next, now)
		return
	}
	s := Reconcile(stored, now)
	e.setState(s, now)

	if s.Phase != store.PhasePlaying && s.Countdown <= 0 && now.Sub(e.progress()) > stuckGrace {
		// Nobody advanced the phase; do it ourselves and try to persist.
		next, _ := e.reducer.Tick(s)
		if err := e.repo.SaveState(ctx, toStored(next, e.sched.CurrentSlot(), now)); err != nil {
			slog.Warn("self-heal persist", "error", err)
		}
		e.setState(next, now)
	}
}

// ForceRollover advances the season immediately, regardless of the current
// week. Admin surface; the regular rollover path is the reducer's.
func (e *Engine) ForceRollover(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state
	next.SeasonIdx++
	next.Salt = e.reducer.NewSalt()
	next.Week = 1
	next.LastProcessedWeek = 0
	next.Phase = store.PhasePreCountdown
	next.Countdown = e.reducer.PreCountdown
	next.Minute = 0

	now := e.sched.Now()
	if err := e.repo.SaveState(ctx, toStored(next, e.sched.CurrentSlot(), now)); err != nil {
		return e.state, fmt.Errorf("persist rollover: %w", err)
	}
	e.state = next
	e.lastProgress = now
	return next, nil
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State, now time.Time) {
	e.mu.Lock()
	if s != e.state {
		e.lastProgress = now
	}
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) progress() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastProgress
}
