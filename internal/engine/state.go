package engine

import (
	"time"

	"github.com/virtbet/vleague/internal/store"
)

// State is the in-memory phase machine state. It mirrors the persisted
// global row plus the rollover idempotency guard, which is local-only.
type State struct {
	SeasonIdx int
	Salt      string
	Week      int // 1-based
	Phase     string
	Countdown int // seconds remaining in pre-countdown/betting/next-countdown
	Minute    int // display match minute, 0..90, meaningful while playing

	// LastProcessedWeek guards the week-advance step against running twice
	// for the same betting-window expiry.
	LastProcessedWeek int
}

// Effect names a side effect the runner must perform after a transition.
type Effect int

const (
	// EffectMatchStarted fires when pre-countdown expires and play begins.
	EffectMatchStarted Effect = iota
	// EffectWeekFinished fires when play reaches full time; the finished
	// week's results must be finalized.
	EffectWeekFinished
	// EffectWeekAdvanced fires when the betting window closes on a
	// mid-season week.
	EffectWeekAdvanced
	// EffectSeasonRolled fires instead of EffectWeekAdvanced when the final
	// week completes.
	EffectSeasonRolled
)

// Reducer holds the transition parameters. NewSalt is injected so the
// transition logic stays deterministic under test.
type Reducer struct {
	WeeksPerSeason int
	PreCountdown   int
	BettingWindow  int
	NewSalt        func() string
}

// Tick advances the machine by one second.
func (r Reducer) Tick(s State) (State, []Effect) {
	var effects []Effect
	switch s.Phase {
	case store.PhasePreCountdown:
		s.Countdown--
		if s.Countdown <= 0 {
			s.Phase = store.PhasePlaying
			s.Minute = 0
			s.Countdown = 0
			effects = append(effects, EffectMatchStarted)
		}

	case store.PhasePlaying:
		s.Minute++
		if s.Minute >= 90 {
			s.Minute = 90
			s.Phase = store.PhaseBetting
			s.Countdown = r.BettingWindow
			effects = append(effects, EffectWeekFinished)
		}

	case store.PhaseBetting:
		s.Countdown--
		if s.Countdown <= 0 {
			s, effects = r.advanceWeek(s, effects)
		}

	case store.PhaseNextCountdown:
		s.Countdown--
		if s.Countdown <= 0 {
			s.Phase = store.PhasePreCountdown
			s.Countdown = r.PreCountdown
		}

	default:
		// Unknown phase: repair rather than propagate.
		s.Phase = store.PhasePreCountdown
		s.Countdown = r.PreCountdown
	}
	return s, effects
}

// advanceWeek moves to the next week, or rolls the season over when the
// final week just completed. Processing the same week twice only resets
// the phase; the index advances once.
func (r Reducer) advanceWeek(s State, effects []Effect) (State, []Effect) {
	completed := s.Week
	if s.LastProcessedWeek != completed {
		s.LastProcessedWeek = completed
		if completed >= r.WeeksPerSeason {
			s.SeasonIdx++
			s.Salt = r.NewSalt()
			s.Week = 1
			s.LastProcessedWeek = 0
			effects = append(effects, EffectSeasonRolled)
		} else {
			s.Week++
			effects = append(effects, EffectWeekAdvanced)
		}
	}
	s.Phase = store.PhasePreCountdown
	s.Countdown = r.PreCountdown
	s.Minute = 0
	return s, effects
}

// Reconcile derives a local state from a fetched row, adjusting counters by
// the time elapsed since the row was written. Stored countdowns are frozen
// values; real time kept passing after the write, so trusting them as-is
// would leave every joiner behind by the store's write latency.
func Reconcile(stored store.GlobalState, now time.Time) State {
	s := State{
		SeasonIdx: stored.FixtureSetIdx,
		Salt:      stored.FixtureSalt,
		Week:      stored.CurrentWeek,
		Phase:     stored.MatchState,
	}
	if s.Week < 1 {
		s.Week = 1
	}
	if s.Salt == "" {
		s.Salt = store.SaltForSeason(s.SeasonIdx)
	}
	if !store.ValidPhase(s.Phase) {
		s.Phase = store.PhasePreCountdown
		s.Countdown = store.DefaultPreCountdown
		return s
	}

	elapsed := int(now.Sub(stored.UpdatedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	if s.Phase == store.PhasePlaying {
		s.Minute = stored.Countdown + elapsed
		if s.Minute > 90 {
			s.Minute = 90
		}
	} else {
		s.Countdown = stored.Countdown - elapsed
		if s.Countdown < 0 {
			s.Countdown = 0
		}
	}
	return s
}

// toStored maps the in-memory state onto the persisted row shape. During
// play the countdown column carries the elapsed match minute.
func toStored(s State, timeframeIdx int64, now time.Time) store.GlobalState {
	counter := s.Countdown
	if s.Phase == store.PhasePlaying {
		counter = s.Minute
	}
	return store.GlobalState{
		ID:            store.GlobalStateID,
		CurrentWeek:   s.Week,
		TimeframeIdx:  timeframeIdx,
		FixtureSetIdx: s.SeasonIdx,
		FixtureSalt:   s.Salt,
		MatchState:    s.Phase,
		Countdown:     counter,
		UpdatedAt:     now,
	}
}
