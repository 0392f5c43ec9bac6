package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/virtbet/vleague/internal/fixtures"
	"github.com/virtbet/vleague/internal/sim"
	"github.com/virtbet/vleague/internal/store"
)

// LiveMatch is one fixture of the active week with its progressive score
// at the engine's current elapsed time.
type LiveMatch struct {
	MatchID   string      `json:"match_id"`
	Home      string      `json:"home"`
	Away      string      `json:"away"`
	HomeScore int         `json:"home_score"`
	AwayScore int         `json:"away_score"`
	Minute    int         `json:"minute"`
	Final     bool        `json:"final"`
	Events    []sim.Event `json:"events,omitempty"`
}

// WeekFixtures returns the fixtures of a 1-based week in the current
// season's schedule.
func (e *Engine) WeekFixtures(week int) ([]fixtures.Fixture, error) {
	return e.fixturesFor(e.Snapshot(), week)
}

func (e *Engine) fixturesFor(s State, week int) ([]fixtures.Fixture, error) {
	weeks, err := fixtures.Generate(e.lg, s.SeasonIdx, s.Salt, e.reducer.WeeksPerSeason)
	if err != nil {
		return nil, err
	}
	if week < 1 || week > len(weeks) {
		return nil, fmt.Errorf("week %d out of range 1..%d", week, len(weeks))
	}
	return weeks[week-1].Fixtures, nil
}

// CurrentMatches simulates the active week's matches and reports the score
// each has reached at the current display minute.
func (e *Engine) CurrentMatches(ctx context.Context) ([]LiveMatch, error) {
	s := e.Snapshot()
	fx, err := e.WeekFixtures(s.Week)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(fx))
	for i, f := range fx {
		ids[i] = sim.MatchID(e.lg.Code, s.Week-1, i, f.Home.Short, f.Away.Short)
	}
	overrides, err := e.overridesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	elapsed := displayMinute(s)
	out := make([]LiveMatch, 0, len(fx))
	for i, f := range fx {
		res := sim.Simulate(ids[i], e.duration, overrides[ids[i]])
		h, a := sim.ScoreAt(res.Events, elapsed, e.duration, sim.ReferenceMinutes)
		out = append(out, LiveMatch{
			MatchID:   ids[i],
			Home:      f.Home.Name,
			Away:      f.Away.Name,
			HomeScore: h,
			AwayScore: a,
			Minute:    elapsed,
			Final:     elapsed >= sim.ReferenceMinutes,
			Events:    res.Events,
		})
	}
	return out, nil
}

// Lookup simulates a single match id, honoring any stored override.
func (e *Engine) Lookup(ctx context.Context, matchID string) (sim.Result, error) {
	row, err := e.repo.GetResult(ctx, matchID)
	if err != nil {
		return sim.Result{}, err
	}
	return sim.Simulate(matchID, e.duration, overrideFrom(row)), nil
}

// finalizeWeek writes final result rows for every fixture of the week that
// just finished. Rows an admin already marked final are left untouched.
func (e *Engine) finalizeWeek(ctx context.Context, s State) error {
	fx, err := e.fixturesFor(s, s.Week)
	if err != nil {
		return err
	}
	ids := make([]string, len(fx))
	for i, f := range fx {
		ids[i] = sim.MatchID(e.lg.Code, s.Week-1, i, f.Home.Short, f.Away.Short)
	}
	existing, err := e.repo.GetResults(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]store.MatchResult, len(existing))
	for _, m := range existing {
		byID[m.MatchID] = m
	}

	now := e.sched.Now()
	for i := range fx {
		id := ids[i]
		if row, ok := byID[id]; ok && row.IsFinal == "yes" {
			continue
		}
		var ov *sim.Override
		if row, ok := byID[id]; ok {
			m := row
			ov = overrideFrom(&m)
		}
		res := sim.Simulate(id, e.duration, ov)
		err := e.repo.UpsertResult(ctx, store.MatchResult{
			MatchID:   id,
			HomeGoals: res.HomeGoals,
			AwayGoals: res.AwayGoals,
			Result:    res.FinalScore,
			Winner:    res.Winner,
			IsFinal:   "yes",
			GoalTimes: displayTimes(res.Events, e.duration),
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("finalize %s: %w", id, err)
		}
	}
	return nil
}

func (e *Engine) overridesFor(ctx context.Context, ids []string) (map[string]*sim.Override, error) {
	rows, err := e.repo.GetResults(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*sim.Override, len(rows))
	for i := range rows {
		out[rows[i].MatchID] = overrideFrom(&rows[i])
	}
	return out, nil
}

// overrideFrom turns a stored result row into a simulator override.
func overrideFrom(row *store.MatchResult) *sim.Override {
	if row == nil {
		return nil
	}
	return &sim.Override{
		HomeGoals: row.HomeGoals,
		AwayGoals: row.AwayGoals,
		Winner:    row.Winner,
		GoalTimes: row.GoalTimeList(),
		UpdatedAt: row.UpdatedAt,
	}
}

// displayMinute maps the phase onto the 0-90 display clock.
func displayMinute(s State) int {
	switch s.Phase {
	case store.PhasePlaying:
		return s.Minute
	case store.PhaseBetting:
		return sim.ReferenceMinutes
	default:
		return 0
	}
}

// displayTimes rescales simulated event minutes back onto the 0-90 display
// range so a replay through the override path reproduces the same compressed
// timings. Rounding up keeps floor(t90*duration/90) equal to the original t.
func displayTimes(events []sim.Event, duration int) string {
	if len(events) == 0 {
		return ""
	}
	parts := make([]string, len(events))
	for i, ev := range events {
		t90 := (ev.Time*sim.ReferenceMinutes + duration - 1) / duration
		parts[i] = strconv.Itoa(t90)
	}
	return strings.Join(parts, ",")
}
