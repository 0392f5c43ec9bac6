package store

import (
	"strconv"
	"strings"
	"time"
)

// Phase strings as persisted in the global state row. Anything else found
// in the column is treated as corrupt and repaired to PhasePreCountdown.
const (
	PhasePreCountdown  = "pre-countdown"
	PhasePlaying       = "playing"
	PhaseBetting       = "betting"
	PhaseNextCountdown = "next-countdown"
)

const (
	// GlobalStateID is the fixed key of the singleton state row.
	GlobalStateID = "global-state"

	DefaultPreCountdown  = 5  // seconds
	DefaultBettingWindow = 30 // seconds
)

// GlobalState is the single shared row every client reconciles against.
type GlobalState struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	CurrentWeek   int       `gorm:"column:current_week" json:"current_week"`                   // 1-based
	TimeframeIdx  int64     `gorm:"column:current_timeframe_idx" json:"current_timeframe_idx"` // 0-based global slot
	FixtureSetIdx int       `gorm:"column:fixture_set_idx" json:"fixture_set_idx"`
	FixtureSalt   string    `gorm:"column:fixture_salt" json:"fixture_salt"`
	MatchState    string    `gorm:"column:match_state" json:"match_state"`
	Countdown     int       `gorm:"column:countdown" json:"countdown"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// DefaultState returns the row written on first boot. The salt is derived
// from the season index so a missing salt is always repairable.
func DefaultState() GlobalState {
	return GlobalState{
		ID:            GlobalStateID,
		CurrentWeek:   1,
		FixtureSetIdx: 0,
		FixtureSalt:   SaltForSeason(0),
		MatchState:    PhasePreCountdown,
		Countdown:     DefaultPreCountdown,
	}
}

// SaltForSeason is the fallback salt used when the stored one is missing.
func SaltForSeason(seasonIdx int) string {
	return "season-" + strconv.Itoa(seasonIdx)
}

// ValidPhase reports whether s is one of the four known phase strings.
func ValidPhase(s string) bool {
	switch s {
	case PhasePreCountdown, PhasePlaying, PhaseBetting, PhaseNextCountdown:
		return true
	}
	return false
}

// MatchResult is both the persisted outcome of a finished match and, when
// written by an admin ahead of time, the authoritative override the
// simulator honors. is_final is a yes/no string for backend compatibility.
type MatchResult struct {
	MatchID   string    `gorm:"primaryKey;column:match_id" json:"match_id"`
	HomeGoals int       `gorm:"column:home_goals" json:"home_goals"`
	AwayGoals int       `gorm:"column:away_goals" json:"away_goals"`
	Result    string    `gorm:"column:result" json:"result"` // "H-A"
	Winner    string    `gorm:"column:winner" json:"winner"` // home|away|draw
	IsFinal   string    `gorm:"column:is_final" json:"is_final"`
	GoalTimes string    `gorm:"column:goal_times" json:"goal_times,omitempty"` // optional, comma-separated 0-90 minutes
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// GoalTimeList parses the optional explicit timing column.
func (m *MatchResult) GoalTimeList() []int {
	if m.GoalTimes == "" {
		return nil
	}
	parts := strings.Split(m.GoalTimes, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}
