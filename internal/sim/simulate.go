// Package sim turns a match identifier into a full goal timeline. The
// simulation is pure: the same identifier (and the same override version)
// always produces the same result, so every client that renders a match
// renders the identical one without any coordination.
package sim

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/virtbet/vleague/internal/rng"
)

const (
	SideHome = "home"
	SideAway = "away"
	Draw     = "draw"

	// ReferenceMinutes is the displayed match length; simulated events live
	// on a compressed clock of `duration` minutes and are mapped back onto
	// the 0-90 display range.
	ReferenceMinutes = 90

	// DefaultDuration is the compressed match duration in simulated minutes.
	DefaultDuration = 40
)

// Override is an externally supplied authoritative outcome. It pins the
// final score; timing stays pseudo-random unless GoalTimes supplies an
// explicit list (on the 0-90 reference scale, one entry per goal).
type Override struct {
	HomeGoals int
	AwayGoals int
	Winner    string // optional; derived from goals when empty
	GoalTimes []int
	UpdatedAt time.Time // zero means unversioned
}

type Event struct {
	Time int    `json:"time"` // simulated minute
	Side string `json:"side"`
}

type Result struct {
	HomeGoals  int     `json:"home_goals"`
	AwayGoals  int     `json:"away_goals"`
	Winner     string  `json:"winner"`
	Events     []Event `json:"events"`
	FinalScore string  `json:"final_score"`
}

// Simulate computes the match outcome for an identifier. When an override
// carries an update timestamp, the timestamp is folded into the seed, so a
// re-issued override deterministically produces a new timeline while the
// score stays pinned.
func Simulate(id string, duration int, ov *Override) Result {
	seed := id
	if ov != nil && !ov.UpdatedAt.IsZero() {
		seed = id + "-" + strconv.FormatInt(ov.UpdatedAt.UnixMilli(), 10)
	}
	gen := rng.New(rng.Hash(seed))

	var home, away int
	var times []int
	if ov != nil {
		home, away = ov.HomeGoals, ov.AwayGoals
		total := home + away
		if len(ov.GoalTimes) == total && total > 0 {
			times = rescale(ov.GoalTimes, duration)
		} else {
			times = spread(gen, total, duration)
		}
	} else {
		home = int(gen.Float64() * 4)
		away = int(gen.Float64() * 4)
		times = spread(gen, home+away, duration)
	}

	events := assign(gen, times, home)

	winner := Draw
	switch {
	case ov != nil && ov.Winner != "":
		winner = ov.Winner
	case home > away:
		winner = SideHome
	case away > home:
		winner = SideAway
	}

	return Result{
		HomeGoals:  home,
		AwayGoals:  away,
		Winner:     winner,
		Events:     events,
		FinalScore: fmt.Sprintf("%d-%d", home, away),
	}
}

// ScoreAt maps elapsed display minutes onto the compressed duration and
// counts the goals that have happened by then. Monotonic in elapsed, and
// equal to the final score once elapsed reaches the reference length.
func ScoreAt(events []Event, elapsed, duration, reference int) (home, away int) {
	if reference <= 0 {
		reference = ReferenceMinutes
	}
	mapped := elapsed * duration / reference
	if elapsed >= reference {
		mapped = duration
	}
	for _, e := range events {
		if e.Time > mapped {
			continue
		}
		if e.Side == SideHome {
			home++
		} else {
			away++
		}
	}
	return home, away
}

// rescale maps explicit 0-90 goal timings onto the compressed duration,
// clamping both ends so every event stays countable by ScoreAt.
func rescale(ref []int, duration int) []int {
	out := make([]int, len(ref))
	for i, t := range ref {
		m := t * duration / ReferenceMinutes
		if m < 1 {
			m = 1
		}
		if m > duration {
			m = duration
		}
		out[i] = m
	}
	sort.Ints(out)
	return out
}

// spread synthesizes n timings spaced evenly across the duration, each
// jittered by up to a quarter of the even interval.
func spread(gen *rng.Source, n, duration int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	step := float64(duration) / float64(n+1)
	for i := 1; i <= n; i++ {
		jitter := (gen.Float64()*2 - 1) * 0.25 * step
		t := int(step*float64(i) + jitter)
		if t < 1 {
			t = 1
		}
		if t > duration {
			t = duration
		}
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// assign shuffles the timing list, hands the first homeGoals entries to the
// home side and the rest to the away side, then merges both sides back into
// time order. The tally always matches the requested split exactly.
func assign(gen *rng.Source, times []int, homeGoals int) []Event {
	if len(times) == 0 {
		return nil
	}
	shuffled := make([]int, len(times))
	copy(shuffled, times)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(gen.Float64() * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if homeGoals > len(shuffled) {
		homeGoals = len(shuffled)
	}
	h := append([]int(nil), shuffled[:homeGoals]...)
	a := append([]int(nil), shuffled[homeGoals:]...)
	sort.Ints(h)
	sort.Ints(a)

	events := make([]Event, 0, len(times))
	for i, j := 0, 0; i < len(h) || j < len(a); {
		if j >= len(a) || (i < len(h) && h[i] <= a[j]) {
			events = append(events, Event{Time: h[i], Side: SideHome})
			i++
		} else {
			events = append(events, Event{Time: a[j], Side: SideAway})
			j++
		}
	}
	return events
}
