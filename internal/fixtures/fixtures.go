// Package fixtures generates round-robin schedules. The output is a pure
// function of (league, season index, salt): every process that holds the
// same inputs derives the same schedule, which is what lets independent
// clients agree on who plays whom without ever exchanging fixture data.
package fixtures

import (
	"fmt"
	"strconv"

	"github.com/virtbet/vleague/internal/league"
	"github.com/virtbet/vleague/internal/rng"
)

// WeeksPerSeason is the rollover boundary: advancing past this week starts
// a new season with a fresh salt.
const WeeksPerSeason = 36

type Fixture struct {
	Home league.Team `json:"home"`
	Away league.Team `json:"away"`
}

type Week struct {
	Number   int       `json:"number"` // 1-based
	Fixtures []Fixture `json:"fixtures"`
}

// Seed derives the numeric fixture seed for a season.
func Seed(leagueName string, seasonIdx int, salt string) uint32 {
	return rng.Hash(leagueName + "_" + strconv.Itoa(seasonIdx) + "_" + salt)
}

// Generate produces `weeks` weeks of fixtures for the league. The circle
// method yields n-1 distinct rounds for n teams; those rounds are cycled
// and renumbered until the requested week count is reached.
func Generate(lg *league.League, seasonIdx int, salt string, weeks int) ([]Week, error) {
	if lg == nil || len(lg.Teams) == 0 {
		return nil, fmt.Errorf("fixtures: empty team list")
	}
	if len(lg.Teams)%2 != 0 {
		return nil, fmt.Errorf("fixtures: odd team count %d", len(lg.Teams))
	}
	if weeks < 1 {
		return nil, fmt.Errorf("fixtures: non-positive week count %d", weeks)
	}

	teams := shuffled(lg.Teams, Seed(lg.Name, seasonIdx, salt))
	rounds := circle(teams)

	out := make([]Week, 0, weeks)
	for w := 0; w < weeks; w++ {
		round := rounds[w%len(rounds)]
		fx := make([]Fixture, len(round))
		copy(fx, round)
		out = append(out, Week{Number: w + 1, Fixtures: fx})
	}
	return out, nil
}

// shuffled returns a seeded Fisher-Yates permutation of the team list.
func shuffled(teams []league.Team, seed uint32) []league.Team {
	out := make([]league.Team, len(teams))
	copy(out, teams)
	src := rng.NewShuffle(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// circle runs the round-robin circle method: the first team stays fixed,
// the rest rotate one position each round, pairing position i with n-1-i.
func circle(teams []league.Team) [][]Fixture {
	n := len(teams)
	rot := make([]league.Team, n)
	copy(rot, teams)

	rounds := make([][]Fixture, 0, n-1)
	for r := 0; r < n-1; r++ {
		fx := make([]Fixture, 0, n/2)
		for i := 0; i < n/2; i++ {
			fx = append(fx, Fixture{Home: rot[i], Away: rot[n-1-i]})
		}
		rounds = append(rounds, fx)

		// Rotate everything but the first slot.
		last := rot[n-1]
		copy(rot[2:], rot[1:n-1])
		rot[1] = last
	}
	return rounds
}
