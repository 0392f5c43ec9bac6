// Package league holds the static reference data: teams and the leagues
// they play in. Leagues are loaded once at boot and never mutated.
package league

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type Team struct {
	Name    string `yaml:"name"`
	Short   string `yaml:"short"`
	Country string `yaml:"country,omitempty"`
}

type League struct {
	Name    string `yaml:"name"`
	Code    string `yaml:"code"`
	Country string `yaml:"country"`
	Teams   []Team `yaml:"teams"`
}

// Load reads a league definition from a YAML file and validates it.
// Configuration mistakes are hard errors: the fixture generator cannot
// produce a sane schedule from a broken team list.
func Load(path string) (*League, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read league config: %w", err)
	}
	var lg League
	if err := yaml.Unmarshal(raw, &lg); err != nil {
		return nil, fmt.Errorf("parse league config: %w", err)
	}
	if err := lg.Validate(); err != nil {
		return nil, err
	}
	return &lg, nil
}

// Validate checks the invariants the rest of the system relies on.
func (lg *League) Validate() error {
	if lg.Name == "" || lg.Code == "" {
		return fmt.Errorf("league config: name and code are required")
	}
	if len(lg.Teams) < 2 {
		return fmt.Errorf("league %q: need at least 2 teams, got %d", lg.Name, len(lg.Teams))
	}
	if len(lg.Teams)%2 != 0 {
		return fmt.Errorf("league %q: team count must be even, got %d", lg.Name, len(lg.Teams))
	}
	seen := make(map[string]bool, len(lg.Teams))
	for i, t := range lg.Teams {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Short) == "" {
			return fmt.Errorf("league %q: team %d has an empty name or short name", lg.Name, i)
		}
		key := strings.ToLower(t.Short)
		if seen[key] {
			return fmt.Errorf("league %q: duplicate short name %q", lg.Name, t.Short)
		}
		seen[key] = true
	}
	return nil
}

// Default returns the built-in league used when no config file is given.
func Default() *League {
	return &League{
		Name:    "Premier Virtual League",
		Code:    "pvl",
		Country: "gb",
		Teams: []Team{
			{Name: "Arsenal", Short: "ARS", Country: "gb"},
			{Name: "Aston Villa", Short: "AVL", Country: "gb"},
			{Name: "Brighton", Short: "BHA", Country: "gb"},
			{Name: "Burnley", Short: "BUR", Country: "gb"},
			{Name: "Chelsea", Short: "CHE", Country: "gb"},
			{Name: "Crystal Palace", Short: "CRY", Country: "gb"},
			{Name: "Everton", Short: "EVE", Country: "gb"},
			{Name: "Fulham", Short: "FUL", Country: "gb"},
			{Name: "Liverpool", Short: "LIV", Country: "gb"},
			{Name: "Manchester City", Short: "MCI", Country: "gb"},
			{Name: "Manchester United", Short: "MUN", Country: "gb"},
			{Name: "Newcastle", Short: "NEW", Country: "gb"},
			{Name: "Nottingham Forest", Short: "NFO", Country: "gb"},
			{Name: "Tottenham", Short: "TOT", Country: "gb"},
			{Name: "West Ham", Short: "WHU", Country: "gb"},
			{Name: "Wolves", Short: "WOL", Country: "gb"},
		},
	}
}
