package memory

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/season"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
)

//go:embed teams.yaml
var teamsYAML []byte

type teamSeedFile struct {
	Teams []struct {
		Code   string `yaml:"code"`
		Name   string `yaml:"name"`
		Points int    `yaml:"points"`
	} `yaml:"teams"`
}

// SeedTeams returns the 32 NFL franchises keyed by their code.
func SeedTeams() ([]team.Team, error) {
	var file teamSeedFile
	if err := yaml.Unmarshal(teamsYAML, &file); err != nil {
		return nil, fmt.Errorf("decode team seed: %w", err)
	}
	out := make([]team.Team, 0, len(file.Teams))
	for _, row := range file.Teams {
		code := team.NormalizeCode(row.Code)
		item := team.Team{
			ID:                 code,
			Code:               code,
			DisplayName:        strings.TrimSpace(row.Name),
			DefaultPointsValue: row.Points,
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("team seed %s: %w", row.Code, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Seed loads reference data into an empty store: the team table and, when
// seasonYear > 0, one active season with id equal to the year.
func Seed(ctx context.Context, store *Store, seasonYear int) error {
	teams, err := SeedTeams()
	if err != nil {
		return err
	}

	store.mu.Lock()
	for _, item := range teams {
		store.teams[item.ID] = item
	}
	store.mu.Unlock()

	if seasonYear <= 0 {
		return nil
	}
	return NewSeasonRepository(store).Upsert(ctx, season.Season{
		ID:       int64(seasonYear),
		Year:     seasonYear,
		IsActive: true,
	})
}
