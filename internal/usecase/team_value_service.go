package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
)

// EffectiveTeamValue is a team's value in one league after overrides.
type EffectiveTeamValue struct {
	Team      team.Team `json:"team"`
	Default   int       `json:"default_points_value"`
	Override  *int      `json:"override_points_value,omitempty"`
	Effective int       `json:"points_value"`
}

// TeamValueService resolves point values: league override first, team default otherwise.
type TeamValueService struct {
	teamRepo   team.Repository
	leagueRepo league.Repository
}

func NewTeamValueService(teamRepo team.Repository, leagueRepo league.Repository) *TeamValueService {
	return &TeamValueService{teamRepo: teamRepo, leagueRepo: leagueRepo}
}

// Resolve fails only for an unknown team.
func (s *TeamValueService) Resolve(ctx context.Context, leagueID, teamID string) (int, error) {
	teamID = strings.TrimSpace(teamID)
	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	overrides, err := s.leagueRepo.ListTeamValues(ctx, leagueID)
	if err != nil {
		return 0, fmt.Errorf("list league team values: %w", err)
	}
	for _, v := range overrides {
		if v.TeamID == item.ID {
			return v.PointsValue, nil
		}
	}
	return item.DefaultPointsValue, nil
}

// ResolveAll returns the effective value of every team for a league.
func (s *TeamValueService) ResolveAll(ctx context.Context, leagueID string) (map[string]int, error) {
	rows, err := s.ListEffective(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Team.ID] = row.Effective
	}
	return out, nil
}

// ListEffective lists all teams with default, override and effective value,
// highest effective value first.
func (s *TeamValueService) ListEffective(ctx context.Context, leagueID string) ([]EffectiveTeamValue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamValueService.ListEffective")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	overrides, err := s.leagueRepo.ListTeamValues(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league team values: %w", err)
	}
	return mergeTeamValues(teams, overrides), nil
}

func mergeTeamValues(teams []team.Team, overrides []league.TeamValue) []EffectiveTeamValue {
	byTeam := make(map[string]int, len(overrides))
	for _, v := range overrides {
		byTeam[v.TeamID] = v.PointsValue
	}

	out := make([]EffectiveTeamValue, 0, len(teams))
	for _, t := range teams {
		row := EffectiveTeamValue{Team: t, Default: t.DefaultPointsValue, Effective: t.DefaultPointsValue}
		if v, ok := byTeam[t.ID]; ok {
			override := v
			row.Override = &override
			row.Effective = v
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Effective != out[j].Effective {
			return out[i].Effective > out[j].Effective
		}
		return out[i].Team.Code < out[j].Team.Code
	})
	return out
}
