package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
)

type TeamService struct {
	teamRepo team.Repository
}

func NewTeamService(teamRepo team.Repository) *TeamService {
	return &TeamService{teamRepo: teamRepo}
}

func (s *TeamService) ListTeams(ctx context.Context) ([]team.Team, error) {
	items, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Code < items[j].Code
	})
	return items, nil
}

func (s *TeamService) GetTeam(ctx context.Context, teamID string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return team.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	return item, nil
}

// UpdateDefaultPoints changes the value used by leagues without an override.
func (s *TeamService) UpdateDefaultPoints(ctx context.Context, teamID string, points int) (team.Team, error) {
	if !team.ValidPointsValue(points) {
		return team.Team{}, fmt.Errorf("%w: points value %d must be within %d..%d", ErrInvalidInput, points, team.MinPointsValue, team.MaxPointsValue)
	}
	item, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return team.Team{}, err
	}
	if err := s.teamRepo.UpdateDefaultPoints(ctx, item.ID, points); err != nil {
		return team.Team{}, fmt.Errorf("update team default points: %w", err)
	}
	item.DefaultPointsValue = points
	return item, nil
}
