package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
)

// loadLeague returns NotFound for unknown ids.
func loadLeague(ctx context.Context, repo league.Repository, leagueID string) (league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	item, exists, err := repo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return item, nil
}

// requireMember loads the league and the caller's membership. Non-members get ErrForbidden.
func requireMember(ctx context.Context, repo league.Repository, leagueID, userID string) (league.League, league.Member, error) {
	if strings.TrimSpace(userID) == "" {
		return league.League{}, league.Member{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	item, err := loadLeague(ctx, repo, leagueID)
	if err != nil {
		return league.League{}, league.Member{}, err
	}
	member, exists, err := repo.GetMember(ctx, item.ID, userID)
	if err != nil {
		return league.League{}, league.Member{}, fmt.Errorf("get league member: %w", err)
	}
	if !exists {
		return league.League{}, league.Member{}, fmt.Errorf("%w: user is not a member of league=%s", ErrForbidden, item.ID)
	}
	return item, member, nil
}

func requireAdmin(ctx context.Context, repo league.Repository, leagueID, userID string) (league.League, league.Member, error) {
	item, member, err := requireMember(ctx, repo, leagueID, userID)
	if err != nil {
		return league.League{}, league.Member{}, err
	}
	if !item.IsAdmin(member) {
		return league.League{}, league.Member{}, fmt.Errorf("%w: league admin required", ErrForbidden)
	}
	return item, member, nil
}

func validateWeek(week int) error {
	if !game.ValidWeek(week) {
		return fmt.Errorf("%w: week %d must be within %d..%d", ErrInvalidInput, week, game.MinWeek, game.MaxWeek)
	}
	return nil
}

func indexGames(items []game.Game) map[string]game.Game {
	out := make(map[string]game.Game, len(items))
	for _, g := range items {
		out[g.ID] = g
	}
	return out
}
