package cache

import (
	"context"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
	basecache "github.com/riskibarqy/nfl-pick-two/internal/platform/cache"
)

// TeamRepository caches the team table, which only changes through
// UpdateDefaultPoints.
type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	items, err := basecache.Load(ctx, r.cache, "team:list", func(ctx context.Context) ([]team.Team, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, "team:id:"+teamID, func(ctx context.Context) (cachedTeam, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		return cachedTeam{value: item, exists: exists}, err
	})
	if err != nil {
		return team.Team{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) GetByCode(ctx context.Context, code string) (team.Team, bool, error) {
	code = team.NormalizeCode(code)
	cached, err := basecache.Load(ctx, r.cache, "team:code:"+code, func(ctx context.Context) (cachedTeam, error) {
		item, exists, err := r.next.GetByCode(ctx, code)
		return cachedTeam{value: item, exists: exists}, err
	})
	if err != nil {
		return team.Team{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) UpdateDefaultPoints(ctx context.Context, teamID string, points int) error {
	if err := r.next.UpdateDefaultPoints(ctx, teamID, points); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "team:")
	return nil
}

type cachedTeam struct {
	value  team.Team
	exists bool
}

// LeagueRepository caches league rows and team value overrides. Every other
// call passes through to next.
type LeagueRepository struct {
	league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{Repository: next, cache: cache}
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, leagueKey(leagueID, "row"), func(ctx context.Context) (cachedLeague, error) {
		item, exists, err := r.Repository.GetByID(ctx, leagueID)
		return cachedLeague{value: item, exists: exists}, err
	})
	if err != nil {
		return league.League{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *LeagueRepository) Create(ctx context.Context, l league.League, owner league.Member, values []league.TeamValue) error {
	if err := r.Repository.Create(ctx, l, owner, values); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, leagueKey(l.ID, ""))
	return nil
}

func (r *LeagueRepository) UpdateJoinCode(ctx context.Context, leagueID, code string) error {
	if err := r.Repository.UpdateJoinCode(ctx, leagueID, code); err != nil {
		return err
	}
	r.cache.Delete(ctx, leagueKey(leagueID, "row"))
	return nil
}

func (r *LeagueRepository) TransferOwnership(ctx context.Context, leagueID, fromUserID, toUserID string) error {
	if err := r.Repository.TransferOwnership(ctx, leagueID, fromUserID, toUserID); err != nil {
		return err
	}
	r.cache.Delete(ctx, leagueKey(leagueID, "row"))
	return nil
}

func (r *LeagueRepository) ListTeamValues(ctx context.Context, leagueID string) ([]league.TeamValue, error) {
	items, err := basecache.Load(ctx, r.cache, leagueKey(leagueID, "values"), func(ctx context.Context) ([]league.TeamValue, error) {
		items, err := r.Repository.ListTeamValues(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return append([]league.TeamValue(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]league.TeamValue(nil), items...), nil
}

func (r *LeagueRepository) ReplaceTeamValues(ctx context.Context, leagueID string, values []league.TeamValue) error {
	if err := r.Repository.ReplaceTeamValues(ctx, leagueID, values); err != nil {
		return err
	}
	r.cache.Delete(ctx, leagueKey(leagueID, "values"))
	return nil
}

func leagueKey(leagueID, part string) string {
	return "league:" + leagueID + ":" + part
}

type cachedLeague struct {
	value  league.League
	exists bool
}
