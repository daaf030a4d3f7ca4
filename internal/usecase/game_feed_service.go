package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/season"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

// GameFeed pulls provider games for one regular-season week.
type GameFeed interface {
	FetchWeek(ctx context.Context, seasonYear, week int) ([]game.FeedRecord, error)
}

type GameFeedConfig struct {
	// Polling window in UTC hours, inclusive start and exclusive end.
	WindowStartHour int
	WindowEndHour   int
}

type SyncGamesInput struct {
	Force bool
	Weeks []int
}

type IngestResult struct {
	Received int      `json:"received"`
	Upserted int      `json:"upserted"`
	Skipped  int      `json:"skipped"`
	Reasons  []string `json:"reasons,omitempty"`
}

type SyncGamesResult struct {
	SeasonID      int64 `json:"season_id"`
	Weeks         []int `json:"weeks"`
	OutsideWindow bool  `json:"outside_window"`
	IngestResult
}

// GameFeedService keeps the game registry in sync with the provider.
type GameFeedService struct {
	feed     GameFeed
	gameRepo game.Repository
	teamRepo team.Repository
	seasons  *SeasonService
	cfg      GameFeedConfig
	metrics  MetricsRecorder
	logger   *logging.Logger
	now      func() time.Time
}

func NewGameFeedService(
	feed GameFeed,
	gameRepo game.Repository,
	teamRepo team.Repository,
	seasons *SeasonService,
	cfg GameFeedConfig,
	metrics MetricsRecorder,
	logger *logging.Logger,
) *GameFeedService {
	if cfg.WindowEndHour <= cfg.WindowStartHour {
		cfg.WindowStartHour, cfg.WindowEndHour = 10, 24
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GameFeedService{
		feed:     feed,
		gameRepo: gameRepo,
		teamRepo: teamRepo,
		seasons:  seasons,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// InWindow reports whether t falls within the polling window.
func (s *GameFeedService) InWindow(t time.Time) bool {
	h := t.UTC().Hour()
	return h >= s.cfg.WindowStartHour && h < s.cfg.WindowEndHour
}

// SyncSeason refreshes the active weeks of the current season from the provider.
// Outside the polling window it does nothing unless forced.
func (s *GameFeedService) SyncSeason(ctx context.Context, in SyncGamesInput) (SyncGamesResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameFeedService.SyncSeason", attribute.Bool("force", in.Force))
	defer span.End()

	if s.feed == nil {
		return SyncGamesResult{}, fmt.Errorf("%w: game feed is not configured", ErrDependencyUnavailable)
	}
	current, err := s.seasons.Current(ctx)
	if err != nil {
		return SyncGamesResult{}, err
	}
	result := SyncGamesResult{SeasonID: current.ID}
	now := s.now()
	if !in.Force && !s.InWindow(now) {
		result.OutsideWindow = true
		return result, nil
	}

	weeks := in.Weeks
	if len(weeks) == 0 {
		stored, err := s.gameRepo.ListBySeason(ctx, current.ID)
		if err != nil {
			return SyncGamesResult{}, fmt.Errorf("list season games: %w", err)
		}
		weeks = weeksToRefresh(stored)
	}
	for _, w := range weeks {
		if err := validateWeek(w); err != nil {
			return SyncGamesResult{}, err
		}
	}
	result.Weeks = weeks

	records := make([]game.FeedRecord, 0, 16*len(weeks))
	for _, w := range weeks {
		items, err := s.feed.FetchWeek(ctx, current.Year, w)
		if err != nil {
			recordSpanError(span, err)
			return SyncGamesResult{}, fmt.Errorf("%w: fetch week %d: %w", ErrDependencyUnavailable, w, err)
		}
		records = append(records, items...)
	}

	ingested, err := s.ingest(ctx, current, records)
	if err != nil {
		return SyncGamesResult{}, err
	}
	result.IngestResult = ingested
	return result, nil
}

// IngestRaw accepts provider objects in any of the supported shapes.
func (s *GameFeedService) IngestRaw(ctx context.Context, raw []map[string]any) (IngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameFeedService.IngestRaw")
	defer span.End()

	current, err := s.seasons.Current(ctx)
	if err != nil {
		return IngestResult{}, err
	}
	records := make([]game.FeedRecord, 0, len(raw))
	for _, item := range raw {
		records = append(records, game.NormalizeRaw(item))
	}
	return s.ingest(ctx, current, records)
}

func (s *GameFeedService) ingest(ctx context.Context, current season.Season, records []game.FeedRecord) (IngestResult, error) {
	result := IngestResult{Received: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("list teams: %w", err)
	}
	byCode := make(map[string]string, len(teams))
	for _, t := range teams {
		byCode[team.NormalizeCode(t.Code)] = t.ID
	}

	skip := func(reason string) {
		result.Skipped++
		result.Reasons = append(result.Reasons, reason)
	}

	seen := make(map[string]struct{}, len(records))
	games := make([]game.Game, 0, len(records))
	for _, rec := range records {
		if !rec.Complete() {
			skip(fmt.Sprintf("incomplete record %q", rec.GameID))
			continue
		}
		if rec.SeasonYear != current.Year {
			skip(fmt.Sprintf("game %s belongs to season %d", rec.GameID, rec.SeasonYear))
			continue
		}
		if _, dup := seen[rec.GameID]; dup {
			continue
		}
		homeID, okHome := byCode[team.NormalizeCode(rec.HomeCode)]
		awayID, okAway := byCode[team.NormalizeCode(rec.AwayCode)]
		if !okHome || !okAway {
			skip(fmt.Sprintf("game %s has unknown team code %s/%s", rec.GameID, rec.HomeCode, rec.AwayCode))
			continue
		}

		g := game.Game{
			ID:         rec.GameID,
			SeasonID:   current.ID,
			Week:       rec.Week,
			HomeTeamID: homeID,
			AwayTeamID: awayID,
			KickoffAt:  rec.KickoffAt.UTC(),
			Status:     rec.Status,
			HomeScore:  rec.HomeScore,
			AwayScore:  rec.AwayScore,
		}
		if winner := team.NormalizeCode(rec.WinnerCode); winner != "" && g.IsFinal() {
			if winnerID, ok := byCode[winner]; ok && g.HasTeam(winnerID) {
				g.WinnerTeamID = &winnerID
			}
		}
		if err := g.Validate(); err != nil {
			skip(fmt.Sprintf("game %s: %v", rec.GameID, err))
			continue
		}
		seen[rec.GameID] = struct{}{}
		games = append(games, g)
	}

	if len(games) > 0 {
		if err := s.gameRepo.Upsert(ctx, games); err != nil {
			return IngestResult{}, fmt.Errorf("upsert games: %w", err)
		}
	}
	result.Upserted = len(games)
	s.metrics.GamesIngested(result.Upserted, result.Skipped)
	if result.Skipped > 0 {
		s.logger.WarnContext(ctx, "game feed records skipped",
			"season_id", current.ID,
			"skipped", result.Skipped,
			"first_reason", result.Reasons[0],
		)
	}
	return result, nil
}

// weeksToRefresh picks the earliest week that still has unfinished games plus
// the week before it, which may still receive late results. With nothing stored
// yet every week is fetched.
func weeksToRefresh(stored []game.Game) []int {
	if len(stored) == 0 {
		weeks := make([]int, 0, game.MaxWeek)
		for w := game.MinWeek; w <= game.MaxWeek; w++ {
			weeks = append(weeks, w)
		}
		return weeks
	}

	active := 0
	for _, g := range stored {
		if g.IsFinal() {
			continue
		}
		if active == 0 || g.Week < active {
			active = g.Week
		}
	}
	if active == 0 {
		last := 0
		for _, g := range stored {
			last = max(last, g.Week)
		}
		return []int{last}
	}

	set := map[int]struct{}{active: {}}
	if active > game.MinWeek {
		set[active-1] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}
