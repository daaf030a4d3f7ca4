package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/season"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

// SeasonService resolves the current season on every call. Nothing is memoized,
// so a season rollover is visible to long-running processes immediately.
type SeasonService struct {
	repo       season.Repository
	overrideID int64
	logger     *logging.Logger
}

// NewSeasonService pins the current season to overrideID when it is > 0. A
// pinned season that does not exist is never replaced by the active one.
func NewSeasonService(repo season.Repository, overrideID int64, logger *logging.Logger) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SeasonService{repo: repo, overrideID: overrideID, logger: logger}
}

func (s *SeasonService) Current(ctx context.Context) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.Current")
	defer span.End()

	if s.overrideID > 0 {
		item, exists, err := s.repo.GetByID(ctx, s.overrideID)
		if err != nil {
			return season.Season{}, fmt.Errorf("get override season: %w", err)
		}
		if !exists {
			s.logger.ErrorContext(ctx, "configured season override not found", "season_id", s.overrideID)
			return season.Season{}, fmt.Errorf("%w: configured season=%d not found", ErrSeasonNotResolved, s.overrideID)
		}
		return item, nil
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return season.Season{}, fmt.Errorf("list seasons: %w", err)
	}
	current, err := season.Current(items)
	if errors.Is(err, season.ErrNoActiveSeason) {
		return season.Season{}, ErrSeasonNotResolved
	}
	if err != nil {
		return season.Season{}, err
	}
	return current, nil
}

func (s *SeasonService) List(ctx context.Context) ([]season.Season, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	return items, nil
}
