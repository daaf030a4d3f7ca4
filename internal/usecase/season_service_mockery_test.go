package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/season"
	seasonmock "github.com/riskibarqy/nfl-pick-two/internal/mocks/domain/season"
	"github.com/stretchr/testify/mock"
)

func TestSeasonService_Current_PicksNewestActiveUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seasonmock.NewRepository(t)
	repo.
		On("List", mock.Anything).
		Return([]season.Season{
			{ID: 1, Year: 2024, IsActive: true},
			{ID: 2, Year: 2025, IsActive: true},
			{ID: 3, Year: 2026, IsActive: false},
		}, nil).
		Once()

	got, err := NewSeasonService(repo, 0, nil).Current(ctx)
	if err != nil {
		t.Fatalf("current season: %v", err)
	}
	if got.ID != 2 {
		t.Fatalf("unexpected season: got=%d want=2", got.ID)
	}
}

func TestSeasonService_Current_NoActiveSeasonUsingMockery(t *testing.T) {
	t.Parallel()

	repo := seasonmock.NewRepository(t)
	repo.
		On("List", mock.Anything).
		Return([]season.Season{{ID: 1, Year: 2024}}, nil).
		Once()

	_, err := NewSeasonService(repo, 0, nil).Current(context.Background())
	if !errors.Is(err, ErrSeasonNotResolved) {
		t.Fatalf("expected ErrSeasonNotResolved, got %v", err)
	}
}

func TestSeasonService_Current_OverrideUsingMockery(t *testing.T) {
	t.Parallel()

	repo := seasonmock.NewRepository(t)
	repo.
		On("GetByID", mock.Anything, int64(7)).
		Return(season.Season{ID: 7, Year: 2023}, true, nil).
		Once()

	got, err := NewSeasonService(repo, 7, nil).Current(context.Background())
	if err != nil {
		t.Fatalf("current season: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("override not honored: got=%d", got.ID)
	}
}

func TestSeasonService_Current_MissingOverrideIsNotResolvedUsingMockery(t *testing.T) {
	t.Parallel()

	repo := seasonmock.NewRepository(t)
	repo.
		On("GetByID", mock.Anything, int64(99)).
		Return(season.Season{}, false, nil).
		Once()

	_, err := NewSeasonService(repo, 99, nil).Current(context.Background())
	if !errors.Is(err, ErrSeasonNotResolved) {
		t.Fatalf("expected ErrSeasonNotResolved, got %v", err)
	}
	repo.AssertNotCalled(t, "List", mock.Anything)
}
