package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
	teammock "github.com/riskibarqy/nfl-pick-two/internal/mocks/domain/team"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTeamService_UpdateDefaultPoints_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := teammock.NewRepository(t)
	repo.
		On("GetByID", mock.Anything, "KC").
		Return(team.Team{ID: "KC", Code: "KC", DisplayName: "Kansas City Chiefs", DefaultPointsValue: 1}, true, nil).
		Once()
	repo.
		On("UpdateDefaultPoints", mock.Anything, "KC", 3).
		Return(nil).
		Once()

	got, err := NewTeamService(repo).UpdateDefaultPoints(ctx, "KC", 3)
	require.NoError(t, err)
	require.Equal(t, 3, got.DefaultPointsValue)
}

func TestTeamService_UpdateDefaultPoints_RejectsOutOfRangeUsingMockery(t *testing.T) {
	t.Parallel()

	repo := teammock.NewRepository(t)
	for _, points := range []int{0, 33} {
		_, err := NewTeamService(repo).UpdateDefaultPoints(context.Background(), "KC", points)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("points %d: expected ErrInvalidInput, got %v", points, err)
		}
	}
}

func TestTeamService_GetTeam_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	repo := teammock.NewRepository(t)
	repo.
		On("GetByID", mock.Anything, "XXX").
		Return(team.Team{}, false, nil).
		Once()

	_, err := NewTeamService(repo).GetTeam(context.Background(), "XXX")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTeamService_ListTeams_SortsByCodeUsingMockery(t *testing.T) {
	t.Parallel()

	repo := teammock.NewRepository(t)
	repo.
		On("List", mock.Anything).
		Return([]team.Team{{ID: "NYJ", Code: "NYJ"}, {ID: "ARI", Code: "ARI"}}, nil).
		Once()

	got, err := NewTeamService(repo).ListTeams(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ARI", got[0].Code)
}
