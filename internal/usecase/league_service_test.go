package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
)

// newLeagueHarness adds a private league owned by alice that carol joined by
// code. Carol is also a member of the public harness league.
func newLeagueHarness(t *testing.T) (*engineHarness, string) {
	t.Helper()

	ctx := context.Background()
	h := newEngineHarness(t)
	private, err := h.leagues.CreateLeague(ctx, "alice", CreateLeagueInput{Name: "Back Office", Visibility: league.VisibilityPrivate})
	require.NoError(t, err)
	require.Equal(t, "JOIN42", private.JoinCode)

	_, err = h.leagues.JoinLeague(ctx, "carol", JoinLeagueInput{JoinCode: " join42 "})
	require.NoError(t, err)
	_, err = h.leagues.JoinLeague(ctx, "carol", JoinLeagueInput{LeagueID: h.leagueID})
	require.NoError(t, err)
	return h, private.ID
}

func TestLeagueService_MembershipRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		run     func(ctx context.Context, h *engineHarness, privateID string) error
		wantErr error
	}{
		{
			name: "private league cannot be joined by id",
			run: func(ctx context.Context, h *engineHarness, privateID string) error {
				_, err := h.leagues.JoinLeague(ctx, "dave", JoinLeagueInput{LeagueID: privateID})
				return err
			},
			wantErr: ErrForbidden,
		},
		{
			name: "unknown join code",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				_, err := h.leagues.JoinLeague(ctx, "dave", JoinLeagueInput{JoinCode: "NOPE99"})
				return err
			},
			wantErr: ErrNotFound,
		},
		{
			name: "joining twice conflicts",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				_, err := h.leagues.JoinLeague(ctx, "carol", JoinLeagueInput{JoinCode: "JOIN42"})
				return err
			},
			wantErr: ErrConflict,
		},
		{
			name: "public league has no join code to regenerate",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				_, err := h.leagues.RegenerateJoinCode(ctx, "alice", h.leagueID)
				return err
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "member cannot regenerate join code",
			run: func(ctx context.Context, h *engineHarness, privateID string) error {
				_, err := h.leagues.RegenerateJoinCode(ctx, "carol", privateID)
				return err
			},
			wantErr: ErrForbidden,
		},
		{
			name: "only the owner transfers ownership",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				return h.leagues.TransferOwnership(ctx, "bob", h.leagueID, "carol")
			},
			wantErr: ErrForbidden,
		},
		{
			name: "ownership goes to a member",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				return h.leagues.TransferOwnership(ctx, "alice", h.leagueID, "dave")
			},
			wantErr: ErrNotFound,
		},
		{
			name: "owner cannot be removed by themselves",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				return h.leagues.RemoveMember(ctx, "alice", h.leagueID, "alice")
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "member cannot remove the owner",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				return h.leagues.RemoveMember(ctx, "bob", h.leagueID, "alice")
			},
			wantErr: ErrForbidden,
		},
		{
			name: "member cannot remove another member",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				return h.leagues.RemoveMember(ctx, "bob", h.leagueID, "carol")
			},
			wantErr: ErrForbidden,
		},
		{
			name: "private league is hidden from non-members",
			run: func(ctx context.Context, h *engineHarness, privateID string) error {
				_, err := h.leagues.GetLeague(ctx, "bob", privateID)
				return err
			},
			wantErr: ErrNotFound,
		},
		{
			name: "member leaves",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				return h.leagues.RemoveMember(ctx, "bob", h.leagueID, "")
			},
		},
		{
			name: "owner removes a member",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				return h.leagues.RemoveMember(ctx, "alice", h.leagueID, "carol")
			},
		},
		{
			name: "public league is visible to non-members",
			run: func(ctx context.Context, h *engineHarness, _ string) error {
				_, err := h.leagues.GetLeague(ctx, "dave", h.leagueID)
				return err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h, privateID := newLeagueHarness(t)
			err := tc.run(context.Background(), h, privateID)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLeagueService_RemovedMemberLosesAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h, _ := newLeagueHarness(t)
	require.NoError(t, h.leagues.RemoveMember(ctx, "alice", h.leagueID, "bob"))

	_, err := h.leagues.ListMembers(ctx, "bob", h.leagueID)
	require.ErrorIs(t, err, ErrForbidden)

	members, err := h.leagues.ListMembers(ctx, "alice", h.leagueID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestLeagueService_JoinCodeVisibleToAdminsOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h, privateID := newLeagueHarness(t)

	codeFor := func(userID string) (fromGet, fromList string) {
		t.Helper()
		item, err := h.leagues.GetLeague(ctx, userID, privateID)
		require.NoError(t, err)
		items, err := h.leagues.ListMyLeagues(ctx, userID)
		require.NoError(t, err)
		for _, l := range items {
			if l.ID == privateID {
				fromList = l.JoinCode
			}
		}
		return item.JoinCode, fromList
	}

	get, list := codeFor("alice")
	require.Equal(t, "JOIN42", get)
	require.Equal(t, "JOIN42", list)
	get, list = codeFor("carol")
	require.Empty(t, get)
	require.Empty(t, list)

	require.NoError(t, h.leagues.TransferOwnership(ctx, "alice", privateID, "carol"))

	get, list = codeFor("carol")
	require.Equal(t, "JOIN42", get)
	require.Equal(t, "JOIN42", list)
	get, list = codeFor("alice")
	require.Empty(t, get)
	require.Empty(t, list)
}
