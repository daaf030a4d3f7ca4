package league

import "context"

// Repository describes league persistence needs from use cases.
type Repository interface {
	// Create stores the league with its owner as admin member, a zeroed member
	// state and the initial team value overrides, atomically.
	Create(ctx context.Context, l League, owner Member, values []TeamValue) error
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	GetByJoinCode(ctx context.Context, code string) (League, bool, error)
	ListBySeason(ctx context.Context, seasonID int64) ([]League, error)
	ListByMember(ctx context.Context, userID string) ([]League, error)
	UpdateJoinCode(ctx context.Context, leagueID, code string) error
	// TransferOwnership moves OwnerID and swaps admin/member roles.
	TransferOwnership(ctx context.Context, leagueID, fromUserID, toUserID string) error

	ListMembers(ctx context.Context, leagueID string) ([]Member, error)
	GetMember(ctx context.Context, leagueID, userID string) (Member, bool, error)
	// AddMember returns ErrAlreadyMember for an existing member.
	AddMember(ctx context.Context, m Member) error
	// RemoveMember deletes membership, member state, picks and scores.
	RemoveMember(ctx context.Context, leagueID, userID string) error
	ListMemberStates(ctx context.Context, leagueID string) ([]MemberState, error)

	ListTeamValues(ctx context.Context, leagueID string) ([]TeamValue, error)
	ReplaceTeamValues(ctx context.Context, leagueID string, values []TeamValue) error
}
