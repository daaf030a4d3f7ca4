package pick

import "context"

// Repository stores picks. All writes for a week go through WithWeekTx.
type Repository interface {
	ListByWeek(ctx context.Context, key WeekKey) ([]Pick, error)
	ListByUserSeason(ctx context.Context, leagueID, userID string, seasonID int64) ([]Pick, error)
	ListByLeagueSeason(ctx context.Context, leagueID string, seasonID int64) ([]Pick, error)
	GetByesUsed(ctx context.Context, leagueID, userID string) (int, error)
	// WithWeekTx runs fn with exclusive access to the member's picks and bye
	// counter. Nothing is written unless fn returns nil.
	WithWeekTx(ctx context.Context, key WeekKey, fn func(tx WeekTx) error) error
}

// WeekTx is the transactional view handed to WithWeekTx callbacks.
type WeekTx interface {
	ListWeek(ctx context.Context) ([]Pick, error)
	ListSeason(ctx context.Context) ([]Pick, error)
	ByesUsed(ctx context.Context) (int, error)
	Delete(ctx context.Context, pickIDs []string) error
	Insert(ctx context.Context, picks []Pick) error
	// AdjustByes adds delta to the bye counter, clamped to 0..MaxByes.
	AdjustByes(ctx context.Context, delta int) (int, error)
}
