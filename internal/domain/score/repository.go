package score

import "context"

type Repository interface {
	Get(ctx context.Context, key Key) (Score, bool, error)
	ListByLeagueSeason(ctx context.Context, leagueID string, seasonID int64) ([]Score, error)
	// Upsert overwrites existing rows with the same key.
	Upsert(ctx context.Context, scores []Score) error
}
