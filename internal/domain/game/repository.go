package game

import (
	"context"
	"time"
)

// Repository is the game registry. Writes come from feed ingestion and the lock job.
type Repository interface {
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	ListByIDs(ctx context.Context, gameIDs []string) ([]Game, error)
	ListBySeasonWeek(ctx context.Context, seasonID int64, week int) ([]Game, error)
	ListBySeason(ctx context.Context, seasonID int64) ([]Game, error)
	Upsert(ctx context.Context, games []Game) error
	// MarkStarted moves scheduled games with kickoff <= now to live and returns how many changed.
	MarkStarted(ctx context.Context, now time.Time) (int, error)
}
