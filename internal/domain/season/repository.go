package season

import "context"

// Repository describes season persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Season, error)
	GetByID(ctx context.Context, seasonID int64) (Season, bool, error)
	Upsert(ctx context.Context, s Season) error
}
