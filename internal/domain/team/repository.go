package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	GetByCode(ctx context.Context, code string) (Team, bool, error)
	UpdateDefaultPoints(ctx context.Context, teamID string, points int) error
}
