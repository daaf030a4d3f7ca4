package jobscheduler

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	ListRecent(ctx context.Context, jobName string, limit int) ([]DispatchEvent, error)
}
