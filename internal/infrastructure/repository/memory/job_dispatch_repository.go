package memory

import (
	"context"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/jobscheduler"
)

// maxDispatchEvents caps retained events; older ones are dropped first.
const maxDispatchEvents = 500

type JobDispatchRepository struct {
	store *Store
}

func NewJobDispatchRepository(store *Store) *JobDispatchRepository {
	return &JobDispatchRepository{store: store}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.dispatches[event.DispatchID]; !exists {
		s.dispatchSeq = append(s.dispatchSeq, event.DispatchID)
	}
	s.dispatches[event.DispatchID] = event

	if over := len(s.dispatchSeq) - maxDispatchEvents; over > 0 {
		for _, id := range s.dispatchSeq[:over] {
			delete(s.dispatches, id)
		}
		s.dispatchSeq = append([]string(nil), s.dispatchSeq[over:]...)
	}
	return nil
}

func (r *JobDispatchRepository) ListRecent(_ context.Context, jobName string, limit int) ([]jobscheduler.DispatchEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]jobscheduler.DispatchEvent, 0, limit)
	for i := len(r.store.dispatchSeq) - 1; i >= 0 && len(out) < limit; i-- {
		event := r.store.dispatches[r.store.dispatchSeq[i]]
		if jobName != "" && event.JobName != jobName {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}
