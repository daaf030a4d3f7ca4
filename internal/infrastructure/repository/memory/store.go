package memory

import (
	"sync"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/jobscheduler"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/score"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/season"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
)

// Store holds every table of the in-memory backend. Repositories share one
// Store so that cascades (member removal) stay consistent.
type Store struct {
	mu sync.RWMutex

	seasons     map[int64]season.Season
	teams       map[string]team.Team
	games       map[string]game.Game
	leagues     map[string]league.League
	leagueOrder []string
	members     map[string]map[string]league.Member
	byesUsed    map[string]map[string]int
	teamValues  map[string]map[string]int
	picks       map[string]pick.Pick
	scores      map[score.Key]score.Score
	dispatches  map[string]jobscheduler.DispatchEvent
	dispatchSeq []string
	weekLocksMu sync.Mutex
	weekLocks   map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		seasons:    make(map[int64]season.Season),
		teams:      make(map[string]team.Team),
		games:      make(map[string]game.Game),
		leagues:    make(map[string]league.League),
		members:    make(map[string]map[string]league.Member),
		byesUsed:   make(map[string]map[string]int),
		teamValues: make(map[string]map[string]int),
		picks:      make(map[string]pick.Pick),
		scores:     make(map[score.Key]score.Score),
		dispatches: make(map[string]jobscheduler.DispatchEvent),
		weekLocks:  make(map[string]*sync.Mutex),
	}
}

// memberLock serializes week transactions of one member in one league.
func (s *Store) memberLock(leagueID, userID string) *sync.Mutex {
	s.weekLocksMu.Lock()
	defer s.weekLocksMu.Unlock()

	k := leagueID + "::" + userID
	m, ok := s.weekLocks[k]
	if !ok {
		m = &sync.Mutex{}
		s.weekLocks[k] = m
	}
	return m
}

func cloneGame(g game.Game) game.Game {
	copied := g
	if g.WinnerTeamID != nil {
		v := *g.WinnerTeamID
		copied.WinnerTeamID = &v
	}
	if g.HomeScore != nil {
		v := *g.HomeScore
		copied.HomeScore = &v
	}
	if g.AwayScore != nil {
		v := *g.AwayScore
		copied.AwayScore = &v
	}
	return copied
}
