package score

import "time"

// Score is the persisted weekly total for a member. It is a cache of the live
// computation and may lag behind game results.
type Score struct {
	LeagueID     string
	UserID       string
	SeasonID     int64
	Week         int
	Points       int
	CalculatedAt time.Time
}

// Key identifies a score row.
type Key struct {
	LeagueID string
	UserID   string
	SeasonID int64
	Week     int
}

func (s Score) Key() Key {
	return Key{LeagueID: s.LeagueID, UserID: s.UserID, SeasonID: s.SeasonID, Week: s.Week}
}
