package season

import (
	"errors"
	"fmt"
)

var ErrNoActiveSeason = errors.New("no active season")

// Season is one NFL year. Several may be active; the newest one wins.
type Season struct {
	ID       int64
	Year     int
	IsActive bool
}

func (s Season) Validate() error {
	if s.ID <= 0 {
		return fmt.Errorf("season id must be positive")
	}
	if s.Year < 1920 {
		return fmt.Errorf("season year %d is out of range", s.Year)
	}
	return nil
}

// Current picks the active season with the highest year, ties broken by highest id.
func Current(seasons []Season) (Season, error) {
	var (
		best  Season
		found bool
	)
	for _, s := range seasons {
		if !s.IsActive {
			continue
		}
		if !found || s.Year > best.Year || (s.Year == best.Year && s.ID > best.ID) {
			best = s
			found = true
		}
	}
	if !found {
		return Season{}, ErrNoActiveSeason
	}
	return best, nil
}
