package game

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// FeedRecord is one provider game after field normalization. Team references
// are provider codes; ingestion maps them onto team ids.
type FeedRecord struct {
	GameID     string
	SeasonYear int
	Week       int
	HomeCode   string
	AwayCode   string
	KickoffAt  time.Time
	Status     Status
	WinnerCode string
	HomeScore  *int
	AwayScore  *int
}

// Complete reports whether the record carries every field needed to store a game.
func (r FeedRecord) Complete() bool {
	return r.GameID != "" && r.SeasonYear > 0 && ValidWeek(r.Week) &&
		r.HomeCode != "" && r.AwayCode != "" && !r.KickoffAt.IsZero()
}

// Alternative field paths per attribute; the first present value wins.
var (
	pathGameID     = []string{"id", "game.id", "fixture.id", "game_id"}
	pathSeason     = []string{"season", "league.season", "league.year", "season_year"}
	pathWeek       = []string{"week", "week.number", "league.round"}
	pathHomeCode   = []string{"teams.home.code", "teams.home.name", "home_code"}
	pathAwayCode   = []string{"teams.away.code", "teams.away.name", "away_code"}
	pathKickoff    = []string{"date", "fixture.date", "kickoff_ts"}
	pathStatus     = []string{"status.short", "status", "fixture.status.short", "fixture.status.long"}
	pathHomeWinner = []string{"scores.home.winner", "score.home.winner"}
	pathAwayWinner = []string{"scores.away.winner", "score.away.winner"}
	pathHomePoints = []string{"scores.home.total", "score.home", "scores.home.points", "home_score"}
	pathAwayPoints = []string{"scores.away.total", "score.away", "scores.away.points", "away_score"}
	pathWinnerCode = []string{"winner_code"}
)

// NormalizeRaw converts a loosely shaped provider object into a FeedRecord.
// The winner comes from explicit winner flags, else from a score comparison,
// and is only kept for final games.
func NormalizeRaw(raw map[string]any) FeedRecord {
	rec := FeedRecord{
		GameID:     asString(first(raw, pathGameID)),
		SeasonYear: asInt(first(raw, pathSeason)),
		Week:       asInt(first(raw, pathWeek)),
		HomeCode:   strings.ToUpper(asString(first(raw, pathHomeCode))),
		AwayCode:   strings.ToUpper(asString(first(raw, pathAwayCode))),
		KickoffAt:  asTime(first(raw, pathKickoff)),
		Status:     NormalizeStatus(asString(first(raw, pathStatus))),
		HomeScore:  asIntPtr(first(raw, pathHomePoints)),
		AwayScore:  asIntPtr(first(raw, pathAwayPoints)),
	}

	switch {
	case asBool(first(raw, pathHomeWinner)):
		rec.WinnerCode = rec.HomeCode
	case asBool(first(raw, pathAwayWinner)):
		rec.WinnerCode = rec.AwayCode
	case asString(first(raw, pathWinnerCode)) != "":
		rec.WinnerCode = strings.ToUpper(asString(first(raw, pathWinnerCode)))
	case rec.HomeScore != nil && rec.AwayScore != nil:
		if *rec.HomeScore > *rec.AwayScore {
			rec.WinnerCode = rec.HomeCode
		} else if *rec.AwayScore > *rec.HomeScore {
			rec.WinnerCode = rec.AwayCode
		}
	}
	if rec.Status != StatusFinal {
		rec.WinnerCode = ""
	}
	return rec
}

func first(raw map[string]any, paths []string) any {
	for _, path := range paths {
		if v, ok := lookup(raw, path); ok {
			return v
		}
	}
	return nil
}

// lookup walks a dotted path. Objects reached at the end are skipped so that
// "week" can fall through to "week.number".
func lookup(raw map[string]any, path string) (any, bool) {
	var cur any = raw
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	if _, isObject := cur.(map[string]any); isObject {
		return nil, false
	}
	if s, isString := cur.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return cur, true
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// asInt accepts numbers and strings such as "Week 5".
func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		digits := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return -1
		}, t)
		n, _ := strconv.Atoi(digits)
		return n
	default:
		return 0
	}
}

func asIntPtr(v any) *int {
	switch v.(type) {
	case float64, int, int64:
		n := asInt(v)
		return &n
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v.(string))); err == nil {
			return &n
		}
	}
	return nil
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04Z07:00", "2006-01-02T15:04Z"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed.UTC()
			}
		}
	case float64:
		if t > 0 {
			return time.Unix(int64(t), 0).UTC()
		}
	}
	return time.Time{}
}
