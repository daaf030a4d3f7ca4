package game

import "strings"

var statusVocabulary = map[string]Status{
	"NS":          StatusScheduled,
	"TBD":         StatusScheduled,
	"PST":         StatusScheduled,
	"NOT STARTED": StatusScheduled,
	"SCHEDULED":   StatusScheduled,
	"PRE":         StatusScheduled,

	"1H":   StatusLive,
	"2H":   StatusLive,
	"HT":   StatusLive,
	"OT":   StatusLive,
	"Q1":   StatusLive,
	"Q2":   StatusLive,
	"Q3":   StatusLive,
	"Q4":   StatusLive,
	"IN":   StatusLive,
	"INP":  StatusLive,
	"LIVE": StatusLive,

	"FT":       StatusFinal,
	"AOT":      StatusFinal,
	"ENDED":    StatusFinal,
	"FINAL":    StatusFinal,
	"FINISHED": StatusFinal,
	"POST":     StatusFinal,
}

// NormalizeStatus maps a provider status string onto the three game states.
// ESPN style "STATUS_*" names are accepted too. Unknown values are scheduled.
func NormalizeStatus(raw string) Status {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return StatusScheduled
	}
	if status, ok := statusVocabulary[s]; ok {
		return status
	}

	if rest, ok := strings.CutPrefix(s, "STATUS_"); ok {
		switch {
		case rest == "FINAL" || strings.HasPrefix(rest, "FINAL_"):
			return StatusFinal
		case rest == "IN_PROGRESS" || rest == "HALFTIME" || rest == "END_PERIOD" || rest == "END_OF_REGULATION" || rest == "OVERTIME":
			return StatusLive
		}
		return StatusScheduled
	}

	switch Status(strings.ToLower(s)) {
	case StatusLive:
		return StatusLive
	case StatusFinal:
		return StatusFinal
	}
	return StatusScheduled
}
