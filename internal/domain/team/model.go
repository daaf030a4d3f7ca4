package team

import (
	"fmt"
	"strings"
)

const (
	MinPointsValue = 1
	MaxPointsValue = 32
)

// Team is an NFL franchise. DefaultPointsValue applies when a league has no override.
type Team struct {
	ID                 string
	Code               string
	DisplayName        string
	DefaultPointsValue int
}

func ValidPointsValue(v int) bool {
	return v >= MinPointsValue && v <= MaxPointsValue
}

// NormalizeCode upper-cases provider abbreviations ("kc " -> "KC").
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Code == "" {
		return fmt.Errorf("team code is required")
	}
	if t.DisplayName == "" {
		return fmt.Errorf("team display name is required")
	}
	if !ValidPointsValue(t.DefaultPointsValue) {
		return fmt.Errorf("team default points value %d must be within %d..%d", t.DefaultPointsValue, MinPointsValue, MaxPointsValue)
	}
	return nil
}
