// Package risk models the ordered severity scale used across the defense
// pipeline and reduces threat findings into a single level per field and per
// request.
package risk

import (
	"fmt"
	"strings"
)

// Level is a totally ordered severity tier. Comparisons use the ordinal
// directly: Safe < Low < Medium < High < Critical.
type Level int

const (
	Safe Level = iota
	Low
	Medium
	High
	Critical
)

var levelNames = [...]string{"safe", "low", "medium", "high", "critical"}

func (l Level) String() string {
	if l < Safe || l > Critical {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalJSON renders the level as its lowercase name.
func (l Level) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON accepts the lowercase name form.
func (l *Level) UnmarshalJSON(data []byte) error {
	parsed, err := ParseLevel(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts a level name to its Level. Case-insensitive.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return Safe, fmt.Errorf("unknown risk level %q", s)
}

// Max returns the higher of two levels.
func Max(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}
