package recurrence

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
)

type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
	UnitYears  Unit = "years"
)

// PatternOnce marks a task that does not repeat.
const PatternOnce = "once"

const (
	MaxWeeklyCount  = 7
	MaxMonthlyCount = 30
)

var patternExpression = regexp.MustCompile(`^(\d+)_(days|weeks|months|years)$`)

var legacyPatterns = map[string]Unit{
	"daily":   UnitDays,
	"weekly":  UnitWeeks,
	"monthly": UnitMonths,
	"yearly":  UnitYears,
}

type Pattern struct {
	Count int  `json:"count"`
	Unit  Unit `json:"unit"`
}

func (pattern Pattern) String() string {
	return BuildPattern(pattern.Count, pattern.Unit)
}

func ParseUnit(value string) (Unit, bool) {
	switch Unit(value) {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		return Unit(value), true
	}
	return "", false
}

// BuildPattern does not validate; callers guarantee count >= 1.
func BuildPattern(count int, unit Unit) string {
	return fmt.Sprintf("%d_%s", count, unit)
}

// ParsePattern never fails. Legacy names map to a count of one and anything
// unrecognised becomes a daily pattern.
func ParsePattern(pattern string) Pattern {
	if parsed, ok := parseCanonical(pattern); ok {
		return parsed
	}
	if unit, ok := legacyPatterns[pattern]; ok {
		return Pattern{Count: 1, Unit: unit}
	}
	slog.Debug("falling back to default recurrence pattern", "pattern", pattern)
	return Pattern{Count: 1, Unit: UnitDays}
}

func parseCanonical(pattern string) (Pattern, bool) {
	match := patternExpression.FindStringSubmatch(pattern)
	if match == nil {
		return Pattern{}, false
	}
	count, err := strconv.Atoi(match[1])
	if err != nil || count <= 0 {
		return Pattern{}, false
	}
	return Pattern{Count: count, Unit: Unit(match[2])}, true
}

// IsRecurring reports whether a persisted pattern describes a repeating task.
func IsRecurring(pattern string) bool {
	if pattern == "" || pattern == PatternOnce {
		return false
	}
	if _, ok := legacyPatterns[pattern]; ok {
		return true
	}
	_, ok := parseCanonical(pattern)
	return ok
}

// HumanizeLabel returns nil only for a nil or "once" pattern. Unknown
// patterns are echoed back unchanged.
func HumanizeLabel(pattern *string) *string {
	if pattern == nil || *pattern == PatternOnce {
		return nil
	}
	label := humanize(*pattern)
	return &label
}

func humanize(pattern string) string {
	if parsed, ok := parseCanonical(pattern); ok {
		count := parsed.Count
		switch parsed.Unit {
		case UnitDays:
			if count == 1 {
				return "Svakog dana"
			}
			return fmt.Sprintf("Svaka %d dana", count)
		case UnitWeeks:
			if count == 1 {
				return "Jednom nedjeljno"
			}
			return fmt.Sprintf("%d puta nedjeljno", count)
		case UnitMonths:
			if count == 1 {
				return "Jednom mjesečno"
			}
			return fmt.Sprintf("%d puta mjesečno", count)
		case UnitYears:
			if count == 1 {
				return "Jednom godišnje"
			}
			return fmt.Sprintf("%d puta godišnje", count)
		}
	}

	switch pattern {
	case "daily":
		return "Svakog dana"
	case "weekly":
		return "Nedjeljno"
	case "monthly":
		return "Mjesečno"
	case "yearly":
		return "Godišnje"
	}
	return pattern
}
