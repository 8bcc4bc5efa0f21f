package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"statement-categorizer/internal/models"
)

// now is replaced in tests
var now = time.Now

// TwoDigitYearPivot is the highest two-digit year read as 20YY; anything
// above it is read as 19YY.
const TwoDigitYearPivot = 50

type datePattern struct {
	name  string
	re    *regexp.Regexp
	build func(m []string, fallbackYear int) (year, month, day int)
}

// Tried in order, first match wins: ISO passthrough, then day-first layouts
// with four, two and no year digits.
var datePatterns = []datePattern{
	{
		name: "iso",
		re:   regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`),
		build: func(m []string, _ int) (int, int, int) {
			return atoi(m[1]), atoi(m[2]), atoi(m[3])
		},
	},
	{
		name: "day-month-year",
		re:   regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})$`),
		build: func(m []string, _ int) (int, int, int) {
			return atoi(m[3]), atoi(m[2]), atoi(m[1])
		},
	},
	{
		name: "day-month-short-year",
		re:   regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{2})$`),
		build: func(m []string, _ int) (int, int, int) {
			return expandYear(atoi(m[3])), atoi(m[2]), atoi(m[1])
		},
	},
	{
		name: "day-month",
		re:   regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})$`),
		build: func(m []string, fallbackYear int) (int, int, int) {
			return fallbackYear, atoi(m[2]), atoi(m[1])
		},
	},
}

// ParseDate reads a statement date. It reports false when raw matches no
// known layout or names an impossible calendar day such as 31/02.
func ParseDate(raw string, fallbackYear int) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, pattern := range datePatterns {
		m := pattern.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		year, month, day := pattern.build(m, fallbackYear)
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if date.Year() != year || int(date.Month()) != month || date.Day() != day {
			return time.Time{}, false
		}
		return date, true
	}

	return time.Time{}, false
}

// NormalizeDate returns raw as an ISO date. When raw cannot be read it
// returns today's date; callers must treat that as a placeholder, not a
// real transaction date.
func NormalizeDate(raw string, fallbackYear int) string {
	if date, ok := ParseDate(raw, fallbackYear); ok {
		return date.Format(models.DateLayout)
	}
	return now().Format(models.DateLayout)
}

func expandYear(yy int) int {
	if yy <= TwoDigitYearPivot {
		return 2000 + yy
	}
	return 1900 + yy
}

// atoi is only fed digit-only regex groups
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
