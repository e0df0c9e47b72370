package formatting

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Separator returns a line separator of given width
func Separator(width int) string {
	return strings.Repeat("=", width)
}

// FormatScore renders a score with exactly four decimals.
func FormatScore(score float64) string {
	return decimal.NewFromFloat(score).StringFixed(4)
}

// ParseScore is the inverse of FormatScore.
func ParseScore(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

var relativeDate = regexp.MustCompile(`(?i)^(\d+)\s+(minute|hour|day)s?\s+ago$`)

// ParseDate parses a date string in multiple formats, including relative
// forms like "3 hours ago". It returns the zero time when nothing matches.
func ParseDate(dateStr string, now time.Time) time.Time {
	dateStr = strings.TrimSpace(dateStr)

	if m := relativeDate.FindStringSubmatch(dateStr); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch strings.ToLower(m[2]) {
		case "minute":
			return now.Add(-time.Duration(n) * time.Minute)
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour)
		case "day":
			return now.AddDate(0, 0, -n)
		}
	}

	formats := []string{
		time.RFC3339,
		time.RFC1123Z,
		time.RFC1123,
		"2006-01-02T15:04:05", // ISO without zone
		"2006-01-02",          // YYYY-MM-DD (standard)
		"02/01/2006",          // DD/MM/YYYY
		"02.01.2006",          // DD.MM.YYYY
		"01-02-2006",          // MM-DD-YYYY (US format)
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t
		}
	}

	return time.Time{}
}
