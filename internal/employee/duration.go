package employee

import (
	"fmt"
	"strings"
	"time"

	"github.com/kingrea/hrdesk/internal/validation"
)

// Duration renders the time between start and end as whole years and
// months, e.g. "2 years 4 months". end may be PresentToken, in which case
// now is used. Inverted or unparsable ranges yield "0 months".
func Duration(start, end string, now time.Time) string {
	from, err := validation.ParseDate(strings.TrimSpace(start))
	if err != nil || from.IsZero() {
		return formatMonths(0)
	}
	var to time.Time
	switch trimmed := strings.TrimSpace(end); {
	case trimmed == "" || strings.EqualFold(trimmed, PresentToken):
		to = now
	default:
		to, err = validation.ParseDate(trimmed)
		if err != nil {
			return formatMonths(0)
		}
	}
	return formatMonths(monthsBetween(from, to))
}

func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func formatMonths(total int) string {
	years, months := total/12, total%12
	switch {
	case years == 0:
		return plural(months, "month")
	case months == 0:
		return plural(years, "year")
	default:
		return plural(years, "year") + " " + plural(months, "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
