package storage

import (
	"regexp"
	"time"
)

var (
	isoDateRe   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`)
)

// extractReportDate finds the first date mentioned in the report text and
// returns it normalized to YYYY-MM-DD. When no date is found the current
// date is used.
func extractReportDate(text string) string {
	if m := isoDateRe.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if m := slashDateRe.FindString(text); m != "" {
		for _, layout := range []string{"1/2/2006", "1/2/06"} {
			if t, err := time.Parse(layout, m); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return time.Now().Format("2006-01-02")
}
