package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// mdyRe matches the canonical MM/DD/YYYY form used throughout the data files.
var mdyRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// fallbackLayouts are tried, in order, for anything that is not MM/DD/YYYY.
var fallbackLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"1/2/06",
}

// ParseDate parses a calendar date at local midnight. MM/DD/YYYY is handled
// explicitly; other common forms go through the fallback layouts. Reports
// false for anything unparseable; callers route those rows to the
// unknown-date group rather than erroring.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := mdyRe.FindStringSubmatch(s); m != nil {
		t, err := time.ParseInLocation("1/2/2006", s, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Today returns the current local date at midnight, per the package clock.
func Today() time.Time {
	return midnight(clock.Now())
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsNew reports whether a CREATED value falls within the last 4 days,
// inclusive, measured from local midnight today. Unparseable values are
// never new.
func IsNew(created string, today time.Time) bool {
	d, ok := ParseDate(created)
	if !ok {
		return false
	}
	cutoff := midnight(today).AddDate(0, 0, -newWindowDays)
	return !d.Before(cutoff)
}

// newWindowDays is how long the *NEW badge stays on a row.
const newWindowDays = 4

// DisplayDate renders a date value as MM/DD/YY for the row display, falling
// back to the raw string when unparseable and an em dash when blank.
func DisplayDate(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return "—"
	}
	d, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	return fmt.Sprintf("%02d/%02d/%02d", int(d.Month()), d.Day(), d.Year()%100)
}

// MonthLabel formats a group heading like "March 2026".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", t.Month(), t.Year())
}

// CreatedStamp returns today's date as MM/DD/YYYY, the form the admin flow
// writes into new rows' CREATED column.
func CreatedStamp() string {
	now := clock.Now()
	return fmt.Sprintf("%02d/%02d/%04d", int(now.Month()), now.Day(), now.Year())
}
