package domain

import (
	"sort"
	"time"
)

// UnknownStateLabel heads the directory group for rows with a blank state.
const UnknownStateLabel = "—"

// UnknownDateLabel heads the events group for rows with no parseable date.
const UnknownDateLabel = "Unknown Date"

// DirectoryGroup is one rendered section of the directory view.
type DirectoryGroup struct {
	Label string         `json:"label"`
	Rows  []DirectoryRow `json:"rows"`
}

// EventGroup is one rendered section of the events view.
type EventGroup struct {
	Label string     `json:"label"`
	Rows  []EventRow `json:"rows"`
}

// GroupDirectory partitions rows by state code, alphabetically. Blank states
// collect under UnknownStateLabel, which sorts after the two-letter codes.
func GroupDirectory(rows []DirectoryRow) []DirectoryGroup {
	byState := make(map[string][]DirectoryRow)
	for _, r := range rows {
		key := r.State
		if key == "" {
			key = UnknownStateLabel
		}
		byState[key] = append(byState[key], r)
	}

	labels := make([]string, 0, len(byState))
	for label := range byState {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	groups := make([]DirectoryGroup, 0, len(labels))
	for _, label := range labels {
		groups = append(groups, DirectoryGroup{Label: label, Rows: byState[label]})
	}
	return groups
}

// GroupEvents partitions rows against today at local midnight (upcoming,
// past, unknown date), then groups each partition by
// calendar month, ascending by the earliest date in the group. Final order
// is all upcoming months, then all past months, then the unknown-date group.
// Within a group rows sort by date ascending, undated rows last.
func GroupEvents(rows []EventRow, today time.Time) []EventGroup {
	cut := midnight(today)

	var upcoming, past, unknown []EventRow
	for _, r := range rows {
		d, ok := ParseDate(r.Date)
		switch {
		case !ok:
			unknown = append(unknown, r)
		case d.Before(cut):
			past = append(past, r)
		default:
			upcoming = append(upcoming, r)
		}
	}

	groups := groupByMonth(upcoming)
	groups = append(groups, groupByMonth(past)...)
	if len(unknown) > 0 {
		groups = append(groups, EventGroup{Label: UnknownDateLabel, Rows: unknown})
	}

	for i := range groups {
		sortRowsByDate(groups[i].Rows)
	}
	return groups
}

// groupByMonth buckets dated rows by month+year and orders the buckets by
// their earliest date. All rows here have parseable dates; the unknown
// partition is handled by the caller.
func groupByMonth(rows []EventRow) []EventGroup {
	type bucket struct {
		label    string
		earliest time.Time
		rows     []EventRow
	}

	byLabel := make(map[string]*bucket)
	var order []*bucket
	for _, r := range rows {
		d, _ := ParseDate(r.Date)
		label := MonthLabel(d)
		b, ok := byLabel[label]
		if !ok {
			b = &bucket{label: label, earliest: d}
			byLabel[label] = b
			order = append(order, b)
		}
		if d.Before(b.earliest) {
			b.earliest = d
		}
		b.rows = append(b.rows, r)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].earliest.Before(order[j].earliest)
	})

	groups := make([]EventGroup, len(order))
	for i, b := range order {
		groups[i] = EventGroup{Label: b.label, Rows: b.rows}
	}
	return groups
}

// sortRowsByDate orders rows ascending by parsed date, keeping undated rows
// after all dated ones and otherwise preserving input order.
func sortRowsByDate(rows []EventRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		di, oki := ParseDate(rows[i].Date)
		dj, okj := ParseDate(rows[j].Date)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		return di.Before(dj)
	})
}
