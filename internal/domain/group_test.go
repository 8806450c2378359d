package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupDirectory_AlphabeticalByState(t *testing.T) {
	rows := []DirectoryRow{
		{State: "RI", Name: "Gym B"},
		{State: "MA", Name: "Gym A"},
		{State: "MA", Name: "Gym C"},
		{Name: "Gym D"}, // blank state
	}

	groups := GroupDirectory(rows)
	require.Len(t, groups, 3)

	assert.Equal(t, "MA", groups[0].Label)
	assert.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "RI", groups[1].Label)
	assert.Equal(t, UnknownStateLabel, groups[2].Label)
	assert.Equal(t, "Gym D", groups[2].Rows[0].Name)
}

func TestGroupEvents_UpcomingPastUnknownOrder(t *testing.T) {
	today := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local)
	rows := []EventRow{
		{Event: "past comp", Date: "01/15/2025"},
		{Event: "spring open", Date: "03/01/2026"},
		{Event: "mystery", Date: "not-a-date"},
	}

	groups := GroupEvents(rows, today)
	require.Len(t, groups, 3)
	assert.Equal(t, "March 2026", groups[0].Label)
	assert.Equal(t, "January 2025", groups[1].Label)
	assert.Equal(t, UnknownDateLabel, groups[2].Label)
}

func TestGroupEvents_TodayIsUpcoming(t *testing.T) {
	today := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local)
	groups := GroupEvents([]EventRow{{Event: "tonight", Date: "01/01/2026"}}, today)

	require.Len(t, groups, 1)
	assert.Equal(t, "January 2026", groups[0].Label)
}

func TestGroupEvents_MonthGroupsAscendingByEarliestDate(t *testing.T) {
	today := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local)
	rows := []EventRow{
		{Event: "may", Date: "05/10/2026"},
		{Event: "feb", Date: "02/20/2026"},
		{Event: "feb early", Date: "02/02/2026"},
	}

	groups := GroupEvents(rows, today)
	require.Len(t, groups, 2)
	assert.Equal(t, "February 2026", groups[0].Label)
	assert.Equal(t, "May 2026", groups[1].Label)

	// within the February group, rows sort date-ascending
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "feb early", groups[0].Rows[0].Event)
	assert.Equal(t, "feb", groups[0].Rows[1].Event)
}

func TestGroupEvents_PastMonthsAscendingAfterUpcoming(t *testing.T) {
	today := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.Local)
	rows := []EventRow{
		{Event: "old march", Date: "03/05/2026"},
		{Event: "old jan", Date: "01/05/2026"},
		{Event: "july", Date: "07/04/2026"},
	}

	groups := GroupEvents(rows, today)
	require.Len(t, groups, 3)
	assert.Equal(t, "July 2026", groups[0].Label)
	assert.Equal(t, "January 2026", groups[1].Label)
	assert.Equal(t, "March 2026", groups[2].Label)
}

func TestGroupEvents_EmptyInput(t *testing.T) {
	assert.Empty(t, GroupEvents(nil, time.Now()))
}
