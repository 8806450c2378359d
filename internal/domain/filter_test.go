package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDirectory() []DirectoryRow {
	return []DirectoryRow{
		{State: "MA", City: "Boston", Name: "Gym A", OpenToAll: "Y"},
		{State: "RI", City: "Providence", Name: "Gym B", OpenToAll: "N"},
		{State: "MA", City: "Worcester", Name: "Gym C", OpenToAll: "Y"},
	}
}

func sampleEvents() []EventRow {
	return []EventRow{
		{Event: "Open Mat", City: "Boston", State: "MA", Year: "2026", Type: "Open Mat"},
		{Event: "Winter Comp", City: "Providence", State: "RI", Year: "2025", Type: "Competition"},
		{Event: "Seminar Night", City: "Hartford", State: "CT", Year: "2026", Type: "Seminar"},
	}
}

func TestFilterDirectory_EmptyFilterIsIdentity(t *testing.T) {
	rows := sampleDirectory()
	got := FilterDirectory(rows, DirectoryFilter{})
	assert.Equal(t, rows, got)
}

func TestFilterDirectory_StateFacet(t *testing.T) {
	got := FilterDirectory(sampleDirectory(), DirectoryFilter{States: NewStringSet("MA")})
	require.Len(t, got, 2)
	assert.Equal(t, "Gym A", got[0].Name)
	assert.Equal(t, "Gym C", got[1].Name)
}

func TestFilterDirectory_DropInFacetIsBooleanGate(t *testing.T) {
	// Any selection at all restricts to OTA == "Y".
	got := FilterDirectory(sampleDirectory(), DirectoryFilter{DropIn: NewStringSet("anything")})
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "Y", r.OpenToAll)
	}
}

func TestFilterDirectory_QueryIsCaseInsensitiveSubstring(t *testing.T) {
	got := FilterDirectory(sampleDirectory(), DirectoryFilter{Query: "  bosTON "})
	require.Len(t, got, 1)
	assert.Equal(t, "Gym A", got[0].Name)
}

func TestFilterDirectory_FacetsCompose(t *testing.T) {
	got := FilterDirectory(sampleDirectory(), DirectoryFilter{
		Query:  "gym",
		States: NewStringSet("MA"),
		DropIn: NewStringSet("Y"),
	})
	require.Len(t, got, 2)
}

func TestFilterDirectory_DoesNotMutateInput(t *testing.T) {
	rows := sampleDirectory()
	_ = FilterDirectory(rows, DirectoryFilter{States: NewStringSet("RI")})
	assert.Equal(t, sampleDirectory(), rows)
}

func TestFilterEvents_EmptyFilterIsIdentity(t *testing.T) {
	rows := sampleEvents()
	assert.Equal(t, rows, FilterEvents(rows, EventFilter{}))
}

func TestFilterEvents_Facets(t *testing.T) {
	got := FilterEvents(sampleEvents(), EventFilter{Years: NewStringSet("2026")})
	require.Len(t, got, 2)

	got = FilterEvents(sampleEvents(), EventFilter{Types: NewStringSet("Competition")})
	require.Len(t, got, 1)
	assert.Equal(t, "Winter Comp", got[0].Event)

	got = FilterEvents(sampleEvents(), EventFilter{States: NewStringSet("CT", "RI")})
	require.Len(t, got, 2)
}

func TestFilterEvents_QueryMatchesAnyField(t *testing.T) {
	got := FilterEvents(sampleEvents(), EventFilter{Query: "seminar"})
	require.Len(t, got, 1)
	assert.Equal(t, "Seminar Night", got[0].Event)
}

func TestFilterEvents_ANDComposition(t *testing.T) {
	got := FilterEvents(sampleEvents(), EventFilter{
		Query: "open",
		Years: NewStringSet("2025"),
	})
	assert.Empty(t, got)
}
