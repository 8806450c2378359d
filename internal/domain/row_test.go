package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmat/matdir/internal/csvio"
)

func record(t *testing.T, header, row string) csvio.Record {
	t.Helper()
	recs := csvio.Parse(header + "\n" + row + "\n")
	require.Len(t, recs, 1)
	return recs[0]
}

func TestNormalizeDirectoryRow(t *testing.T) {
	rec := record(t,
		"STATE,CITY,NAME,IG,SAT,SUN,OTA,CREATED,LAT,LON",
		"ma,Boston,Gym A,@gyma,11am,10am,y,01/02/2026,42.3601,-71.0589")

	row := NormalizeDirectoryRow(rec)
	assert.Equal(t, "MA", row.State)
	assert.Equal(t, "Boston", row.City)
	assert.Equal(t, "Gym A", row.Name)
	assert.Equal(t, "@gyma", row.Instagram)
	assert.Equal(t, "Y", row.OpenToAll)
	require.True(t, row.HasCoord)
	assert.InDelta(t, 42.3601, row.Coord.Lat, 1e-9)
	assert.InDelta(t, -71.0589, row.Coord.Lon, 1e-9)
}

func TestNormalizeDirectoryRow_PartialCoordinateDropped(t *testing.T) {
	rec := record(t,
		"STATE,CITY,NAME,LAT,LON",
		"MA,Boston,Gym A,42.36,")

	row := NormalizeDirectoryRow(rec)
	assert.False(t, row.HasCoord, "a lone LAT is not a coordinate")
}

func TestParseCoordinate_Range(t *testing.T) {
	_, ok := ParseCoordinate("91", "0")
	assert.False(t, ok)
	_, ok = ParseCoordinate("0", "-181")
	assert.False(t, ok)
	_, ok = ParseCoordinate("NaN", "0")
	assert.False(t, ok)

	c, ok := ParseCoordinate(" 42.36 ", " -71.05 ")
	require.True(t, ok)
	assert.InDelta(t, 42.36, c.Lat, 1e-9)
}

func TestNormalizeEventRow_YearDerivedFromDate(t *testing.T) {
	rec := record(t,
		"EVENT,FOR,WHERE,CITY,STATE,DAY,DATE,CREATED,YEAR,TYPE",
		"Open Mat,All,Gym A,Boston,ma,Saturday,03/01/2026,,,Open Mat")

	row := NormalizeEventRow(rec)
	assert.Equal(t, "MA", row.State)
	assert.Equal(t, "2026", row.Year, "YEAR derived from DATE when blank")
}

func TestNormalizeEventRow_ExplicitYearKept(t *testing.T) {
	rec := record(t,
		"EVENT,CITY,STATE,DATE,YEAR",
		"Comp,Boston,MA,03/01/2026,2031")

	assert.Equal(t, "2031", NormalizeEventRow(rec).Year)
}

func TestNormalizeEventRow_UnparseableDateLeavesYearBlank(t *testing.T) {
	rec := record(t,
		"EVENT,CITY,STATE,DATE,YEAR",
		"Comp,Boston,MA,sometime soon,")

	assert.Equal(t, "", NormalizeEventRow(rec).Year)
}
