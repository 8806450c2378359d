package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/openmat/matdir/internal/csvio"
)

// Coordinate is a WGS-84 latitude/longitude pair. Both components are finite
// and in range; a row either has a full coordinate or none at all.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point converts to orb's lon/lat ordering for geometry work.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// ParseCoordinate builds a Coordinate from two decimal strings. It reports
// false unless both parse to finite values inside [-90,90] / [-180,180];
// partial coordinates are rejected whole.
func ParseCoordinate(lat, lon string) (Coordinate, bool) {
	la, errLa := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, errLo := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if errLa != nil || errLo != nil {
		return Coordinate{}, false
	}
	if math.IsNaN(la) || math.IsInf(la, 0) || math.IsNaN(lo) || math.IsInf(lo, 0) {
		return Coordinate{}, false
	}
	if la < -90 || la > 90 || lo < -180 || lo > 180 {
		return Coordinate{}, false
	}
	return Coordinate{Lat: la, Lon: lo}, true
}

// DirectoryRow is one gym in the directory table.
type DirectoryRow struct {
	State     string `json:"state"`
	City      string `json:"city"`
	Name      string `json:"name"`
	Instagram string `json:"instagram,omitempty"`
	Sat       string `json:"sat,omitempty"`
	Sun       string `json:"sun,omitempty"`
	OpenToAll string `json:"open_to_all,omitempty"` // literal "Y" or "N"
	Created   string `json:"created,omitempty"`

	Coord    Coordinate `json:"coord,omitzero"`
	HasCoord bool       `json:"-"`
}

// EventRow is one entry in the events table.
type EventRow struct {
	Event   string `json:"event"`
	For     string `json:"for,omitempty"`
	Where   string `json:"where,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Day     string `json:"day,omitempty"`
	Date    string `json:"date,omitempty"`
	Created string `json:"created,omitempty"`
	Year    string `json:"year,omitempty"`
	Type    string `json:"type,omitempty"`
}

// NormalizeDirectoryRow maps a raw CSV record into the canonical directory
// shape. State and OTA are uppercased; LAT/LON become a Coordinate only when
// both are usable.
func NormalizeDirectoryRow(rec csvio.Record) DirectoryRow {
	row := DirectoryRow{
		State:     strings.ToUpper(strings.TrimSpace(rec.Get("STATE"))),
		City:      strings.TrimSpace(rec.Get("CITY")),
		Name:      strings.TrimSpace(rec.Get("NAME")),
		Instagram: strings.TrimSpace(rec.Get("IG")),
		Sat:       strings.TrimSpace(rec.Get("SAT")),
		Sun:       strings.TrimSpace(rec.Get("SUN")),
		OpenToAll: strings.ToUpper(strings.TrimSpace(rec.Get("OTA"))),
		Created:   strings.TrimSpace(rec.Get("CREATED")),
	}
	if c, ok := ParseCoordinate(rec.Get("LAT"), rec.Get("LON")); ok {
		row.Coord = c
		row.HasCoord = true
	}
	return row
}

// NormalizeEventRow maps a raw CSV record into the canonical event shape.
// YEAR falls back to the parsed DATE's year when the column is blank.
func NormalizeEventRow(rec csvio.Record) EventRow {
	row := EventRow{
		Event:   strings.TrimSpace(rec.Get("EVENT")),
		For:     strings.TrimSpace(rec.Get("FOR")),
		Where:   strings.TrimSpace(rec.Get("WHERE")),
		City:    strings.TrimSpace(rec.Get("CITY")),
		State:   strings.ToUpper(strings.TrimSpace(rec.Get("STATE"))),
		Day:     strings.TrimSpace(rec.Get("DAY")),
		Date:    strings.TrimSpace(rec.Get("DATE")),
		Created: strings.TrimSpace(rec.Get("CREATED")),
		Year:    strings.TrimSpace(rec.Get("YEAR")),
		Type:    strings.TrimSpace(rec.Get("TYPE")),
	}
	if row.Year == "" {
		if d, ok := ParseDate(row.Date); ok {
			row.Year = strconv.Itoa(d.Year())
		}
	}
	return row
}

// searchFields enumerates the values the free-text query matches against.
func (r DirectoryRow) searchFields() []string {
	return []string{r.State, r.City, r.Name, r.Instagram, r.Sat, r.Sun, r.OpenToAll}
}

func (r EventRow) searchFields() []string {
	return []string{r.Event, r.For, r.Where, r.City, r.State, r.Day, r.Date, r.Year, r.Type}
}
