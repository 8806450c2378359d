package domain

import (
	"math"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
)

// earthRadiusMiles is the mean Earth radius used for haversine distances.
const earthRadiusMiles = 3958.7613

// milesPerDegreeLat approximates one degree of latitude for the cheap
// bounding-box prefilter.
const milesPerDegreeLat = 69.0

var zipRe = regexp.MustCompile(`^\d{5}$`)

// ResolveOutcome is the state of a geocode lookup as seen by the filter.
type ResolveOutcome int

const (
	// ResolvePending means a lookup has been queued and has not settled.
	ResolvePending ResolveOutcome = iota
	// ResolveFound means the key resolved to a coordinate.
	ResolveFound
	// ResolveNotFound is terminal: the key did not resolve and will not
	// without a new session.
	ResolveNotFound
)

// LocationResolver resolves place queries to coordinates without blocking.
// A Pending outcome means the lookup was queued; notify fires once it
// settles so the caller can re-run the filter.
type LocationResolver interface {
	LookupZIP(zip string, notify func()) (Coordinate, ResolveOutcome)
	LookupCity(city, state string, notify func()) (Coordinate, ResolveOutcome)
}

// DistanceResult is the outcome of a distance filter pass.
type DistanceResult struct {
	// Rows is the matching subset, input order preserved.
	Rows []DirectoryRow
	// Pending counts origin or row lookups still awaiting resolution.
	Pending int
	// Active is false when the filter was a no-op (missing or invalid
	// origin/radius) and Rows is simply the input.
	Active bool
}

// FilterByDistance narrows rows to those within radiusMiles of the origin,
// which is either a 5-digit ZIP or a legacy "City, ST" string. An absent or
// invalid origin or non-positive radius deactivates the filter. While the
// origin is unresolved the result is empty with Pending=1; notify fires when
// the resolver settles and the caller should re-run the filter.
func FilterByDistance(rows []DirectoryRow, origin string, radiusMiles float64, resolver LocationResolver, notify func()) DistanceResult {
	origin = strings.TrimSpace(origin)
	if radiusMiles <= 0 || math.IsNaN(radiusMiles) || math.IsInf(radiusMiles, 0) || resolver == nil {
		return DistanceResult{Rows: rows}
	}

	from, outcome, ok := resolveOrigin(origin, resolver, notify)
	if !ok {
		return DistanceResult{Rows: rows}
	}
	switch outcome {
	case ResolvePending:
		return DistanceResult{Rows: []DirectoryRow{}, Pending: 1, Active: true}
	case ResolveNotFound:
		return DistanceResult{Rows: []DirectoryRow{}, Active: true}
	}

	bound := boundingBox(from, radiusMiles)

	out := make([]DirectoryRow, 0, len(rows))
	pending := 0
	for _, r := range rows {
		c, ok := rowCoordinate(r, resolver, notify, &pending)
		if !ok {
			continue
		}
		if !bound.Contains(c.Point()) {
			continue
		}
		if HaversineMiles(from, c) <= radiusMiles {
			out = append(out, r)
		}
	}
	return DistanceResult{Rows: out, Pending: pending, Active: true}
}

// resolveOrigin routes a ZIP to the ZIP lookup and a legacy "City, ST"
// string to the city+state lookup. The third return is false when the origin
// is neither, which deactivates the filter entirely.
func resolveOrigin(origin string, resolver LocationResolver, notify func()) (Coordinate, ResolveOutcome, bool) {
	if zipRe.MatchString(origin) {
		c, outcome := resolver.LookupZIP(origin, notify)
		return c, outcome, true
	}
	city, state, found := strings.Cut(origin, ",")
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if !found || city == "" || state == "" {
		return Coordinate{}, ResolveNotFound, false
	}
	c, outcome := resolver.LookupCity(city, state, notify)
	return c, outcome, true
}

// rowCoordinate yields a row's coordinate: the precomputed LAT/LON when
// present, otherwise a city+state resolution. Unresolved rows count as
// pending and are skipped.
func rowCoordinate(r DirectoryRow, resolver LocationResolver, notify func(), pending *int) (Coordinate, bool) {
	if r.HasCoord {
		return r.Coord, true
	}
	if r.City == "" {
		return Coordinate{}, false
	}
	c, outcome := resolver.LookupCity(r.City, r.State, notify)
	switch outcome {
	case ResolveFound:
		return c, true
	case ResolvePending:
		*pending++
	}
	return Coordinate{}, false
}

// boundingBox is the cheap prefilter around the origin: ±radius/69 degrees
// of latitude, with the longitude delta widened by the cosine of the origin
// latitude to account for meridian convergence.
func boundingBox(origin Coordinate, radiusMiles float64) orb.Bound {
	dLat := radiusMiles / milesPerDegreeLat
	cosLat := math.Cos(toRad(origin.Lat))
	if cosLat == 0 {
		cosLat = 1
	}
	dLon := radiusMiles / (milesPerDegreeLat * cosLat)

	return orb.Bound{
		Min: orb.Point{origin.Lon - dLon, origin.Lat - dLat},
		Max: orb.Point{origin.Lon + dLon, origin.Lat + dLat},
	}
}

// HaversineMiles computes the great-circle distance between two coordinates.
func HaversineMiles(a, b Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	s := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Asin(math.Min(1, math.Sqrt(s)))
	return earthRadiusMiles * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
