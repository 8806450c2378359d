// Package domain models the two tables behind the open-mat site, the gym
// directory and the events calendar, and implements the pure computation
// that powers both views: free-text and facet filtering, distance filtering
// against a geocoded origin, and the grouped, ordered sections the renderer
// consumes.
//
// # Data Conventions
//
// Both tables are CSV with an uppercase header. Directory columns:
//
//	STATE,CITY,NAME,IG,SAT,SUN,OTA,CREATED,LAT,LON
//
// SAT/SUN are free-form open-mat times ("11am", "10-12"). OTA is the
// "open to all / drop-in welcome" flag, literal "Y" or "N". LAT/LON are
// precomputed coordinates and may both be blank; a row never carries just
// one of the two.
//
// Event columns:
//
//	EVENT,FOR,WHERE,CITY,STATE,DAY,DATE,CREATED,YEAR,TYPE
//
// DATE and CREATED are MM/DD/YYYY in the normal case, but the data is hand
// maintained, so every date parse in this package degrades to "unknown"
// instead of failing. YEAR is derived from DATE when the column is blank.
//
// Rows are immutable once normalized: filtering and grouping read fields and
// build new slices, never mutating their inputs.
//
// # Time
//
// "Today" means local midnight. The upcoming/past split, the *NEW badge
// (CREATED within the last 4 days), and admin-side CREATED stamps all read
// the package clock, which tests freeze via [SetClock].
package domain
