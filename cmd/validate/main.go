// Command validate performs data integrity checks on the directory and
// events CSV tables. It verifies required columns, field formats, coordinate
// validity, and duplicate rows, and reports a pass/fail summary per phase.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -directory data/directory.csv \
//	  -events data/events.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/openmat/matdir/internal/csvio"
	"github.com/openmat/matdir/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var stateRe = regexp.MustCompile(`^[A-Z]{2}$`)

var directoryColumns = []string{"STATE", "CITY", "NAME", "IG", "SAT", "SUN", "OTA", "CREATED", "LAT", "LON"}
var eventColumns = []string{"EVENT", "FOR", "WHERE", "CITY", "STATE", "DAY", "DATE", "CREATED", "YEAR", "TYPE"}

func main() {
	directoryPath := flag.String("directory", "", "path to the directory CSV table")
	eventsPath := flag.String("events", "", "path to the events CSV table")
	flag.Parse()

	if *directoryPath == "" || *eventsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*directoryPath, *eventsPath); code != 0 {
		os.Exit(code)
	}
}

func run(directoryPath, eventsPath string) int {
	fmt.Println("=== Directory Data Integrity Validation ===")
	fmt.Println()

	dirText, err := os.ReadFile(directoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read directory table: %v\n", err)
		return 1
	}
	evText, err := os.ReadFile(eventsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read events table: %v\n", err)
		return 1
	}

	dirRecords := csvio.Parse(string(dirText))
	evRecords := csvio.Parse(string(evText))

	phases := []*phase{
		validateColumns("Phase 1: Directory Columns", dirRecords, directoryColumns),
		validateDirectoryRows(dirRecords),
		validateColumns("Phase 3: Event Columns", evRecords, eventColumns),
		validateEventRows(evRecords),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d directory, %d events\n", len(dirRecords), len(evRecords))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateColumns checks that every expected column survives the header row.
func validateColumns(name string, records []csvio.Record, expected []string) *phase {
	p := &phase{name: name}
	if len(records) == 0 {
		p.errorf("table has no data rows")
		return p
	}

	have := map[string]bool{}
	for _, c := range records[0].Columns() {
		have[c] = true
	}
	for _, c := range expected {
		if !have[c] {
			p.errorf("missing column %q", c)
		}
	}
	return p
}

func validateDirectoryRows(records []csvio.Record) *phase {
	p := &phase{name: "Phase 2: Directory Rows"}

	seen := map[string]int{}
	for i, rec := range records {
		line := i + 2 // header is line 1
		row := domain.NormalizeDirectoryRow(rec)

		if row.Name == "" && row.City == "" && row.State == "" {
			continue // blank filler row
		}
		if row.Name == "" {
			p.errorf("line %d: NAME is empty", line)
		}
		if row.City == "" {
			p.errorf("line %d: CITY is empty", line)
		}
		if row.State == "" {
			p.errorf("line %d: STATE is empty", line)
		} else if !stateRe.MatchString(row.State) {
			p.errorf("line %d: STATE %q is not a 2-letter code", line, row.State)
		}
		if row.OpenToAll != "" && row.OpenToAll != "Y" && row.OpenToAll != "N" {
			p.errorf("line %d: OTA %q is not Y or N", line, row.OpenToAll)
		}

		lat, lon := strings.TrimSpace(rec.Get("LAT")), strings.TrimSpace(rec.Get("LON"))
		if (lat == "") != (lon == "") {
			p.errorf("line %d: LAT/LON must both be set or both be empty", line)
		} else if lat != "" && !row.HasCoord {
			p.errorf("line %d: LAT/LON (%q, %q) do not parse to a valid coordinate", line, lat, lon)
		}
		if row.Created != "" {
			if _, ok := domain.ParseDate(row.Created); !ok {
				p.errorf("line %d: CREATED %q is not a parseable date", line, row.Created)
			}
		}

		key := row.State + "|" + row.City + "|" + row.Name
		if prev, dup := seen[key]; dup {
			p.errorf("line %d: duplicate of line %d (%s)", line, prev, key)
		} else {
			seen[key] = line
		}
	}
	return p
}

func validateEventRows(records []csvio.Record) *phase {
	p := &phase{name: "Phase 4: Event Rows"}

	seen := map[string]int{}
	for i, rec := range records {
		line := i + 2
		row := domain.NormalizeEventRow(rec)

		if row.Event == "" && row.City == "" && row.State == "" {
			continue
		}
		if row.Event == "" {
			p.errorf("line %d: EVENT is empty", line)
		}
		if row.State != "" && !stateRe.MatchString(row.State) {
			p.errorf("line %d: STATE %q is not a 2-letter code", line, row.State)
		}
		if row.Date != "" {
			if _, ok := domain.ParseDate(row.Date); !ok {
				p.errorf("line %d: DATE %q is not a parseable date", line, row.Date)
			}
		}
		if row.Year != "" {
			if _, err := strconv.Atoi(row.Year); err != nil {
				p.errorf("line %d: YEAR %q is not numeric", line, row.Year)
			}
		}
		if row.Created != "" {
			if _, ok := domain.ParseDate(row.Created); !ok {
				p.errorf("line %d: CREATED %q is not a parseable date", line, row.Created)
			}
		}

		key := row.Event + "|" + row.Date + "|" + row.City
		if prev, dup := seen[key]; dup {
			p.errorf("line %d: duplicate of line %d (%s)", line, prev, key)
		} else {
			seen[key] = line
		}
	}
	return p
}
