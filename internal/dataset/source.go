// Package dataset loads the directory and events CSV tables from disk or
// HTTP, normalizes them into domain rows, and holds the latest snapshot for
// concurrent readers. An optional refresher reloads the tables on an
// interval.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/openmat/matdir/internal/csvio"
	"github.com/openmat/matdir/internal/domain"
	"github.com/openmat/matdir/internal/observability"
)

// Facets are the distinct values the UI offers as filter options, computed
// once per load.
type Facets struct {
	States      []string `json:"states"`
	EventStates []string `json:"event_states"`
	Years       []string `json:"years"`
	Types       []string `json:"types"`
}

// Snapshot is one consistent load of both tables.
type Snapshot struct {
	Directory []domain.DirectoryRow
	Events    []domain.EventRow
	Facets    Facets
	LoadedAt  time.Time
}

// Source knows where the two CSV tables live. Paths may be local files or
// http(s) URLs.
type Source struct {
	DirectoryPath string
	EventsPath    string
	HTTPClient    *http.Client
	Metrics       *observability.Metrics
	Logger        *slog.Logger
}

// Load reads and normalizes both tables. A directory failure fails the load;
// an events failure degrades to an empty events table, since the directory is
// the primary surface.
func (s *Source) Load(ctx context.Context) (Snapshot, error) {
	dirText, err := s.fetch(ctx, s.DirectoryPath)
	if err != nil {
		s.Metrics.DatasetLoads.WithLabelValues("error").Inc()
		return Snapshot{}, fmt.Errorf("load directory table: %w", err)
	}

	snap := Snapshot{LoadedAt: time.Now()}
	for _, rec := range csvio.Parse(dirText) {
		row := domain.NormalizeDirectoryRow(rec)
		if row.Name == "" && row.City == "" && row.State == "" {
			continue
		}
		snap.Directory = append(snap.Directory, row)
	}

	evText, err := s.fetch(ctx, s.EventsPath)
	if err != nil {
		s.Logger.Warn("load events table failed, serving directory only", "error", err)
	} else {
		for _, rec := range csvio.Parse(evText) {
			row := domain.NormalizeEventRow(rec)
			if row.Event == "" && row.City == "" && row.State == "" {
				continue
			}
			snap.Events = append(snap.Events, row)
		}
	}

	snap.Facets = collectFacets(snap.Directory, snap.Events)

	s.Metrics.DatasetLoads.WithLabelValues("success").Inc()
	s.Metrics.DatasetRows.WithLabelValues("directory").Set(float64(len(snap.Directory)))
	s.Metrics.DatasetRows.WithLabelValues("events").Set(float64(len(snap.Events)))
	s.Logger.Info("dataset loaded",
		"directory_rows", len(snap.Directory),
		"event_rows", len(snap.Events),
	)
	return snap, nil
}

func (s *Source) fetch(ctx context.Context, path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return s.fetchURL(ctx, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Source) fetchURL(ctx context.Context, rawURL string) (string, error) {
	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// collectFacets gathers the distinct filterable values. States and types sort
// ascending; years sort descending so the current year leads the list.
func collectFacets(dir []domain.DirectoryRow, events []domain.EventRow) Facets {
	states := map[string]struct{}{}
	for _, r := range dir {
		if r.State != "" {
			states[r.State] = struct{}{}
		}
	}

	evStates := map[string]struct{}{}
	years := map[string]struct{}{}
	types := map[string]struct{}{}
	for _, r := range events {
		if r.State != "" {
			evStates[r.State] = struct{}{}
		}
		if r.Year != "" {
			years[r.Year] = struct{}{}
		}
		if r.Type != "" {
			types[r.Type] = struct{}{}
		}
	}

	f := Facets{
		States:      sortedKeys(states),
		EventStates: sortedKeys(evStates),
		Years:       sortedKeys(years),
		Types:       sortedKeys(types),
	}
	sort.Sort(sort.Reverse(sort.StringSlice(f.Years)))
	return f
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
