package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmat/matdir/internal/adapter/github"
	"github.com/openmat/matdir/internal/dataset"
	"github.com/openmat/matdir/internal/domain"
	"github.com/openmat/matdir/internal/observability"
)

// stubResolver answers from fixed maps; unknown keys are pending.
type stubResolver struct {
	zips   map[string]domain.Coordinate
	cities map[string]domain.Coordinate
}

func (s *stubResolver) LookupZIP(zip string, _ func()) (domain.Coordinate, domain.ResolveOutcome) {
	if c, ok := s.zips[zip]; ok {
		return c, domain.ResolveFound
	}
	return domain.Coordinate{}, domain.ResolvePending
}

func (s *stubResolver) LookupCity(city, state string, _ func()) (domain.Coordinate, domain.ResolveOutcome) {
	if c, ok := s.cities[city+"|"+state]; ok {
		return c, domain.ResolveFound
	}
	return domain.Coordinate{}, domain.ResolveNotFound
}

func testSnapshot() dataset.Snapshot {
	return dataset.Snapshot{
		Directory: []domain.DirectoryRow{
			{State: "MA", City: "Boston", Name: "Boston Judo", OpenToAll: "Y", Created: "01/30/2026",
				Coord: domain.Coordinate{Lat: 42.3584, Lon: -71.0598}, HasCoord: true},
			{State: "MA", City: "Worcester", Name: "Worcester Grappling", OpenToAll: "N",
				Coord: domain.Coordinate{Lat: 42.2626, Lon: -71.8023}, HasCoord: true},
			{State: "NH", City: "Nashua", Name: "Granite Grappling", OpenToAll: "Y"},
		},
		Events: []domain.EventRow{
			{Event: "Winter Open", City: "Boston", State: "MA", Date: "02/07/2026", Year: "2026", Type: "Gi"},
			{Event: "Fall Classic", City: "Nashua", State: "NH", Date: "10/10/2025", Year: "2025", Type: "No-Gi"},
			{Event: "Mystery Throwdown", City: "Keene", State: "NH", Year: "2026"},
		},
		Facets: dataset.Facets{
			States:      []string{"MA", "NH"},
			EventStates: []string{"MA", "NH"},
			Years:       []string{"2026", "2025"},
			Types:       []string{"Gi", "No-Gi"},
		},
		LoadedAt: time.Now(),
	}
}

func newTestServer(t *testing.T, admin *github.Service, ratePerMinute int) *Server {
	t.Helper()
	store := dataset.NewStore()
	store.Replace(testSnapshot())
	return NewServer(":0", Deps{
		Data: store,
		Resolver: &stubResolver{
			zips: map[string]domain.Coordinate{"02134": {Lat: 42.3558, Lon: -71.1325}},
		},
		Admin:              admin,
		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		AdminRatePerMinute: ratePerMinute,
	})
}

func doGET(t *testing.T, s *Server, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestServer_HealthAndReady(t *testing.T) {
	s := newTestServer(t, nil, 0)
	assert.Equal(t, http.StatusOK, doGET(t, s, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, doGET(t, s, "/readyz", nil).Code)

	empty := NewServer(":0", Deps{
		Data:   dataset.NewStore(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assert.Equal(t, http.StatusServiceUnavailable, doGET(t, empty, "/readyz", nil).Code)
}

func TestServer_DirectoryGrouping(t *testing.T) {
	s := newTestServer(t, nil, 0)

	var resp directoryResponse
	rec := doGET(t, s, "/api/directory", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "MA", resp.Groups[0].Label)
	assert.Equal(t, "NH", resp.Groups[1].Label)
	assert.Equal(t, 3, resp.Total)
	assert.False(t, resp.DistanceActive)
}

func TestServer_DirectoryFilters(t *testing.T) {
	s := newTestServer(t, nil, 0)

	var resp directoryResponse
	doGET(t, s, "/api/directory?q=granite", &resp)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Granite Grappling", resp.Groups[0].Rows[0].Name)

	doGET(t, s, "/api/directory?state=ma&dropin=on", &resp)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Boston Judo", resp.Groups[0].Rows[0].Name)
}

func TestServer_DirectoryDistance(t *testing.T) {
	s := newTestServer(t, nil, 0)

	var resp directoryResponse
	doGET(t, s, "/api/directory?zip=02134&radius=10", &resp)
	assert.True(t, resp.DistanceActive)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Boston Judo", resp.Groups[0].Rows[0].Name)

	// Unknown ZIP is a pending origin: empty result, pending count set.
	doGET(t, s, "/api/directory?zip=03064&radius=10", &resp)
	assert.True(t, resp.DistanceActive)
	assert.Equal(t, 0, resp.Total)
	assert.Equal(t, 1, resp.Pending)
}

func TestServer_DirectoryNewFlag(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local)))
	defer domain.SetClock(nil)

	s := newTestServer(t, nil, 0)
	var resp directoryResponse
	doGET(t, s, "/api/directory?q=boston", &resp)
	require.Equal(t, 1, resp.Total)
	assert.True(t, resp.Groups[0].Rows[0].New, "created 01/30/2026 is within the window on 02/01/2026")
}

func TestServer_EventsGrouping(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local)))
	defer domain.SetClock(nil)

	s := newTestServer(t, nil, 0)
	var resp eventsResponse
	rec := doGET(t, s, "/api/events", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	labels := make([]string, len(resp.Groups))
	for i, g := range resp.Groups {
		labels[i] = g.Label
	}
	assert.Equal(t, []string{"February 2026", "October 2025", "Unknown Date"}, labels)
	assert.Equal(t, "02/07/26", resp.Groups[0].Rows[0].DisplayDate)
	assert.Equal(t, "—", resp.Groups[2].Rows[0].DisplayDate)
	assert.Equal(t, 3, resp.Total)
}

func TestServer_EventsFilters(t *testing.T) {
	s := newTestServer(t, nil, 0)

	var resp eventsResponse
	doGET(t, s, "/api/events?year=2026&type=Gi", &resp)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Winter Open", resp.Groups[0].Rows[0].Event)

	doGET(t, s, "/api/events?state=nh", &resp)
	assert.Equal(t, 2, resp.Total)
}

func TestServer_Facets(t *testing.T) {
	s := newTestServer(t, nil, 0)

	var f dataset.Facets
	doGET(t, s, "/api/facets", &f)
	assert.Equal(t, []string{"MA", "NH"}, f.States)
	assert.Equal(t, []string{"2026", "2025"}, f.Years)
}

func TestServer_AdminDisabled(t *testing.T) {
	s := newTestServer(t, nil, 0)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/events", strings.NewReader("{}")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// newAdminService builds a github.Service against a minimal fake contents
// API that accepts one token and always commits cleanly.
func newAdminService(t *testing.T) *github.Service {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	mux.HandleFunc("GET /repos/openmat/data/contents/", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content": base64.StdEncoding.EncodeToString([]byte("HEADER\n")),
			"sha":     "abc123",
		})
	})
	mux.HandleFunc("PUT /repos/openmat/data/contents/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := github.NewClient(srv.URL, "openmat", "data", "main", 5*time.Second, logger)
	return github.NewService(client, "data/directory.csv", "data/events.csv", observability.NewMetricsForTesting(), logger)
}

func postAdmin(s *Server, target, token, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_AdminSubmitEvent(t *testing.T) {
	s := newTestServer(t, newAdminService(t), 0)

	body := `{"event":"Winter Open","city":"Boston","state":"MA","date":"02/07/2026"}`
	rec := postAdmin(s, "/api/admin/events", "good-token", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_AdminErrors(t *testing.T) {
	s := newTestServer(t, newAdminService(t), 0)

	body := `{"event":"Winter Open","city":"Boston","state":"MA","date":"02/07/2026"}`
	assert.Equal(t, http.StatusUnauthorized, postAdmin(s, "/api/admin/events", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, postAdmin(s, "/api/admin/events", "bad-token", body).Code)
	assert.Equal(t, http.StatusBadRequest, postAdmin(s, "/api/admin/events", "good-token", "{not json").Code)
	assert.Equal(t, http.StatusBadRequest, postAdmin(s, "/api/admin/events", "good-token", `{"city":"Boston"}`).Code)
}

func TestServer_AdminRateLimit(t *testing.T) {
	s := newTestServer(t, newAdminService(t), 1)

	body := `{"event":"Winter Open","city":"Boston","state":"MA","date":"02/07/2026"}`
	assert.Equal(t, http.StatusCreated, postAdmin(s, "/api/admin/events", "good-token", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, postAdmin(s, "/api/admin/events", "good-token", body).Code)
}
