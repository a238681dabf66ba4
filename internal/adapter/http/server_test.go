package http_test

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/nightsift/sighting-data-service/internal/adapter/http"
	"github.com/nightsift/sighting-data-service/internal/domain"
	"github.com/nightsift/sighting-data-service/internal/engine"
	"github.com/nightsift/sighting-data-service/internal/observability"
)

func record(id, country, shape string, year int, durationSeconds, lat float64) domain.Sighting {
	return domain.Sighting{
		ID:              id,
		OccurredAt:      time.Date(year, 3, 1, 9, 0, 0, 0, time.UTC),
		City:            "somewhere",
		CountryCode:     country,
		ShapeCategory:   shape,
		DurationSeconds: durationSeconds,
		DurationBucket:  domain.DeriveDurationBucket(durationSeconds),
		Latitude:        lat,
		Longitude:       lat,
	}
}

func newTestServer(t *testing.T, records ...domain.Sighting) (*httpadapter.Server, *engine.Engine) {
	t.Helper()
	eng := engine.New(slog.Default(), observability.NewMetricsForTesting())
	if records != nil {
		eng.SetDataset(records)
	}
	return httpadapter.NewServer(":0", eng, slog.Default()), eng
}

func do(t *testing.T, srv *httpadapter.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("503 before first load", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("200 once loaded", func(t *testing.T) {
		srv, _ := newTestServer(t, record("a", "us", "disk", 1990, 60, 40))
		rec := do(t, srv, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetView(t *testing.T) {
	srv, _ := newTestServer(t,
		record("a", "us", "disk", 1990, 60, 40),
		record("b", "gb", "light", 2000, 600, 51),
	)

	rec := do(t, srv, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(2), body["shown"])
	assert.Equal(t, "newest", body["sort_mode"])

	records := body["records"].([]any)
	require.Len(t, records, 2)
	first := records[0].(map[string]any)
	assert.Equal(t, "b", first["id"], "newest first by default")
}

func TestGetView_UnplottableCoordinates(t *testing.T) {
	srv, _ := newTestServer(t, record("a", "us", "disk", 1990, 60, math.NaN()))

	rec := do(t, srv, http.MethodGet, "/api/view", "")
	require.Equal(t, http.StatusOK, rec.Code)

	records := decode(t, rec)["records"].([]any)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].(map[string]any)["latitude"])
}

func TestGetSummary(t *testing.T) {
	srv, _ := newTestServer(t,
		record("a", "us", "disk", 1990, 100, 40),
		record("b", "us", "disk", 1990, 400, 40),
		record("c", "us", "disk", 1990, 2000, 40),
	)

	body := decode(t, do(t, srv, http.MethodGet, "/api/summary", ""))
	buckets := body["buckets"].(map[string]any)
	assert.Equal(t, float64(1), buckets["short"])
	assert.Equal(t, float64(1), buckets["medium"])
	assert.Equal(t, float64(1), buckets["long"])
	assert.Equal(t, "grid", body["active_view"])
}

func TestGetOptions(t *testing.T) {
	srv, _ := newTestServer(t)

	body := decode(t, do(t, srv, http.MethodGet, "/api/options", ""))
	assert.ElementsMatch(t, []any{"us", "gb", "au", "ca"}, body["countries"])
	assert.Len(t, body["shapes"], 9)
	assert.Len(t, body["sort_modes"], 6)
	assert.Len(t, body["views"], 4)
}

func TestToggleCountry(t *testing.T) {
	srv, eng := newTestServer(t,
		record("a", "us", "disk", 1990, 60, 40),
		record("b", "gb", "disk", 1990, 60, 51),
	)

	rec := do(t, srv, http.MethodPost, "/api/filters/countries/us", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["shown"])

	// Toggling again restores the full view.
	rec = do(t, srv, http.MethodPost, "/api/filters/countries/us", "")
	assert.Equal(t, float64(2), decode(t, rec)["shown"])
	assert.Len(t, eng.View(), 2)
}

func TestSetBucketFilter(t *testing.T) {
	srv, _ := newTestServer(t,
		record("a", "us", "disk", 1990, 100, 40),
		record("b", "us", "disk", 1990, 400, 40),
	)

	rec := do(t, srv, http.MethodPut, "/api/filters/duration-bucket", `{"bucket":"medium"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["shown"])

	rec = do(t, srv, http.MethodPut, "/api/filters/duration-bucket", `{"bucket":"gigantic"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetYearRange_Clamps(t *testing.T) {
	srv, _ := newTestServer(t, record("a", "us", "disk", 1990, 60, 40))

	rec := do(t, srv, http.MethodPut, "/api/filters/year-range", `{"min":2000,"max":1950}`)
	require.Equal(t, http.StatusOK, rec.Code)

	criteria := decode(t, rec)["criteria"].(map[string]any)
	yearMin := criteria["year_min"].(float64)
	yearMax := criteria["year_max"].(float64)
	assert.Less(t, yearMin, yearMax)
}

func TestSetSort(t *testing.T) {
	srv, _ := newTestServer(t,
		record("a", "us", "disk", 1990, 60, 40),
		record("b", "gb", "disk", 2000, 600, 51),
	)

	rec := do(t, srv, http.MethodPut, "/api/sort", `{"mode":"oldest"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "oldest", decode(t, rec)["sort_mode"])

	rec = do(t, srv, http.MethodPut, "/api/sort", `{"mode":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetActiveView_ResetsBucket(t *testing.T) {
	srv, _ := newTestServer(t,
		record("a", "us", "disk", 1990, 100, 40),
		record("b", "us", "disk", 1990, 400, 40),
	)

	do(t, srv, http.MethodPut, "/api/filters/duration-bucket", `{"bucket":"medium"}`)

	rec := do(t, srv, http.MethodPut, "/api/active-view", `{"view":"map"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "map", body["active_view"])
	criteria := body["criteria"].(map[string]any)
	assert.Equal(t, "all", criteria["duration_bucket"])
	assert.Equal(t, float64(2), body["shown"])
}

func TestBadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodPut, "/api/sort", "{nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsStream(t *testing.T) {
	srv, eng := newTestServer(t, record("a", "us", "disk", 1990, 60, 40))

	real := httptest.NewServer(srv)
	defer real.Close()

	resp, err := http.Get(real.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The initial snapshot event arrives without any mutation.
	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "event: view-changed")

	eng.ToggleCountry("us")
	n, err = resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"shown":1`)
}
