package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventstats/internal/store"
	"eventstats/pkg/models"
)

type fakeStats struct {
	rows      []models.BreakdownRow
	err       error
	gotStart  string
	gotEnd    string
	dimension string
}

func (f *fakeStats) Breakdown(_ context.Context, dimension, start, end string) ([]models.BreakdownRow, error) {
	f.dimension = dimension
	f.gotStart = start
	f.gotEnd = end
	return f.rows, f.err
}

func doGet(t *testing.T, stats Stats, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	NewServer("127.0.0.1:0", stats).Handler().ServeHTTP(rec, req)
	return rec
}

func TestStatsReturnsPairArray(t *testing.T) {
	stats := &fakeStats{rows: []models.BreakdownRow{
		{Label: "Mobile Safari", Percentage: "66.67%"},
		{Label: "Chrome", Percentage: "33.33%"},
	}}

	rec := doGet(t, stats, "/stats/browser")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body [][2]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not an array of pairs: %v (%s)", err, rec.Body.String())
	}
	if body[0] != [2]string{"Mobile Safari", "66.67%"} || body[1] != [2]string{"Chrome", "33.33%"} {
		t.Fatalf("unexpected body: %v", body)
	}
	if stats.dimension != "browser" || stats.gotStart != "" || stats.gotEnd != "" {
		t.Fatalf("unexpected query args: %+v", stats)
	}
}

func TestStatsConvertsTimeBounds(t *testing.T) {
	stats := &fakeStats{rows: []models.BreakdownRow{{Label: "iOS", Percentage: "100.00%"}}}

	rec := doGet(t, stats, "/stats/os?start_date=2014-10-12T17:01:01Z&end_date=2014-10-12T17:01:06Z")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if stats.gotStart != "2014-10-12 17:01:01" || stats.gotEnd != "2014-10-12 17:01:06" {
		t.Fatalf("bounds not converted: %q / %q", stats.gotStart, stats.gotEnd)
	}
}

func TestStatsRejectsBadParameterSets(t *testing.T) {
	urls := []string{
		"/stats/device?start_date=2014-10-12T17:01:01Z",
		"/stats/device?end_date=2014-10-12T17:01:06Z",
		"/stats/device?start_date=2014-10-12T17:01:01Z&end_date=2014-10-12T17:01:06Z&limit=5",
		"/stats/device?foo=bar",
	}
	for _, url := range urls {
		rec := doGet(t, &fakeStats{}, url)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", url, rec.Code)
		}
	}
}

func TestStatsRejectsMalformedTimestamps(t *testing.T) {
	urls := []string{
		"/stats/os?start_date=2014-10-12&end_date=2014-10-12T17:01:06Z",
		"/stats/os?start_date=2014-10-12T17:01:01Z&end_date=2014-10-12+17:01:06",
		"/stats/os?start_date=2014-10-12T17:01:01%2B01:00&end_date=2014-10-12T17:01:06Z",
	}
	for _, url := range urls {
		rec := doGet(t, &fakeStats{}, url)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", url, rec.Code)
		}
	}
}

func TestStatsNotFound(t *testing.T) {
	rec := doGet(t, &fakeStats{err: store.ErrNotFound}, "/stats/browser")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStatsQueryFaultIsServerError(t *testing.T) {
	rec := doGet(t, &fakeStats{err: errors.New("disk on fire")}, "/stats/browser")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestStatsRejectsNonGET(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/stats/browser", nil)
	rec := httptest.NewRecorder()
	NewServer("127.0.0.1:0", &fakeStats{}).Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
