package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/citypulse/trafficguide/internal/cache"
	"github.com/citypulse/trafficguide/internal/classifier"
	"github.com/citypulse/trafficguide/internal/contentfilter"
	"github.com/citypulse/trafficguide/internal/guide"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/internal/reasoning"
	"github.com/citypulse/trafficguide/internal/rules"
	"github.com/citypulse/trafficguide/internal/scoring"
	"github.com/citypulse/trafficguide/internal/store"
)

func testRuleset() *rules.Ruleset {
	return &rules.Ruleset{
		PeakWindows: models.PeakWindows{
			WeekdayMorning: &models.TimeRange{Start: models.NewClockTime(8, 0), End: models.NewClockTime(11, 0)},
			WeekdayEvening: &models.TimeRange{Start: models.NewClockTime(17, 0), End: models.NewClockTime(20, 0)},
		},
		Zones: []models.Zone{
			{Name: "zone_it_corridor", Areas: []string{"Gachibowli", "Hitec City", "Madhapur"}},
			{Name: "zone_central", Areas: []string{"Ameerpet"}},
		},
		Hotspots: []string{"Gachibowli", "Hitec City", "Ameerpet"},
		Templates: map[string]string{
			models.RulePeakWindow: "Departure time falls in a typical peak window.",
			models.RuleITCorridor: "One endpoint is in the west/IT corridor, which usually amplifies peak-hour congestion.",
			models.RuleHotspot:    "This route touches a known slow zone, so delays are more likely.",
			models.RuleWeekend:    "Weekend traffic is often smoother unless you're near busy hotspots.",
		},
		Fingerprint: "apitest",
	}
}

func newTestServer(t *testing.T) (*chi.Mux, *store.InMemoryStore) {
	t.Helper()

	rulesStore := rules.NewStaticStore(testRuleset())
	auditStore := store.NewInMemoryStore(100)
	reasoner := reasoning.New(rulesStore)
	g := guide.New(
		rulesStore,
		classifier.New(rulesStore, classifier.SubstringMatcher{}, cache.NewMemoryCache()),
		scoring.New(rulesStore, reasoner),
		reasoner,
		contentfilter.New(),
		auditStore,
	)

	h := NewHandler(g, auditStore, rulesStore, 100, 20, "test", "now", "deadbeef")
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, auditStore
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not valid JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestAnalyzeRouteEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	rec, body := doJSON(t, r, "POST", "/v1/routes/analyze", `{
		"origin": "Gachibowli",
		"destination": "Ameerpet",
		"departure_time": "2025-01-06T09:00:00Z"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	congestion, ok := body["congestion"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing congestion object: %v", body)
	}
	if congestion["level"] != "High" {
		t.Errorf("level = %v, want High", congestion["level"])
	}
	if congestion["score"] != float64(2) {
		t.Errorf("score = %v, want 2", congestion["score"])
	}
	if congestion["departure_recommendation"] != "wait until after 20:00" {
		t.Errorf("departure_recommendation = %v", congestion["departure_recommendation"])
	}
}

func TestAnalyzeRouteEndpointBadRequests(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"origin": `},
		{"bad departure time", `{"origin":"Gachibowli","destination":"Ameerpet","departure_time":"tomorrow"}`},
		{"oversized origin", `{"origin":"` + strings.Repeat("x", 101) + `","destination":"Ameerpet","departure_time":"2025-01-06T09:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doJSON(t, r, "POST", "/v1/routes/analyze", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAnalyzeRouteEndpointMissingTime(t *testing.T) {
	r, _ := newTestServer(t)

	rec, body := doJSON(t, r, "POST", "/v1/routes/analyze",
		`{"origin":"Gachibowli","destination":"Ameerpet"}`)

	// Missing time is a domain-level failure: still 200, explanatory result.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	congestion := body["congestion"].(map[string]interface{})
	if congestion["level"] != "High" {
		t.Errorf("level = %v, want conservative High", congestion["level"])
	}
	explanation, _ := congestion["reasoning"].(string)
	if !strings.Contains(explanation, "Departure time is required") {
		t.Errorf("reasoning = %q", explanation)
	}
}

func TestAnalyzeRouteEndpointUnknownArea(t *testing.T) {
	r, _ := newTestServer(t)

	rec, body := doJSON(t, r, "POST", "/v1/routes/analyze",
		`{"origin":"Warangal","destination":"Ameerpet","departure_time":"2025-01-06T09:00:00Z"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	congestion := body["congestion"].(map[string]interface{})
	reasoning, _ := congestion["reasoning"].(string)
	if !strings.Contains(reasoning, "To add 'Warangal'") {
		t.Errorf("reasoning = %q, want area-addition suggestion", reasoning)
	}
}

func TestAnalyzeRouteEndpointWithPreferences(t *testing.T) {
	r, _ := newTestServer(t)

	rec, body := doJSON(t, r, "POST", "/v1/routes/analyze", `{
		"origin": "Gachibowli",
		"destination": "Ameerpet",
		"departure_time": "2025-01-06T09:00:00Z",
		"avoid_nightlife": true,
		"prefer_family_friendly": true
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	congestion := body["congestion"].(map[string]interface{})
	if congestion["level"] != "High" || congestion["score"] != float64(2) {
		t.Errorf("filtering changed non-text fields: %v", congestion)
	}
}

func TestGetAreaEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	t.Run("known area", func(t *testing.T) {
		rec, body := doJSON(t, r, "GET", "/v1/areas/Gachibowli", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if body["known"] != true {
			t.Errorf("known = %v", body["known"])
		}
		area := body["area"].(map[string]interface{})
		if area["zone"] != "zone_it_corridor" {
			t.Errorf("zone = %v", area["zone"])
		}
		if _, present := body["suggestion"]; present {
			t.Error("known area should not carry a suggestion")
		}
	})

	t.Run("unknown area", func(t *testing.T) {
		rec, body := doJSON(t, r, "GET", "/v1/areas/Warangal", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if body["known"] != false {
			t.Errorf("known = %v", body["known"])
		}
		suggestion, _ := body["suggestion"].(string)
		if !strings.Contains(suggestion, "To add 'Warangal'") {
			t.Errorf("suggestion = %q", suggestion)
		}
	})
}

func TestRecentAnalysesEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	doJSON(t, r, "POST", "/v1/routes/analyze",
		`{"origin":"Gachibowli","destination":"Ameerpet","departure_time":"2025-01-06T09:00:00Z"}`)

	rec, body := doJSON(t, r, "GET", "/v1/analyses/recent", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}

	rec, _ = doJSON(t, r, "GET", "/v1/analyses/recent?limit=0", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d, want 400", rec.Code)
	}
}

func TestGetAnalysisEndpoint(t *testing.T) {
	r, auditStore := newTestServer(t)

	doJSON(t, r, "POST", "/v1/routes/analyze",
		`{"origin":"Gachibowli","destination":"Ameerpet","departure_time":"2025-01-06T09:00:00Z"}`)

	records, err := auditStore.RecentAnalyses(context.Background(), 1)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one stored record, got %d err=%v", len(records), err)
	}

	rec, body := doJSON(t, r, "GET", "/v1/analyses/"+records[0].ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["id"] != records[0].ID {
		t.Errorf("id = %v, want %s", body["id"], records[0].ID)
	}

	rec, _ = doJSON(t, r, "GET", "/v1/analyses/does-not-exist", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing analysis status = %d, want 404", rec.Code)
	}
}

func TestRulesEndpoints(t *testing.T) {
	r, _ := newTestServer(t)

	rec, body := doJSON(t, r, "GET", "/v1/rules", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["fingerprint"] != "apitest" {
		t.Errorf("fingerprint = %v", body["fingerprint"])
	}

	// A static ruleset has no backing document to reload from.
	rec, _ = doJSON(t, r, "POST", "/v1/rules/reload", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("reload status = %d, want 422", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newTestServer(t)

	for _, path := range []string{"/health", "/v1/health", "/v1/health/ready", "/v1/health/live", "/v1/version"} {
		rec, _ := doJSON(t, r, "GET", path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
