package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-exotics/internal/config"
	"github.com/yourusername/clever-exotics/internal/exotic"
	"github.com/yourusername/clever-exotics/internal/models"
	"github.com/yourusername/clever-exotics/internal/publisher"
	"github.com/yourusername/clever-exotics/internal/service"
)

const sampleRace = `{
	"race_id": "R1",
	"horses": [
		{"id": 1, "name": "Thunder Bolt", "win_probability": 0.25, "odds": 4.0},
		{"id": 2, "name": "Lightning Strike", "win_probability": 0.20, "odds": 5.0},
		{"id": 3, "name": "Storm Runner", "win_probability": 0.18, "odds": 5.5},
		{"id": 4, "name": "Wind Chaser", "win_probability": 0.15, "odds": 6.5},
		{"id": 5, "name": "Fire Bolt", "win_probability": 0.12, "odds": 8.0},
		{"id": 6, "name": "Swift Arrow", "win_probability": 0.10, "odds": 10.0}
	]
}`

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type brokenRuns struct{}

func (brokenRuns) SaveRun(context.Context, *models.OptimizationRun) error { return nil }

func (brokenRuns) GetRun(context.Context, uuid.UUID) (*models.OptimizationRun, error) {
	return nil, errors.New("pq: relation optimization_runs does not exist")
}

func (brokenRuns) ListRecentByRace(context.Context, string, int) ([]*models.OptimizationRun, error) {
	return nil, nil
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	opt, err := exotic.NewOptimizer(exotic.DefaultConfig())
	require.NoError(t, err)
	if opts.Service == nil {
		deps := service.Dependencies{}
		if opts.Hub != nil {
			deps.Broadcaster = opts.Hub
		}
		opts.Service = service.NewOptimizationService(opt, deps)
	}
	return New(config.APIConfig{Host: "127.0.0.1", Port: 5001}, opts)
}

func doRequest(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, body := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = doRequest(t, s, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = doRequest(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])

	s.SetReady(true)
	rec, _ = doRequest(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = doRequest(t, s, http.MethodGet, "/api/v1/exotic/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	s := newTestServer(t, Options{DB: failingPinger{}})
	s.SetReady(true)

	rec, body := doRequest(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := body["checks"].(map[string]any)
	assert.Contains(t, checks["database"], "connection refused")
}

func TestOptimizeEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, body := doRequest(t, s, http.MethodPost, "/api/v1/exotic/optimize", sampleRace)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "R1", data["race_id"])
	assert.EqualValues(t, 6, data["total_horses"])
	assert.EqualValues(t, 28, data["profitable_signals"])
	assert.Len(t, data["top_opportunities"], 10)

	combos := data["exotic_combinations"].(map[string]any)
	assert.EqualValues(t, 20, combos["exacta"])
	assert.EqualValues(t, 15, combos["trifecta"])
	assert.EqualValues(t, 10, combos["superfecta"])

	top := data["top_opportunities"].([]any)[0].(map[string]any)
	assert.Equal(t, "superfecta", top["bet_type"])
	assert.Equal(t, []any{"1", "2", "3", "4"}, top["combination"])
	assert.Equal(t, "HIGH", top["risk_level"])
	assert.Equal(t, "1-2-3-4", top["combination_key"])
	stake := top["recommended_stake"].(float64)
	assert.InDelta(t, stake*(top["payout_odds"].(float64)-1), top["potential_profit"], 1e-9)
	assert.InDelta(t, stake, top["max_loss"], 1e-9)
}

func TestOptimizeOptionsDoNotLeak(t *testing.T) {
	s := newTestServer(t, Options{})

	withOptions := strings.Replace(sampleRace, `"race_id": "R1",`, `"race_id": "R1", "options": {"min_ev_threshold": 100},`, 1)
	rec, body := doRequest(t, s, http.MethodPost, "/api/v1/exotic/optimize", withOptions)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 0, data["profitable_signals"])
	stats := data["summary_stats"].(map[string]any)
	assert.EqualValues(t, 45, stats["total_combinations_analyzed"])
	assert.EqualValues(t, 0, stats["profitable_opportunities"])
	assert.EqualValues(t, 0, stats["profitability_rate"])

	rec, body = doRequest(t, s, http.MethodPost, "/api/v1/exotic/optimize", sampleRace)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 28, body["data"].(map[string]any)["profitable_signals"])
}

func TestOptimizeValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing horses", body: `{"race_id": "R1"}`, field: "horses"},
		{name: "missing odds", body: `{"horses": [{"id": 1, "name": "A"}]}`, field: "odds"},
		{name: "missing name", body: `{"horses": [{"id": 1, "odds": 3.0}]}`, field: "name"},
		{name: "duplicate id", body: `{"horses": [{"id": 1, "name": "A", "odds": 3.0}, {"id": "1", "name": "B", "odds": 4.0}]}`, field: "id"},
		{name: "malformed json", body: `{"horses": [`, field: "body"},
		{name: "empty body", body: ``, field: "body"},
		{name: "bad override", body: `{"horses": [], "options": {"max_exacta": 0}}`, field: "options"},
	}

	s := newTestServer(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, s, http.MethodPost, "/api/v1/exotic/optimize", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.field, body["field"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestOptimizeEmptyField(t *testing.T) {
	s := newTestServer(t, Options{})
	rec, body := doRequest(t, s, http.MethodPost, "/api/v1/exotic/optimize", `{"race_id": "R0", "horses": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 0, data["total_horses"])
	assert.Empty(t, data["summary_stats"])
}

func TestCalibrateEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	rec, body := doRequest(t, s, http.MethodPost, "/api/v1/exotic/probabilities/calibrate", sampleRace)
	require.Equal(t, http.StatusOK, rec.Code)

	horses := body["calibrated_horses"].([]any)
	require.Len(t, horses, 6)
	first := horses[0].(map[string]any)
	assert.Equal(t, "1", first["id"])
	assert.InDelta(t, 0.25, first["original_win_probability"], 1e-12)
	assert.InDelta(t, 0.249209, first["calibrated_win_probability"], 1e-6)
	assert.InDelta(t, 0.548259, first["calibrated_place_probability"], 1e-6)
	assert.InDelta(t, 0.623022, first["calibrated_show_probability"], 1e-6)
}

func TestCombinationsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	withMax := strings.Replace(sampleRace, `"race_id": "R1",`, `"race_id": "R1", "max_combinations": 5,`, 1)
	rec, body := doRequest(t, s, http.MethodPost, "/api/v1/exotic/combinations/trifecta", withMax)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trifecta", body["bet_type"])
	assert.EqualValues(t, 5, body["total_combinations"])

	rec, body = doRequest(t, s, http.MethodPost, "/api/v1/exotic/combinations/EXACTA", sampleRace)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 20, body["total_combinations"])

	rec, body = doRequest(t, s, http.MethodPost, "/api/v1/exotic/combinations/quinella", sampleRace)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bet_type", body["field"])
}

func TestSignalsAndPerformanceEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/exotic/analytics/performance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No historical data available", body["message"])

	rec, body = doRequest(t, s, http.MethodPost, "/api/v1/exotic/signals", sampleRace)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 28, body["total_signals"])
	assert.EqualValues(t, 28, body["profitable_opportunities"])
	summary := body["summary"].(map[string]any)
	assert.InDelta(t, 8.369072, summary["max_expected_value"], 1e-6)
	assert.Greater(t, summary["avg_expected_value"].(float64), 0.05)
	assert.LessOrEqual(t, summary["avg_expected_value"].(float64), summary["max_expected_value"].(float64))

	rec, body = doRequest(t, s, http.MethodGet, "/api/v1/exotic/analytics/performance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	metrics := data["performance_metrics"].(map[string]any)
	assert.EqualValues(t, 20, metrics["signals_analyzed"])
	total := 0.0
	for _, n := range metrics["bet_type_distribution"].(map[string]any) {
		total += n.(float64)
	}
	assert.EqualValues(t, 20, total)
	assert.Len(t, data["top_signals"], 10)

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/exotic/analytics/performance?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRunEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/exotic/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", body["field"])

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/exotic/runs/8c1b1f7e-3a55-4a4b-9d6e-0f2c2a1e7b10", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/exotic/optimize", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{MetricsPath: "/metrics"})
	rec, _ := doRequest(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s = newTestServer(t, Options{})
	rec, _ = doRequest(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamDeliversSignals(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	s := newTestServer(t, Options{Hub: hub})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/exotic/stream?race_id=R1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/v1/exotic/signals", "application/json", bytes.NewBufferString(sampleRace))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := publisher.DecodeSignalMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, publisher.MessageType, msg.Type)
	assert.Equal(t, "R1", msg.RaceID)
	assert.Equal(t, "superfecta", string(msg.Signal.BetType))
}

func TestStreamRaceFilter(t *testing.T) {
	c := &client{races: map[string]bool{}}
	assert.True(t, c.wants("anything"))

	c.handleSubscription(subscribeMsg{Action: "subscribe", RaceIDs: []string{"R1"}})
	assert.True(t, c.wants("R1"))
	assert.False(t, c.wants("R2"))

	c.handleSubscription(subscribeMsg{Action: "unsubscribe", RaceIDs: []string{"R1"}})
	assert.True(t, c.wants("R2"))
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	opt, err := exotic.NewOptimizer(exotic.DefaultConfig())
	require.NoError(t, err)
	svc := service.NewOptimizationService(opt, service.Dependencies{Runs: brokenRuns{}})
	s := newTestServer(t, Options{Service: svc})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/exotic/runs/8c1b1f7e-3a55-4a4b-9d6e-0f2c2a1e7b10", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, rec.Body.String(), "optimization_runs")
}
