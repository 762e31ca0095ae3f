package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/gray-logic-show/internal/execution"
	"github.com/nerrad567/gray-logic-show/internal/filter"
	"github.com/nerrad567/gray-logic-show/internal/hardware"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-show/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-show/internal/instrumentation"
	"github.com/nerrad567/gray-logic-show/internal/journal"
	"github.com/nerrad567/gray-logic-show/internal/rig"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// ─── Mock Dependencies ─────────────────────────────────────────────

// mockJournal is an in-memory journal.Repository.
type mockJournal struct {
	events  []journal.DeviceEvent
	intents []journal.LiveIntent
	filter  journal.Filter
	err     error
}

func (m *mockJournal) RecordDeviceEvent(_ context.Context, ev *journal.DeviceEvent) error {
	m.events = append(m.events, *ev)
	return m.err
}

func (m *mockJournal) ListDeviceEvents(_ context.Context, f journal.Filter) (*journal.ListResult, error) {
	m.filter = f
	if m.err != nil {
		return nil, m.err
	}
	return &journal.ListResult{Events: m.events, Total: len(m.events), Limit: f.Limit, Offset: f.Offset}, nil
}

func (m *mockJournal) RecordLiveIntent(_ context.Context, li *journal.LiveIntent) error {
	m.intents = append(m.intents, *li)
	return m.err
}

func (m *mockJournal) ListLiveIntents(_ context.Context, _ int) ([]journal.LiveIntent, error) {
	return m.intents, m.err
}

// ─── Helpers ────────────────────────────────────────────────────────

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}
}

// testServer creates a Server over a two-controller chain with one device
// thread, a fresh playback engine and an in-memory journal.
func testServer(t *testing.T) (*Server, *mockJournal) {
	t.Helper()

	r, err := rig.Build([]config.ControllerConfig{
		{
			Name:       "stage",
			Outputs:    2,
			DataPolicy: "intensity8",
			Module:     config.ModuleConfig{Type: config.ModulePreview},
		},
		{Name: "stage-b", Outputs: 1, DataPolicy: "color", ChainAfter: "stage"},
	}, rig.Deps{})
	if err != nil {
		t.Fatalf("rig.Build() error = %v", err)
	}

	registry := instrumentation.NewRegistry()
	registry.Add(instrumentation.NewCounter("Live intents"))

	manager := hardware.NewManager(nil, registry, hardware.DefaultConfig())
	if err := r.Attach(manager); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	j := &mockJournal{}
	log := testLogger()
	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: testWSConfig(),
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15},
		},
		Logger:          log,
		Manager:         manager,
		Rig:             r,
		Playback:        execution.NewPlayback(),
		Journal:         j,
		Instrumentation: registry,
		Version:         "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(ctx)

	return srv, j
}

func operatorToken(t *testing.T) string {
	t.Helper()
	tok, err := IssueToken(testSecret, "desk", RoleOperator, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return tok
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, w.Body.String())
	}
}

// ─── Health & Middleware Tests ─────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/health", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp map[string]any
	decode(t, w, &resp)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v", resp)
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/health", "", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "cue-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "cue-42" {
		t.Errorf("X-Request-ID = %q, want cue-42", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/devices", nil)
	req.Header.Set("Origin", "http://desk.local")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://desk.local" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestUnavailableCollaborators(t *testing.T) {
	srv, err := New(Deps{Logger: testLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	router := srv.buildRouter()

	for _, path := range []string{
		"/api/v1/devices",
		"/api/v1/controllers",
		"/api/v1/playback/effects",
		"/api/v1/journal",
	} {
		if w := do(t, router, http.MethodGet, path, "", ""); w.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusServiceUnavailable)
		}
	}
}

func TestNew_RequiresLogger(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
}

// ─── Auth Tests ────────────────────────────────────────────────────

func TestParseToken(t *testing.T) {
	valid := operatorToken(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "desk",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Role: RoleOperator,
	})
	expiredStr, _ := expired.SignedString([]byte(testSecret))

	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "desk"},
	})
	noRoleStr, _ := noRole.SignedString([]byte(testSecret))

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{"valid", valid, testSecret, false},
		{"wrong secret", valid, "another-secret", true},
		{"expired", expiredStr, testSecret, true},
		{"missing role", noRoleStr, testSecret, true},
		{"garbage", "not-a-token", testSecret, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(tt.token, tt.secret)
			if tt.wantErr {
				if !errors.Is(err, ErrTokenInvalid) {
					t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseToken() error = %v", err)
			}
			if claims.Subject != "desk" || claims.Role != RoleOperator {
				t.Errorf("claims = %+v", claims)
			}
		})
	}
}

func TestIssueToken_EmptySecret(t *testing.T) {
	if _, err := IssueToken("", "desk", RoleOperator, 0); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("IssueToken() error = %v, want ErrTokenInvalid", err)
	}
}

// ─── Device Tests ──────────────────────────────────────────────────

func TestListDevices(t *testing.T) {
	srv, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/devices", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Devices []hardware.Stats `json:"devices"`
		Count   int              `json:"count"`
	}
	decode(t, w, &resp)
	if resp.Count != 1 || resp.Devices[0].Name != "stage" {
		t.Errorf("devices = %+v", resp)
	}
	if resp.Devices[0].State != hardware.StateStopped.String() {
		t.Errorf("state = %q, want %q", resp.Devices[0].State, hardware.StateStopped.String())
	}
}

func TestPauseResumeDevice(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	viewer, err := IssueToken(testSecret, "foh", RoleViewer, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantPaused bool
	}{
		{"no token", "/api/v1/devices/stage/pause", "", http.StatusUnauthorized, false},
		{"bad token", "/api/v1/devices/stage/pause", "nope", http.StatusUnauthorized, false},
		{"viewer", "/api/v1/devices/stage/pause", viewer, http.StatusForbidden, false},
		{"unknown device", "/api/v1/devices/ghost/pause", operatorToken(t), http.StatusNotFound, false},
		{"pause", "/api/v1/devices/stage/pause", operatorToken(t), http.StatusOK, true},
		{"resume", "/api/v1/devices/stage/resume", operatorToken(t), http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, tt.path, tt.token, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}
			var stats hardware.Stats
			decode(t, w, &stats)
			if stats.Paused != tt.wantPaused {
				t.Errorf("Paused = %v, want %v", stats.Paused, tt.wantPaused)
			}
		})
	}
}

// ─── Controller Tests ──────────────────────────────────────────────

func TestListControllers(t *testing.T) {
	srv, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/controllers", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Controllers []controllerView `json:"controllers"`
	}
	decode(t, w, &resp)
	if len(resp.Controllers) != 2 {
		t.Fatalf("len(controllers) = %d, want 2", len(resp.Controllers))
	}
	root, chained := resp.Controllers[0], resp.Controllers[1]
	if !root.Root || root.ChainIndex != 0 || root.Prior != "" {
		t.Errorf("root = %+v", root)
	}
	if chained.Root || chained.ChainIndex != 1 || chained.Prior != root.ID {
		t.Errorf("chained = %+v", chained)
	}
}

func TestControllerOutputs(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/controllers/stage/outputs", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Outputs []map[string]any `json:"outputs"`
	}
	decode(t, w, &resp)
	if len(resp.Outputs) != 2 || resp.Outputs[1]["name"] != "stage-2" {
		t.Errorf("outputs = %v", resp.Outputs)
	}

	if w := do(t, router, http.MethodGet, "/api/v1/controllers/ghost/outputs", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown controller status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListPreviews(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	stage, _ := srv.rig.Controller("stage")
	if err := stage.Update(); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	w := do(t, router, http.MethodGet, "/api/v1/previews", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Previews map[string][]map[string]any `json:"previews"`
		Count    int                         `json:"count"`
	}
	decode(t, w, &resp)
	if resp.Count != 1 || len(resp.Previews["stage"]) != 2 {
		t.Errorf("previews = %v", resp.Previews)
	}
}

// ─── Filter Evaluation Tests ───────────────────────────────────────

func TestFilterEvaluation(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	t.Cleanup(func() { filter.SetEvaluation(true) })

	if w := do(t, router, http.MethodPut, "/api/v1/filters/evaluation", "", `{"enabled":false}`); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := do(t, router, http.MethodPut, "/api/v1/filters/evaluation", operatorToken(t), `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing enabled status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w := do(t, router, http.MethodPut, "/api/v1/filters/evaluation", operatorToken(t), `{"enabled":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if filter.EvaluationEnabled() {
		t.Error("evaluation still enabled")
	}

	w = do(t, router, http.MethodGet, "/api/v1/filters/evaluation", "", "")
	var resp map[string]bool
	decode(t, w, &resp)
	if resp["enabled"] {
		t.Errorf("GET evaluation = %v, want false", resp)
	}
}

// ─── Playback Tests ────────────────────────────────────────────────

const liveEffect = `{
	"effect": "flash",
	"layer": 3,
	"delay_ms": 60000,
	"intents": [
		{"channel": "3b241101-e2bb-4255-8caf-4136c566a962", "type": "float", "start": 0, "end": 1, "span_ms": 500}
	]
}`

func TestPlaybackEffects(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	token := operatorToken(t)

	if w := do(t, router, http.MethodPost, "/api/v1/playback/effects", token, `{"intents":[]}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty effect status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w := do(t, router, http.MethodPost, "/api/v1/playback/effects", token, liveEffect)
	if w.Code != http.StatusCreated {
		t.Fatalf("schedule status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}
	var created map[string]string
	decode(t, w, &created)

	w = do(t, router, http.MethodGet, "/api/v1/playback/effects", "", "")
	var list struct {
		Effects []execution.EffectInfo `json:"effects"`
		Count   int                    `json:"count"`
	}
	decode(t, w, &list)
	if list.Count != 1 || list.Effects[0].Name != "flash" || list.Effects[0].Layer != 3 {
		t.Fatalf("effects = %+v", list)
	}
	if list.Effects[0].ID.String() != created["id"] {
		t.Errorf("listed id = %s, want %s", list.Effects[0].ID, created["id"])
	}

	path := "/api/v1/playback/effects/" + created["id"]
	if w := do(t, router, http.MethodDelete, path, token, ""); w.Code != http.StatusNoContent {
		t.Errorf("cancel status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w := do(t, router, http.MethodDelete, path, token, ""); w.Code != http.StatusNotFound {
		t.Errorf("second cancel status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := do(t, router, http.MethodDelete, "/api/v1/playback/effects/xyz", token, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Journal Tests ─────────────────────────────────────────────────

func TestListDeviceEvents(t *testing.T) {
	srv, j := testServer(t)
	router := srv.buildRouter()
	j.events = []journal.DeviceEvent{{ID: 1, Device: "stage", Kind: "started"}}

	w := do(t, router, http.MethodGet, "/api/v1/journal?device=stage&kind=started&limit=5&offset=2", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	want := journal.Filter{Device: "stage", Kind: "started", Limit: 5, Offset: 2}
	if j.filter != want {
		t.Errorf("filter = %+v, want %+v", j.filter, want)
	}
	var result journal.ListResult
	decode(t, w, &result)
	if result.Total != 1 || result.Events[0].Device != "stage" {
		t.Errorf("result = %+v", result)
	}

	if w := do(t, router, http.MethodGet, "/api/v1/journal?limit=-1", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	j.err = errors.New("disk full")
	if w := do(t, router, http.MethodGet, "/api/v1/journal", "", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("repository error status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestListLiveIntents(t *testing.T) {
	srv, j := testServer(t)
	j.intents = []journal.LiveIntent{{ID: 1, EffectID: "e1", Name: "flash", Layer: 3}}

	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/journal/intents", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Intents []journal.LiveIntent `json:"intents"`
		Count   int                  `json:"count"`
	}
	decode(t, w, &resp)
	if resp.Count != 1 || resp.Intents[0].Name != "flash" {
		t.Errorf("intents = %+v", resp)
	}
}

// ─── Instrumentation Tests ─────────────────────────────────────────

func TestInstrumentation(t *testing.T) {
	srv, _ := testServer(t)
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/instrumentation", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Values []instrumentation.Sample `json:"values"`
	}
	decode(t, w, &resp)
	if len(resp.Values) != 1 || resp.Values[0].Name != "Live intents" || resp.Values[0].Unit != "count" {
		t.Errorf("values = %+v", resp.Values)
	}
}
