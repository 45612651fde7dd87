package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	router "github.com/greenroom-live/greenroom/internal/adapters/http"
	"github.com/greenroom-live/greenroom/internal/adapters/signal"
	"github.com/greenroom-live/greenroom/internal/app"
	"github.com/greenroom-live/greenroom/internal/auth"
	"github.com/greenroom-live/greenroom/internal/config"
	"github.com/greenroom-live/greenroom/internal/proctor"
	"github.com/greenroom-live/greenroom/internal/store"
)

type apiEnv struct {
	r  http.Handler
	db *store.Memory
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	cfg := &config.Config{
		Mode:           "release",
		Secret:         "test-secret",
		FrontendOrigin: "http://localhost:5173",
		ReadLimit:      32768,
		PingPeriod:     54 * time.Second,
		WriteTimeout:   5 * time.Second,
	}

	db := store.NewMemory()
	tokens := auth.NewTokenManager(cfg.Secret)
	authSvc := auth.NewService(db, tokens)

	tasks, err := app.NewTasks(4)
	require.NoError(t, err)
	t.Cleanup(tasks.Release)

	reg := app.NewRegistry()
	ctl := app.NewController(reg, db, tasks)
	relay := app.NewRelay(ctl)
	hub := signal.NewHub(ctl, relay, cfg)
	ctl.Bind(hub)

	r := router.SetupRouter(context.Background(), router.Deps{
		Cfg:     cfg,
		Auth:    authSvc,
		Ctl:     ctl,
		Proctor: proctor.NewService(db),
		Hub:     hub,
	})
	return &apiEnv{r: r, db: db}
}

func (e *apiEnv) do(t *testing.T, method, path, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// registerAs creates an account through the API and returns its auth
// cookie.
func (e *apiEnv) registerAs(t *testing.T, name, email, role string) string {
	t.Helper()
	body := `{"name":"` + name + `","email":"` + email + `","password":"pw123456","role":"` + role + `"}`
	w := e.do(t, http.MethodPost, "/api/auth/register", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("no auth cookie set on register")
	return ""
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthFlow(t *testing.T) {
	env := newAPIEnv(t)

	cookie := env.registerAs(t, "Alice", "alice@example.com", "interviewer")

	w := env.do(t, http.MethodGet, "/api/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "interviewer", user["role"])
	assert.NotContains(t, user, "passwordHash")

	// Duplicate email conflicts.
	w = env.do(t, http.MethodPost, "/api/auth/register",
		`{"name":"A2","email":"alice@example.com","password":"pw123456"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Wrong password.
	w = env.do(t, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Correct password.
	w = env.do(t, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"pw123456"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// No cookie means anonymous.
	w = env.do(t, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionEndpointsRequireInterviewer(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/sessions/create", `{"interviewerName":"Alice"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	candCookie := env.registerAs(t, "Bob", "bob@example.com", "candidate")
	w = env.do(t, http.MethodPost, "/api/sessions/create", `{"interviewerName":"Bob"}`, candCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	intCookie := env.registerAs(t, "Alice", "alice@example.com", "interviewer")
	w = env.do(t, http.MethodPost, "/api/sessions/create", `{"interviewerName":"Alice"}`, intCookie)
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := decode(t, w)["sessionId"].(string)
	require.Len(t, sessionID, 12)

	w = env.do(t, http.MethodGet, "/api/sessions/"+sessionID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	session := decode(t, w)["session"].(map[string]any)
	assert.Equal(t, sessionID, session["sessionId"])

	w = env.do(t, http.MethodGet, "/api/sessions/NOSUCHROOM00", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Only the owning interviewer (or an admin) may close.
	otherCookie := env.registerAs(t, "Mallory", "mallory@example.com", "interviewer")
	w = env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/close", "", otherCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/sessions/"+sessionID+"/close", "", intCookie)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateSessionValidation(t *testing.T) {
	env := newAPIEnv(t)
	cookie := env.registerAs(t, "Alice", "alice@example.com", "interviewer")

	w := env.do(t, http.MethodPost, "/api/sessions/create", `{}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProctorEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	// Single event ingestion is open; missing type is rejected.
	w := env.do(t, http.MethodPost, "/api/proctor/events", `{"sessionId":"NOSUCHROOM00"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/proctor/events",
		`{"sessionId":"NOSUCHROOM00","type":"no_face_detected"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	ev := decode(t, w)["event"].(map[string]any)
	assert.Equal(t, "no_face_detected", ev["type"])
	assert.Equal(t, float64(3), ev["severity"])

	// Batch requires an events array.
	w = env.do(t, http.MethodPost, "/api/proctor/events/batch", `{"sessionId":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_events_array")

	w = env.do(t, http.MethodPost, "/api/proctor/events/batch", `{"events":[]}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])

	// Listing and reporting are gated.
	w = env.do(t, http.MethodGet, "/api/proctor/events", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	candCookie := env.registerAs(t, "Bob", "bob@example.com", "candidate")
	w = env.do(t, http.MethodGet, "/api/proctor/events", "", candCookie)
	assert.Equal(t, http.StatusOK, w.Code, "any authenticated user may list events")

	w = env.do(t, http.MethodGet, "/api/proctor/interviews", "", candCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	intCookie := env.registerAs(t, "Alice", "alice@example.com", "interviewer")
	w = env.do(t, http.MethodGet, "/api/proctor/interviews", "", intCookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/proctor/report/no-such-interview", "", intCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
