package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workbreak/internal/core/guard"
	"workbreak/internal/core/model"
	"workbreak/internal/core/timer"
	"workbreak/internal/storage"
)

func newTestServer() (*Server, *timer.Engine) {
	coordinator := guard.New(guard.Options{Store: storage.NewMemoryStore()})
	engine := timer.New(model.CleanState(time.Now()), timer.Dependencies{Guard: coordinator})
	return NewServer(engine, coordinator, nil), engine
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer()
	recorder := httptest.NewRecorder()
	server.NewRouter().ServeHTTP(recorder, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestStatusReflectsEngine(t *testing.T) {
	server, engine := newTestServer()
	engine.StartWorkTimer()

	recorder := httptest.NewRecorder()
	server.NewRouter().ServeHTTP(recorder, httptest.NewRequest("GET", "/status", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
	assert.Equal(t, true, status["workTimerActive"])
	assert.Equal(t, false, status["onBreak"])
}

func TestTimerCommands(t *testing.T) {
	server, engine := newTestServer()
	router := server.NewRouter()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/timer/start", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, engine.Snapshot().WorkTimerActive)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/timer/pause", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.False(t, engine.Snapshot().WorkTimerActive)

	// Pausing twice conflicts.
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/timer/pause", nil))
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestStartBreakEndpoint(t *testing.T) {
	server, engine := newTestServer()
	router := server.NewRouter()

	body := strings.NewReader(`{"type":"medium"}`)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/break/start", body))
	require.Equal(t, http.StatusOK, recorder.Code)

	snapshot := engine.Snapshot()
	assert.True(t, snapshot.OnBreak)
	assert.Equal(t, model.BreakMedium, snapshot.BreakType)
	assert.Equal(t, 15*time.Minute, snapshot.BreakDuration)

	// A second break conflicts.
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/break/start", strings.NewReader(`{"type":"short"}`)))
	assert.Equal(t, http.StatusConflict, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/break/end", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.False(t, engine.Snapshot().OnBreak)
}
