// Package api exposes the engine's externally triggered commands over
// a localhost-only HTTP surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"workbreak/internal/config"
	"workbreak/internal/core/guard"
	"workbreak/internal/core/model"
	"workbreak/internal/core/timer"
	"workbreak/internal/core/validate"
)

// Server wires the control handlers to the engine.
type Server struct {
	engine   *timer.Engine
	guard    *guard.Coordinator
	settings config.Provider
}

// NewServer creates a control server over the engine.
func NewServer(engine *timer.Engine, coordinator *guard.Coordinator, settings config.Provider) *Server {
	return &Server{engine: engine, guard: coordinator, settings: settings}
}

// NewRouter builds the control API routes.
func (server *Server) NewRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	}).Methods("GET")
	router.HandleFunc("/status", server.StatusHandler).Methods("GET")
	router.HandleFunc("/timer/start", server.commandHandler(func() bool { return server.engine.StartWorkTimer() })).Methods("POST")
	router.HandleFunc("/timer/pause", server.commandHandler(func() bool { return server.engine.PauseWorkTimer() })).Methods("POST")
	router.HandleFunc("/timer/resume", server.commandHandler(func() bool { return server.engine.ResumeWorkTimer() })).Methods("POST")
	router.HandleFunc("/timer/reset", server.commandHandler(func() bool {
		server.engine.ResetWorkTimer()
		return true
	})).Methods("POST")
	router.HandleFunc("/break/start", server.StartBreakHandler).Methods("POST")
	router.HandleFunc("/break/end", server.commandHandler(func() bool { return server.engine.EndBreak() })).Methods("POST")
	router.HandleFunc("/break/cancel", server.commandHandler(func() bool { return server.engine.CancelBreak() })).Methods("POST")
	return router
}

type statusResponse struct {
	WorkTimerActive    bool   `json:"workTimerActive"`
	OnBreak            bool   `json:"onBreak"`
	BreakType          string `json:"breakType,omitempty"`
	CurrentWorkMs      int64  `json:"currentWorkMs"`
	RemainingBreakMs   int64  `json:"remainingBreakMs"`
	WorkThresholdMs    int64  `json:"workThresholdMs"`
	ThresholdExceeded  bool   `json:"thresholdExceeded"`
	StorageFallback    bool   `json:"storageFallback"`
	NotifyFallback     bool   `json:"notifyFallback"`
	LastActivityMillis int64  `json:"lastActivityMs,omitempty"`
}

// StatusHandler returns a JSON snapshot of the timer.
func (server *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := server.engine.Snapshot()
	response := statusResponse{
		WorkTimerActive:   snapshot.WorkTimerActive,
		OnBreak:           snapshot.OnBreak,
		BreakType:         string(snapshot.BreakType),
		CurrentWorkMs:     server.engine.CurrentWorkTime().Milliseconds(),
		RemainingBreakMs:  server.engine.RemainingBreakTime().Milliseconds(),
		WorkThresholdMs:   snapshot.WorkThreshold.Milliseconds(),
		ThresholdExceeded: server.engine.ThresholdExceeded(),
		StorageFallback:   server.guard.InFallback(guard.CapStorage),
		NotifyFallback:    server.guard.InFallback(guard.CapNotifications),
	}
	if !snapshot.LastActivity.IsZero() {
		response.LastActivityMillis = snapshot.LastActivity.UnixMilli()
	}
	writeJSON(w, http.StatusOK, response)
}

type startBreakRequest struct {
	Type    string `json:"type"`
	Minutes int    `json:"minutes"`
}

// StartBreakHandler starts a break of the requested catalog type. An
// omitted or unknown type falls back to the short break; an omitted
// duration uses the catalog entry's.
func (server *Server) StartBreakHandler(w http.ResponseWriter, r *http.Request) {
	var request startBreakRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&request)
	}

	breakType, _ := validate.BreakType(request.Type)
	if breakType == model.BreakNone {
		breakType = model.BreakShort
	}
	minutes := request.Minutes
	if minutes <= 0 {
		minutes = server.catalog().Lookup(breakType).Minutes
	}

	started := server.engine.StartBreak(breakType, minutes)
	if !started {
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "reason": "already on break"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "type": string(breakType), "minutes": minutes})
}

func (server *Server) commandHandler(command func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok := command()
		status := http.StatusOK
		if !ok {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]any{"ok": ok, "at": time.Now().Format(time.RFC3339)})
	}
}

func (server *Server) catalog() model.BreakCatalog {
	if server.settings != nil {
		if breaks := server.settings.Settings().Breaks; len(breaks) > 0 {
			return breaks
		}
	}
	return model.DefaultCatalog()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
