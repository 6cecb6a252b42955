package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hunomina/wave-function-collapse/internal/engine"
)

// DebugHandler предоставляет доступ к внутреннему состоянию генератора
type DebugHandler struct {
	Service *engine.Service
}

func NewDebugHandler(s *engine.Service) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(r chi.Router) {
	r.Get("/debug/entropy", h.handleEntropy)
	r.Get("/debug/status", h.handleStatus)
}

// /debug/entropy - сетка энтропий последнего снимка.
// ?format=text отдаёт её таблицей, удобной для curl.
func (h *DebugHandler) handleEntropy(w http.ResponseWriter, r *http.Request) {
	snap := h.Service.Latest()
	size := 0
	if snap.Grid != nil {
		size = snap.Grid.Size
	}

	grid := make([][]int, size)
	for i := range grid {
		grid[i] = make([]int, size)
	}
	for _, c := range snap.Cells {
		grid[c.Line][c.Column] = c.Entropy
	}

	if r.URL.Query().Get("format") != "text" {
		writeJSON(w, http.StatusOK, grid)
		return
	}

	var sb strings.Builder
	for _, row := range grid {
		for i, e := range row {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if e == 1 {
				sb.WriteString("  .") // вариант один
				continue
			}
			fmt.Fprintf(&sb, "%3d", e)
		}
		sb.WriteByte('\n')
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(sb.String()))
}

// /debug/status - краткая сводка без клеток
func (h *DebugHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.Service.Latest()
	status := map[string]any{
		"type":        snap.Type,
		"run":         snap.Run,
		"step":        snap.Step,
		"seed":        snap.Seed,
		"paused":      h.Service.Paused(),
		"subscribers": h.Service.Hub.SubscriberCount(),
		"dropped":     h.Service.Hub.Dropped(),
		"error":       snap.Error,
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Если data == nil, возвращаем пустой массив [], а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
