package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hunomina/wave-function-collapse/internal/engine"
	"github.com/hunomina/wave-function-collapse/internal/infrastructure/storage"
	"github.com/hunomina/wave-function-collapse/internal/version"
	"github.com/hunomina/wave-function-collapse/pkg/api"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/sirupsen/logrus"
)

// maxCommandBody - команды маленькие, больше не читаем.
const maxCommandBody = 4 << 10

type Server struct {
	Engine *engine.Service
	Port   string

	httpServer *http.Server
}

func New(engine *engine.Service, port string) *Server {
	return &Server{
		Engine: engine,
		Port:   port,
	}
}

// Routes собирает роутер. Вынесено отдельно, чтобы тесты ходили в него через httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(enableCORS)

	r.Get("/ws", s.handleWS)
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api", func(r chi.Router) {
		r.Get("/map", s.handleMap)
		r.Post("/commands", s.handleCommand)
		r.Options("/commands", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/maps", s.handleListMaps)
		r.Get("/maps/{name}", s.handleGetMap)
	})

	// Debug Routes
	NewDebugHandler(s.Engine).RegisterRoutes(r)
	r.Mount("/debug/profiler", middleware.Profiler()) // pprof

	return r
}

// Run запускает HTTP сервер и блокируется до Shutdown
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              ":" + s.Port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Log.Infof("WFC server running on :%s", s.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Разрешаем запросы с фронтенда
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Log.WithFields(logrus.Fields{
			"component":  "http",
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

// handleWS обрабатывает подключение по WebSocket
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Error("Upgrade error")
		return
	}

	client := NewClient(s.Engine, conn)
	client.subscribe()

	// Запускаем пампы
	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Info())
}

// GET /api/map - последний снимок генерации
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Latest())
}

// POST /api/commands - та же команда, что и по WebSocket
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd api.ClientCommand
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.Engine.ProcessCommand(cmd); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// GET /api/maps - сохранённые карты
func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	store := s.Engine.Store
	if store == nil {
		writeJSON(w, http.StatusOK, []api.MapSummary{})
		return
	}

	names, err := store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]api.MapSummary, 0, len(names))
	for _, name := range names {
		rec, err := store.Load(name)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{
				"component": "http",
				"file":      name,
			}).WithError(err).Warn("Skipping unreadable map")
			continue
		}
		summaries = append(summaries, api.MapSummary{
			Name:      name,
			Seed:      rec.Seed,
			Size:      rec.Size,
			Timestamp: rec.Timestamp,
			Solved:    rec.Solved(),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GET /api/maps/{name} - сохранённая карта в формате снимка
func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	store := s.Engine.Store
	if store == nil {
		writeError(w, http.StatusNotFound, "map storage is disabled")
		return
	}

	rec, err := store.Load(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "map not found")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

func recordToResponse(rec *storage.MapRecord) api.ServerResponse {
	resp := api.ServerResponse{
		Type:  api.TypeUpdate,
		Seed:  rec.Seed,
		Grid:  &api.GridMeta{Size: rec.Size},
		Cells: make([]api.CellView, 0, len(rec.Cells)),
	}
	if rec.Solved() {
		resp.Type = api.TypeSolved
	}

	for line := 0; line < rec.Size; line++ {
		for column := 0; column < rec.Size; column++ {
			view := api.CellView{Line: line, Column: column}
			if v, ok := rec.Value(line, column); ok {
				view.File = v.File
				view.Rotation = v.ImageRotation
				view.Entropy = 1
				view.Collapsed = true
				resp.Step++
			}
			resp.Cells = append(resp.Cells, view)
		}
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
