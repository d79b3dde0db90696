// Package web serves the local organizer UI: a read-mostly JSON API over the
// workspace plus an embedded static page that renders the heatmap.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"groupsched/internal/config"
	appLog "groupsched/internal/log"
	"groupsched/internal/model"
	"groupsched/internal/overlap"
	"groupsched/internal/schedule"
	"groupsched/internal/store"
)

// uploadLimit caps schedule upload bodies. A full week is 77 rows; anything
// near this limit is not a schedule file.
const uploadLimit = 1 << 20

// Server provides HTTP APIs for workspace and heatmap access.
type Server struct {
	cfg *config.Config
	st  *store.Store
	mux *http.ServeMux

	// In-memory cache for heatmap-derived responses to avoid recomputing
	// the aggregate on every HTTP request.
	heatMu    sync.RWMutex
	heatCache *heatmapCache
}

// embeddedStatic contains the static organizer UI.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		cfg: cfg,
		st:  st,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// A blank username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable without credentials.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="groupsched", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer runs an HTTP server for s bound to cfg.Listen until ctx is
// canceled, then shuts it down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/schedules", s.handleSchedules)
	s.mux.HandleFunc("/api/heatmap", s.handleHeatmap)
	s.mux.HandleFunc("/api/rank", s.handleRank)

	// Static organizer UI (embedded). All non-/api/* paths fall back to it.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// InvalidateCache drops the cached heatmap so the next request recomputes
// it. Called after any workspace mutation, including the watch-dir rescan.
func (s *Server) InvalidateCache() {
	s.heatMu.Lock()
	s.heatCache = nil
	s.heatMu.Unlock()
}

// staticFileServer returns an http.Handler serving the embedded UI files
// from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never serve HTML for unknown /api/* paths; a 404 is the correct
		// answer there.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// participantDTO is a JSON-friendly view of a stored schedule.
type participantDTO struct {
	Name  string `json:"name"`
	Slots int    `json:"slots"`
}

// schedulesResponse is the JSON response shape for GET /api/schedules.
type schedulesResponse struct {
	Participants []participantDTO `json:"participants"`
}

// handleSchedules lists, uploads and removes workspace schedules.
//
//	GET    /api/schedules             list stored participants
//	POST   /api/schedules?name=NAME   upload one schedule file body (TSV)
//	DELETE /api/schedules?name=NAME   remove one participant
//	DELETE /api/schedules?all=1       clear the workspace
func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listSchedules(w)
	case http.MethodPost:
		s.uploadSchedule(w, r)
	case http.MethodDelete:
		s.deleteSchedules(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listSchedules(w http.ResponseWriter) {
	infos, err := s.st.Participants()
	if err != nil {
		appLog.Error("api schedules: list failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}

	dtos := make([]participantDTO, 0, len(infos))
	for _, info := range infos {
		dtos = append(dtos, participantDTO{Name: info.Name, Slots: info.Slots})
	}
	writeJSON(w, http.StatusOK, schedulesResponse{Participants: dtos})
}

func (s *Server) uploadSchedule(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, uploadLimit)
	defer body.Close()

	fallback := r.URL.Query().Get("name")
	delim := '\t'
	if strings.Contains(r.Header.Get("Content-Type"), "csv") {
		delim = ','
	}

	sched, err := schedule.Read(body, delim, fallback, s.cfg.Window())
	if err != nil {
		appLog.Error("api schedules: upload parse failed", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, err := s.st.Add(sched)
	if err != nil {
		appLog.Error("api schedules: store failed", err, "participant", sched.Name)
		writeError(w, http.StatusInternalServerError, "failed to store schedule")
		return
	}
	s.InvalidateCache()

	appLog.Info("api schedules: uploaded", "participant", name, "slots", sched.Grid.Count())
	writeJSON(w, http.StatusCreated, participantDTO{Name: name, Slots: sched.Grid.Count()})
}

func (s *Server) deleteSchedules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("all") != "" {
		if err := s.st.Clear(); err != nil {
			appLog.Error("api schedules: clear failed", err)
			writeError(w, http.StatusInternalServerError, "failed to clear workspace")
			return
		}
		s.InvalidateCache()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	name := q.Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name or all parameter required")
		return
	}
	removed, err := s.st.Remove(name)
	if err != nil {
		appLog.Error("api schedules: remove failed", err, "participant", name)
		writeError(w, http.StatusInternalServerError, "failed to remove schedule")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "unknown participant")
		return
	}
	s.InvalidateCache()
	w.WriteHeader(http.StatusNoContent)
}

// cellDTO is a JSON-friendly view of one heatmap cell.
type cellDTO struct {
	Day          int      `json:"day"`
	DayName      string   `json:"day_name"`
	Hour         int      `json:"hour"`
	Count        int      `json:"count"`
	Level        int      `json:"level"`
	Participants []string `json:"participants,omitempty"`
}

// heatmapResponse is the JSON response shape for /api/heatmap.
type heatmapResponse struct {
	StartHour         int       `json:"start_hour"`
	EndHour           int       `json:"end_hour"`
	WeekStart         string    `json:"week_start"`
	TotalParticipants int       `json:"total_participants"`
	Cells             []cellDTO `json:"cells"`
}

// rankedSlotDTO is one entry of the ranked candidate list.
type rankedSlotDTO struct {
	Day          int      `json:"day"`
	DayName      string   `json:"day_name"`
	Hour         int      `json:"hour"`
	Count        int      `json:"count"`
	Percentage   float64  `json:"percentage"`
	Participants []string `json:"participants"`
}

// rankResponse is the JSON response shape for /api/rank.
type rankResponse struct {
	TotalParticipants int             `json:"total_participants"`
	Ranked            []rankedSlotDTO `json:"ranked"`
	PerfectMatches    []cellDTO       `json:"perfect_matches"`
}

// heatmapCache holds the last computed aggregate and its timestamp.
type heatmapCache struct {
	heat      *overlap.Heatmap
	updatedAt time.Time
}

const heatmapCacheTTL = 30 * time.Second

// heatmap returns the current aggregate, recomputing it from the store when
// the cached one is stale.
func (s *Server) heatmap() (*overlap.Heatmap, error) {
	now := time.Now()

	s.heatMu.RLock()
	hc := s.heatCache
	s.heatMu.RUnlock()
	if hc != nil && now.Sub(hc.updatedAt) < heatmapCacheTTL {
		return hc.heat, nil
	}

	scheds, err := s.st.Schedules(s.cfg.Window())
	if err != nil {
		return nil, err
	}
	heat := overlap.Aggregate(scheds, s.cfg.Window())

	s.heatMu.Lock()
	s.heatCache = &heatmapCache{heat: heat, updatedAt: time.Now()}
	s.heatMu.Unlock()
	return heat, nil
}

// handleHeatmap returns the full weekly grid with per-cell counts and
// intensity levels for the UI.
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	heat, err := s.heatmap()
	if err != nil {
		appLog.Error("api heatmap: aggregation failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute heatmap")
		return
	}

	window := heat.Window()
	cells := make([]cellDTO, 0, model.DayCount*window.Hours())
	for day := model.Monday; day <= model.Sunday; day++ {
		for hour := window.StartHour; hour < window.EndHour; hour++ {
			slot := model.Slot{Day: day, Hour: hour}
			cell := heat.Cell(slot)
			cells = append(cells, cellDTO{
				Day:          int(day),
				DayName:      day.String(),
				Hour:         hour,
				Count:        cell.Count,
				Level:        int(heat.Level(slot)),
				Participants: cell.Participants,
			})
		}
	}

	writeJSON(w, http.StatusOK, heatmapResponse{
		StartHour:         window.StartHour,
		EndHour:           window.EndHour,
		WeekStart:         s.cfg.WeekStart,
		TotalParticipants: heat.Total(),
		Cells:             cells,
	})
}

// handleRank returns candidate slots sorted by availability plus the
// perfect-match list.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	heat, err := s.heatmap()
	if err != nil {
		appLog.Error("api rank: aggregation failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute ranking")
		return
	}

	total := heat.Total()
	ranked := make([]rankedSlotDTO, 0)
	for _, cell := range heat.Rank() {
		pct := 0.0
		if total > 0 {
			pct = float64(cell.Count) / float64(total) * 100
		}
		ranked = append(ranked, rankedSlotDTO{
			Day:          int(cell.Slot.Day),
			DayName:      cell.Slot.Day.String(),
			Hour:         cell.Slot.Hour,
			Count:        cell.Count,
			Percentage:   pct,
			Participants: cell.Participants,
		})
	}

	perfect := make([]cellDTO, 0)
	for _, slot := range heat.PerfectMatches() {
		perfect = append(perfect, cellDTO{
			Day:     int(slot.Day),
			DayName: slot.Day.String(),
			Hour:    slot.Hour,
			Count:   total,
		})
	}

	writeJSON(w, http.StatusOK, rankResponse{
		TotalParticipants: total,
		Ranked:            ranked,
		PerfectMatches:    perfect,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
