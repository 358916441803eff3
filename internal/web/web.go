// Package web serves the calendar report over HTTP.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"whencal/internal/calfile"
	"whencal/internal/config"
	"whencal/internal/datecalc"
	"whencal/internal/ics"
	appLog "whencal/internal/log"
	"whencal/internal/report"
)

// Server provides HTTP APIs for the calendar in cfg.Calendar. The calendar
// file is re-read on every request so that edits show up immediately.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	// today and now are replaceable in tests.
	today func() datecalc.Date
	now   func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:   cfg,
		mux:   http.NewServeMux(),
		today: datecalc.Today,
		now:   time.Now,
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

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than locking everyone out.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="whencal", charset="UTF-8"`)
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

// ListenAndServe serves on cfg.Listen until ctx is canceled.
func ListenAndServe(ctx context.Context, cfg *config.Config) error {
	s := NewServer(cfg)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "calendar", cfg.Calendar)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/items", s.handleItems)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type itemDTO struct {
	Date        string `json:"date"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description"`
	Expr        string `json:"expr"`
	Line        int    `json:"line"`
}

type skippedDTO struct {
	Line  int    `json:"line"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

type itemsResponse struct {
	From    string       `json:"from"`
	To      string       `json:"to"`
	Items   []itemDTO    `json:"items"`
	Skipped []skippedDTO `json:"skipped,omitempty"`
}

// window returns the report window from the past and future query
// parameters, defaulting to the configured offsets.
func (s *Server) window(r *http.Request) report.Window {
	q := r.URL.Query()
	past := parseIntDefault(q.Get("past"), s.cfg.PastDays())
	future := parseIntDefault(q.Get("future"), s.cfg.FutureDays())
	return report.NewWindow(s.today(), past, future)
}

// loadEntries reads the calendar. Skipped lines are returned, not treated
// as failures.
func (s *Server) loadEntries() ([]calfile.Entry, []*calfile.LineError, error) {
	entries, err := calfile.Load(s.cfg.Calendar)
	if err != nil && !calfile.IsLineErrors(err) {
		return nil, nil, err
	}
	return entries, calfile.LineErrors(err), nil
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	win := s.window(r)
	entries, skipped, err := s.loadEntries()
	if err != nil {
		appLog.Error("api items: calendar read failed", err, "calendar", s.cfg.Calendar)
		writeError(w, http.StatusInternalServerError, "failed to read calendar")
		return
	}
	items := report.Collect(entries, win, s.today())
	appLog.Debug("api items request", "window", win.String(), "items", len(items))

	resp := itemsResponse{
		From:  win.From.String(),
		To:    win.To.String(),
		Items: make([]itemDTO, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, itemDTO{
			Date:        it.Date.String(),
			Label:       it.Label,
			Description: it.Description,
			Expr:        it.Expr,
			Line:        it.Line,
		})
	}
	for _, le := range skipped {
		resp.Skipped = append(resp.Skipped, skippedDTO{Line: le.Line, Text: le.Text, Error: le.Err.Error()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	win := s.window(r)
	entries, _, err := s.loadEntries()
	if err != nil {
		appLog.Error("calendar.ics: calendar read failed", err, "calendar", s.cfg.Calendar)
		writeError(w, http.StatusInternalServerError, "failed to read calendar")
		return
	}
	recurring, _ := strconv.ParseBool(r.URL.Query().Get("recurring"))
	cal := ics.Export(entries, ics.ExportOptions{Window: win, Recurring: recurring, Now: s.now()})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := ics.Write(w, cal); err != nil {
		appLog.Error("calendar.ics: write failed", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
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
