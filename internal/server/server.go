package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-kratos/kratos/v2/log"
)

type Envelope map[string]interface{}

// AccountSource lists monitored accounts
type AccountSource interface {
	List(ctx context.Context, includeDisabled bool) ([]models.AccountSummary, error)
}

// StatsSource provides library totals
type StatsSource interface {
	Summary(ctx context.Context) (*repository.Summary, error)
	LastRun(ctx context.Context) (*models.CheckRun, error)
}

// Server exposes the monitor state read-only over HTTP
type Server struct {
	http     *http.Server
	accounts AccountSource
	stats    StatsSource
	started  time.Time
	log      *log.Helper
}

func New(addr string, accounts AccountSource, stats StatsSource, logger log.Logger) *Server {
	s := &Server{
		accounts: accounts,
		stats:    stats,
		started:  time.Now(),
		log:      log.NewHelper(log.With(logger, "module", "server")),
	}
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/accounts", s.handleAccounts)
		r.Get("/stats", s.handleStats)
	})
	return r
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("status server listening on %s", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop status server: %w", err)
	}
	s.log.Info("status server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debugw("method", r.Method, "path", r.URL.Path, "status", ww.Status(), "took", time.Since(start).String())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, Envelope{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

type accountView struct {
	Username           string    `json:"username"`
	Platform           string    `json:"platform"`
	Enabled            bool      `json:"enabled"`
	LastCheck          time.Time `json:"last_check"`
	LastVideoID        string    `json:"last_video_id,omitempty"`
	LastVideoTimestamp int64     `json:"last_video_timestamp"`
	TotalVideos        int64     `json:"total_videos"`
	StoredVideos       int64     `json:"stored_videos"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("all") == "true"

	accounts, err := s.accounts.List(r.Context(), includeDisabled)
	if err != nil {
		s.log.Errorf("failed to list accounts: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, Envelope{"message": "Internal Server Error"})
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountView{
			Username:           a.Username,
			Platform:           string(a.Platform),
			Enabled:            a.Enabled,
			LastCheck:          a.LastCheck,
			LastVideoID:        a.LastVideoID,
			LastVideoTimestamp: a.LastVideoTimestamp,
			TotalVideos:        a.TotalVideos,
			StoredVideos:       a.StoredVideos,
		})
	}
	s.writeJSON(w, http.StatusOK, Envelope{"accounts": views})
}

type runView struct {
	ID               string     `json:"id"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	AccountsChecked  int        `json:"accounts_checked"`
	VideosFound      int        `json:"videos_found"`
	VideosDownloaded int        `json:"videos_downloaded"`
	Failures         int        `json:"failures"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.Summary(r.Context())
	if err != nil {
		s.log.Errorf("failed to get summary: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, Envelope{"message": "Internal Server Error"})
		return
	}

	run, err := s.stats.LastRun(r.Context())
	if err != nil {
		s.log.Errorf("failed to get last run: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, Envelope{"message": "Internal Server Error"})
		return
	}

	body := Envelope{
		"videos":           summary.Videos,
		"views":            summary.Views,
		"likes":            summary.Likes,
		"enabled_accounts": summary.EnabledAccounts,
		"last_run":         nil,
	}
	if run != nil {
		view := runView{
			ID:               run.ID,
			StartedAt:        run.StartedAt,
			AccountsChecked:  run.AccountsChecked,
			VideosFound:      run.VideosFound,
			VideosDownloaded: run.VideosDownloaded,
			Failures:         run.Failures,
		}
		if run.Finished() {
			view.FinishedAt = &run.FinishedAt
		}
		body["last_run"] = view
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data Envelope) {
	js, err := json.MarshalIndent(data, "", " ")
	if err != nil {
		s.log.Errorf("failed to marshal response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	js = append(js, '\n')
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(js); err != nil {
		s.log.Warnf("failed to write response: %v", err)
	}
}
