package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agencydesk/console/realtime"
	"github.com/agencydesk/console/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds all server dependencies
type Server struct {
	config             *Config
	repo               *repository.GORMRepository
	authService        *AuthService
	analysisService    *CallAnalysisService
	mailer             Mailer
	hub                *realtime.Hub
	authEndpoints      *AuthEndpoints
	staffEndpoints     *StaffEndpoints
	trainingEndpoints  *TrainingEndpoints
	progressEndpoints  *ProgressEndpoints
	challengeEndpoints *ChallengeEndpoints
	callEndpoints      *CallEndpoints
	wsEndpoints        *WebSocketEndpoints
}

func NewServer(config *Config) *Server {
	return &Server{config: config}
}

// SetDatabase sets the repository used by all endpoint groups.
func (s *Server) SetDatabase(repo *repository.GORMRepository) {
	s.repo = repo
}

// InitializeServices wires every service and endpoint group. Optional
// integrations (Gemini, SendGrid) degrade to disabled or logging fallbacks
// when unconfigured.
func (s *Server) InitializeServices() error {
	if s.config.AI.GeminiAPIKey != "" {
		s.analysisService = NewCallAnalysisService(s.config.AI.GeminiAPIKey, s.config.AI.Model)
		if s.analysisService != nil {
			slog.Info("Call analysis service initialized", "model", s.config.AI.Model)
		}
	} else {
		slog.Warn("Gemini API key not configured, call analysis disabled")
	}

	if s.config.Mail.SendGridKey != "" {
		s.mailer = NewSendGridMailer(s.config.Mail.SendGridKey, s.config.Mail.FromName, s.config.Mail.FromEmail)
		slog.Info("SendGrid mailer initialized")
	} else {
		s.mailer = ConsoleMailer{}
		slog.Warn("SendGrid key not configured, invites are logged instead of sent")
	}

	s.hub = realtime.NewHub()
	go s.hub.Run()

	if s.config.JWT.Secret != "" && s.repo != nil {
		s.authService = NewAuthService(s.repo, s.config.JWT.Secret)
		s.authEndpoints = NewAuthEndpoints(s.authService)
		s.staffEndpoints = NewStaffEndpoints(s.repo, s.authService, s.mailer, s.config.Mail.PortalURL)
		s.trainingEndpoints = NewTrainingEndpoints(s.repo)
		s.progressEndpoints = NewProgressEndpoints(s.repo)
		s.challengeEndpoints = NewChallengeEndpoints(s.repo, s.hub)
		s.callEndpoints = NewCallEndpoints(s.repo, s.analysisService, s.hub)
		s.wsEndpoints = NewWebSocketEndpoints(s.hub, s.config.WebSocket.AllowedOrigins)
		slog.Info("Endpoint groups initialized")
	}

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if s.authEndpoints != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", s.authEndpoints.LoginHandler)
				r.Post("/refresh", s.authEndpoints.RefreshHandler)

				r.Group(func(r chi.Router) {
					r.Use(s.authService.Middleware)
					r.Post("/logout", s.authEndpoints.LogoutHandler)
					r.Get("/me", s.authEndpoints.MeHandler)
				})
			})
		}

		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)

				s.staffEndpoints.RegisterRoutes(r)
				s.trainingEndpoints.RegisterRoutes(r)
				s.progressEndpoints.RegisterRoutes(r)
				s.challengeEndpoints.RegisterRoutes(r)
				s.callEndpoints.RegisterRoutes(r)
				r.Get("/ws", s.wsEndpoints.ConnectHandler)
			})
		}
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.repo != nil {
		if sqlDB, err := s.repo.DB().DB(); err == nil {
			if err := sqlDB.Ping(); err != nil {
				dbStatus = "down"
				status = "degraded"
			} else {
				dbStatus = "up"
			}
		} else {
			dbStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}
