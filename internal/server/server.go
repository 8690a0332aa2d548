// Package server wires the HTTP router to the services and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/caridad-unsta/caridad/internal/auth"
	"github.com/caridad-unsta/caridad/internal/config"
	"github.com/caridad-unsta/caridad/internal/handler"
	"github.com/caridad-unsta/caridad/internal/middleware"
	sqliteRepo "github.com/caridad-unsta/caridad/internal/repository/sqlite"
	"github.com/caridad-unsta/caridad/internal/service"
)

// Server owns the router and the services behind it. The database is
// owned by the caller, which closes it after Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	tokens *auth.TokenService
	auth   *service.AuthService
	users  *service.UserService
}

// New builds every service, bootstraps the configured admin account and
// mounts the routes.
//
// THE DEPENDENCY CHAIN:
//
//	DB → stores → services → handlers → router
func New(ctx context.Context, cfg *config.Config, db *sqliteRepo.DB, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	identity := service.NewIdentityService(db.Users(), logger)
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
		auth:   service.NewAuthService(identity, db.Users(), tokens, passwords, logger),
		users:  service.NewUserService(db.Users(), passwords, logger),
	}

	if cfg.AdminEmail != "" {
		admin, err := s.auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			return nil, fmt.Errorf("bootstrapping admin account: %w", err)
		}
		logger.Info("admin account ready", slog.String("userID", admin.ID))
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	notifications := service.NewNotificationService(s.db.Notifications(), s.logger)
	sections := service.NewSectionService(s.db.Sections(), s.logger)
	campaigns := service.NewCampaignService(s.db.Campaigns(), s.db.Sections(), s.logger)
	donations := service.NewDonationService(s.db.Donations(), s.db.Sections(), notifications, s.logger)
	activities := service.NewActivityService(s.db.Activities(), notifications, s.config.EnforceActivityCapacity, s.logger)
	reports := service.NewReportService(s.db.Reports(), s.db.Donations(), s.db.Activities(), s.logger)
	exports := service.NewExportService(s.db.Users(), s.db.Donations(), s.db.Activities())

	// A nil *GoogleProvider stored in the interface would not compare equal
	// to nil, so only assign when configured.
	var google handler.GoogleSignIn
	if s.config.GoogleEnabled() {
		google = auth.NewGoogleProvider(s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleCallbackURL)
	}

	authHandler := handler.NewAuthHandler(google, s.auth, s.tokens.TTL(), s.config.SecureCookies, s.logger)
	userHandler := handler.NewUserHandler(s.users, s.logger)
	sectionHandler := handler.NewSectionHandler(sections, s.logger)
	campaignHandler := handler.NewCampaignHandler(campaigns, s.logger)
	donationHandler := handler.NewDonationHandler(donations, s.users, s.logger)
	activityHandler := handler.NewActivityHandler(activities, s.users, s.logger)
	notificationHandler := handler.NewNotificationHandler(notifications, s.logger)
	adminHandler := handler.NewAdminHandler(reports, exports, s.logger)

	requireAdmin := auth.RequireAdmin(s.users)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(s.tokens))

		r.Get("/me", authHandler.HandleMe)

		r.Route("/users", func(r chi.Router) {
			r.Get("/role/{externalId}", userHandler.HandleRole)
			r.Put("/update-name", userHandler.HandleUpdateName)
			r.Put("/update-student-code", userHandler.HandleUpdateMemberCode)

			r.Get("/notifications", notificationHandler.HandleFeed)
			r.Get("/notifications/unread-count", notificationHandler.HandleUnreadCount)
			r.Post("/notifications/read-all", notificationHandler.HandleMarkAllRead)
			r.Post("/notifications/{id}/read", notificationHandler.HandleMarkRead)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/all", userHandler.HandleList)
				r.Post("/create", userHandler.HandleCreate)
				r.Put("/update-role", userHandler.HandleUpdateRole)
				r.Put("/password", userHandler.HandleSetPassword)
				r.Delete("/{id}", userHandler.HandleDelete)
			})
		})

		r.Route("/donation-sections", func(r chi.Router) {
			r.Get("/", sectionHandler.HandleList)
			r.Get("/slug/{slug}", sectionHandler.HandleGetBySlug)
			r.Get("/{id}", sectionHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", sectionHandler.HandleCreate)
				r.Put("/{id}", sectionHandler.HandleUpdate)
				r.Delete("/{id}", sectionHandler.HandleDelete)
			})
		})

		r.Route("/festive-campaigns", func(r chi.Router) {
			r.Get("/", campaignHandler.HandleList)
			r.Get("/{id}", campaignHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", campaignHandler.HandleCreate)
				r.Put("/", campaignHandler.HandleUpdate)
				r.Delete("/", campaignHandler.HandleDelete)
			})
		})

		r.Route("/donations", func(r chi.Router) {
			r.Post("/", donationHandler.HandleSubmit)
			r.Get("/mine", donationHandler.HandleListMine)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", donationHandler.HandleList)
				r.Get("/stats", donationHandler.HandleStats)
				r.Put("/{id}", donationHandler.HandleUpdate)
				r.Delete("/{id}", donationHandler.HandleDelete)
			})

			// Ownership is checked by the service.
			r.Get("/{id}", donationHandler.HandleGet)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", activityHandler.HandleList)
			r.Get("/mine", activityHandler.HandleListMine)
			r.Get("/{id}", activityHandler.HandleGet)
			r.Post("/{id}/join", activityHandler.HandleJoin)
			r.Delete("/{id}/join", activityHandler.HandleLeave)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", activityHandler.HandleCreate)
				r.Put("/{id}", activityHandler.HandleUpdate)
				r.Delete("/{id}", activityHandler.HandleDelete)
				r.Get("/{id}/participants", activityHandler.HandleParticipants)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/overview", adminHandler.HandleOverview)
			r.Get("/recent-activities", adminHandler.HandleRecentActivities)
			r.Get("/recent-donations", adminHandler.HandleRecentDonations)
			r.Get("/charts/{chart}", adminHandler.HandleChart)
			r.Get("/export/{dataset}.csv", adminHandler.HandleExport)

			r.Get("/notifications", notificationHandler.HandleListAll)
			r.Post("/notifications", notificationHandler.HandleCreate)
			r.Get("/notifications/{id}", notificationHandler.HandleGet)
			r.Delete("/notifications/{id}", notificationHandler.HandleDeactivate)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests.
//
// GRACEFUL SHUTDOWN:
// ListenAndServe runs in a goroutine; the main goroutine waits for either a
// server error or a signal. On a signal, Shutdown stops accepting new
// connections and waits up to 30s for active requests to finish.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("enforceActivityCapacity", s.config.EnforceActivityCapacity),
			slog.Bool("googleSignIn", s.config.GoogleEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
