package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/servicelink-api/internal/application/auth"
	"github.com/servicelink-api/internal/application/catalog"
	"github.com/servicelink-api/internal/application/device"
	fileapp "github.com/servicelink-api/internal/application/file"
	"github.com/servicelink-api/internal/application/marketplace"
	"github.com/servicelink-api/internal/application/notification"
	"github.com/servicelink-api/internal/application/session"
	syncapp "github.com/servicelink-api/internal/application/sync"
	"github.com/servicelink-api/internal/application/user"
	"github.com/servicelink-api/internal/application/verification"
	"github.com/servicelink-api/internal/config"
	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/transport/http/handler"
	appmiddleware "github.com/servicelink-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		DeviceRepo:      deps.DeviceRepo,
		JWTProvider:     deps.JWTProvider,
		GoogleVerifier:  deps.GoogleVerifier,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		DeviceRepo:      deps.DeviceRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		CodeRepo:        deps.AuthCodeRepo,
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		DeviceRepo:      deps.DeviceRepo,
		Mailer:          deps.Mailer,
		SMSSender:       deps.SMSSender,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	verificationSvc := verification.NewService(verification.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		UserRepo:         deps.UserRepo,
		NotificationRepo: deps.NotificationRepo,
		Mailer:           deps.Mailer,
		SMSSender:        deps.SMSSender,
		Validity:         cfg.VerificationValidity,
	})
	syncSvc := syncapp.NewService(syncapp.ServiceDeps{
		BidRepo:          deps.BidRepo,
		BookingRepo:      deps.BookingRepo,
		MessageRepo:      deps.MessageRepo,
		ServiceRepo:      deps.ServiceRepo,
		ThreadRepo:       deps.ThreadRepo,
		UserRepo:         deps.UserRepo,
		VerificationRepo: deps.VerificationRepo,
		Transactor:       deps.Transactor,
		MaxBatchItems:    cfg.SyncMaxBatchItems,
	})
	catalogSvc := catalog.NewService(deps.ServiceRepo, deps.CategoryRepo)
	marketplaceSvc := marketplace.NewService(marketplace.ServiceDeps{
		BidRepo:     deps.BidRepo,
		BookingRepo: deps.BookingRepo,
		ThreadRepo:  deps.ThreadRepo,
		MessageRepo: deps.MessageRepo,
		UserRepo:    deps.UserRepo,
	})
	deviceSvc := device.NewService(deps.DeviceRepo, deps.AppVersionRepo)
	notifSvc := notification.NewService(deps.NotificationRepo)
	fileSvc := fileapp.NewService(deps.S3Store, deps.FileRepo)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	verificationH := handler.NewVerificationHandler(verificationSvc)
	syncH := handler.NewSyncHandler(syncSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	marketplaceH := handler.NewMarketplaceHandler(marketplaceSvc)
	deviceH := handler.NewDeviceHandler(deviceSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	fileH := handler.NewFileHandler(fileSvc)
	pwH := handler.NewPasswordRecoveryHandler(authSvc)
	emailH := handler.NewEmailConfirmHandler(authSvc)
	phoneH := handler.NewPhoneConfirmHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/google", sessionH.LoginWithGoogle)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)
		r.Get("/services", catalogH.ListServices)
		r.Get("/services/{id}", catalogH.GetService)
		r.Get("/categories", catalogH.ListCategories)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			// Any authenticated user
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Delete("/users/{id}", userH.Delete)
			r.Post("/users/me/password", userH.ChangePassword)

			// Verification lifecycle (owner side)
			r.With(sensitiveRL.Limit).Post("/users/verify", verificationH.Submit)
			r.Get("/users/verifications", verificationH.ListMine)
			r.Get("/users/verifications/{id}", verificationH.Get)
			r.Put("/users/verifications/{id}", verificationH.Update)
			r.Patch("/users/verifications/{id}", verificationH.Update)
			r.Post("/users/verifications/{id}/cancel", verificationH.Cancel)

			// Offline sync
			r.Post("/sync/upload", syncH.Upload)
			r.Get("/sync/profile", syncH.Profile)
			r.Get("/sync/services", syncH.Services)

			// Catalog writes
			r.Post("/services", catalogH.CreateService)
			r.Put("/services/{id}", catalogH.UpdateService)

			// Marketplace reads and online messaging
			r.Get("/bids", marketplaceH.ListBids)
			r.Get("/bookings", marketplaceH.ListBookings)
			r.Get("/threads", marketplaceH.ListThreads)
			r.Post("/threads", marketplaceH.StartThread)
			r.Get("/threads/{id}/messages", marketplaceH.ListMessages)
			r.Post("/threads/{id}/messages", marketplaceH.PostMessage)

			r.Get("/devices", deviceH.List)
			r.Put("/devices/version", deviceH.CheckVersion)
			r.Get("/devices/{id}", deviceH.Get)
			r.Put("/devices/{id}", deviceH.Update)
			r.Delete("/devices/{id}", deviceH.Delete)
			r.Get("/notifications", notifH.ListUnread)
			r.Get("/notifications/{id}", notifH.Get)
			r.Put("/notifications/{id}", notifH.MarkAsRead)
			r.Post("/files/s3", fileH.Upload)
			r.Post("/files/s3/base64", fileH.UploadBase64)
			r.Get("/files/s3/base64/{id}", fileH.GetBase64)
			r.Get("/files/s3/{id}", fileH.Download)
			r.Delete("/files/s3/{id}", fileH.Delete)
			r.Post("/confirm-email/{action}", emailH.Action)
			r.Post("/confirm-phone/{action}", phoneH.Action)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)

				r.Get("/admin/users/{id}/verifications", verificationH.ListForUser)
				r.Post("/users/verifications/{id}/mark_in_progress", verificationH.MarkInProgress)
				r.Post("/users/verifications/{id}/mark_verified", verificationH.MarkVerified)
				r.Post("/users/verifications/{id}/mark_rejected", verificationH.MarkRejected)
				r.Get("/users/verifications/status_summary", verificationH.StatusSummary)

				r.Post("/categories", catalogH.CreateCategory)
				r.Put("/categories/{id}", catalogH.UpdateCategory)
				r.Delete("/categories/{id}", catalogH.DeleteCategory)
			})
		})
	})

	return r
}
