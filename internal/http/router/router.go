package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/docsecure/docsecure/internal/http/handler"
	"github.com/docsecure/docsecure/internal/http/middleware"
	"github.com/docsecure/docsecure/internal/http/response"
	"github.com/docsecure/docsecure/internal/service"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	DocumentHandler  *handler.DocumentHandler
	ShareLinkHandler *handler.ShareLinkHandler
	AuditHandler     *handler.AuditHandler
	Guard            *service.Guard
	RateLimitBackend middleware.Limiter
	APIRateLimitRPM  int
	AuthRateLimitRPM int
	MaxBodySize      int64
	EnableOTelHTTP   bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	if dep.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(dep.MaxBodySize))
	}

	backend := dep.RateLimitBackend
	if backend == nil {
		backend = middleware.NewLocalWindowLimiter()
	}
	apiRPM := dep.APIRateLimitRPM
	if apiRPM <= 0 {
		apiRPM = 300
	}
	authRPM := dep.AuthRateLimitRPM
	if authRPM <= 0 {
		authRPM = 20
	}
	r.Use(middleware.NewRateLimiter(backend, apiRPM, time.Minute, middleware.FailOpen, "api").Middleware())
	authLimiter := middleware.NewRateLimiter(backend, authRPM, time.Minute, middleware.FailClosed, "auth").Middleware()

	authed := middleware.Authenticate(dep.Guard)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(authed).Post("/logout", dep.AuthHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Get("/users/me", dep.UserHandler.Me)
			r.Put("/users/me", dep.UserHandler.UpdateMe)

			r.Route("/documents", func(r chi.Router) {
				r.Post("/", dep.DocumentHandler.Upload)
				r.Get("/", dep.DocumentHandler.List)
				r.Get("/{document_id}", dep.DocumentHandler.Get)
				r.Get("/{document_id}/download", dep.DocumentHandler.Download)
				r.Delete("/{document_id}", dep.DocumentHandler.Delete)
			})

			r.Route("/share-links", func(r chi.Router) {
				r.Post("/", dep.ShareLinkHandler.Create)
				r.Get("/", dep.ShareLinkHandler.List)
				r.Delete("/{link_id}", dep.ShareLinkHandler.Delete)
			})

			r.Route("/audit", func(r chi.Router) {
				r.Get("/", dep.AuditHandler.List)
				r.With(middleware.RequireAdmin).Get("/summary", dep.AuditHandler.Summary)
			})
		})

		// Capability URLs need no session; the token is the authorization.
		r.Route("/shared", func(r chi.Router) {
			r.Get("/{token}", dep.ShareLinkHandler.SharedDocument)
			r.Get("/{token}/download", dep.ShareLinkHandler.SharedDownload)
		})
	})

	if dep.EnableOTelHTTP {
		return otelhttp.NewHandler(r, "docsecure.http")
	}
	return r
}
