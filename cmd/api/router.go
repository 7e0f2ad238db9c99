package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/imagefeed/service/internal/auth"
	appMiddleware "github.com/imagefeed/service/internal/middleware"
	"github.com/imagefeed/service/internal/post"
	"github.com/imagefeed/service/internal/response"
	"github.com/imagefeed/service/internal/user"
)

type routerDeps struct {
	jwtSecret string
	auth      *auth.Handler
	users     *user.Handler
	posts     *post.Handler
	health    func(ctx context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(appMiddleware.Metrics)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.health != nil {
			if err := d.health(r.Context()); err != nil {
				response.Error(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Identity provider
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", d.auth.Register)
		r.Post("/jwt/login", d.auth.Login)
	})

	// Everything below requires a bearer token
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.RequireAuth(d.jwtSecret))
		r.Get("/users/me", d.users.GetMe)
		r.Post("/upload", d.posts.Upload)
		r.Get("/feed", d.posts.Feed)
		r.Delete("/posts/{postID}", d.posts.Delete)
	})

	return r
}
