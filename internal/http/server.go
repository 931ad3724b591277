package httpapi

import (
	"context"
	"net/http"
	"time"

	"aero-backend-go/internal/config"
	"aero-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	DB         *sqlx.DB
	Config     config.Config
	Tokens     services.TokenService
	Cache      *services.SnapshotCache
	MetricsHub *services.MetricsHub
}

func NewServer(db *sqlx.DB, cfg config.Config, cache *services.SnapshotCache, hub *services.MetricsHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	return &Server{
		DB:         db,
		Config:     cfg,
		Tokens:     tokens,
		Cache:      cache,
		MetricsHub: hub,
	}
}

func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(RequestLogger)

		api.Post("/auth/login", s.Login)
		api.Post("/auth/refresh", s.Refresh)
		api.Post("/auth/logout", s.Logout)

		api.With(WithAuth(s.Tokens)).Post("/events/query", s.RecordQueryEvent)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))
			admin.Use(RequireRole("ADMIN"))

			admin.Get("/dashboard", s.AdminDashboard)
			admin.Get("/analytics", s.SystemAnalytics)
			admin.Get("/performance", s.PerformanceMetrics)
			admin.Get("/security", s.SecurityMetrics)
			admin.Get("/metrics/history", s.MetricsHistory)

			admin.Route("/users", func(users chi.Router) {
				users.Get("/", s.ListUsers)
				users.Post("/", s.CreateUser)
				users.Get("/export", s.ExportUsers)
				users.Delete("/{username}", s.DeleteUser)
			})

			admin.Get("/knowledge-base", s.KnowledgeBase)
			admin.Post("/knowledge-base/rebuild-index", s.NotImplemented)
			admin.Post("/knowledge-base/clean-orphans", s.NotImplemented)
			admin.Post("/knowledge-base/export-map", s.NotImplemented)

			admin.Route("/documents", func(docs chi.Router) {
				docs.Post("/", s.UploadDocuments)
				docs.Delete("/{filename}", s.DeleteDocument)
			})

			admin.Post("/security/reset-passwords", s.NotImplemented)
			admin.Post("/security/block-ips", s.NotImplemented)
			admin.Post("/security/export-log", s.NotImplemented)
		})

		api.Route("/teacher", func(teacher chi.Router) {
			teacher.Use(WithAuth(s.Tokens))
			teacher.Use(RequireAnyRole("TEACHER", "ADMIN"))

			teacher.Route("/dashboard", func(dashboard chi.Router) {
				dashboard.Get("/", s.TeacherDashboard)
				dashboard.Get("/topics", s.TeacherTopics)
				dashboard.Get("/activity", s.TeacherActivity)
				dashboard.Get("/trends", s.TeacherTrends)
			})
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
