package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-presensi/internal/config"
	"go-presensi/internal/handler"
	"go-presensi/internal/metrics"
	"go-presensi/internal/middleware"
	"go-presensi/internal/model"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Presensi *handler.PresensiHandler
	Report   *handler.ReportHandler
	Health   *handler.HealthHandler
}

// New builds the HTTP handler. photos serves locally stored photos under
// cfg.PhotoPublicPath and is nil when photos live in object storage.
func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, photos http.FileSystem) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/healthz", handlers.Health.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	if photos != nil {
		prefix := "/" + strings.Trim(cfg.PhotoPublicPath, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(filesOnly{photos})))
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", handlers.Auth.Register)
			auth.Post("/login", handlers.Auth.Login)
			auth.With(authMiddleware.RequireAuth).Get("/me", handlers.Auth.Me)
			auth.With(authMiddleware.RequireAuth).Post("/logout", handlers.Auth.Logout)
		})

		api.Route("/presensi", func(presensi chi.Router) {
			presensi.Use(authMiddleware.RequireAuth)
			presensi.Post("/check-in", handlers.Presensi.CheckIn)
			presensi.Post("/check-out", handlers.Presensi.CheckOut)
			presensi.Get("/", handlers.Presensi.List)
			presensi.Get("/{id}", handlers.Presensi.Get)
			presensi.Put("/{id}", handlers.Presensi.Update)
			presensi.Delete("/{id}", handlers.Presensi.Delete)
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Get("/reports/daily", handlers.Report.Daily)
	})

	return r
}

// filesOnly hides directories so stored photos cannot be enumerated.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}

	return file, nil
}
