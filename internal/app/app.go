package app

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

	"go-presensi/internal/config"
	"go-presensi/internal/database"
	"go-presensi/internal/handler"
	"go-presensi/internal/metrics"
	"go-presensi/internal/middleware"
	"go-presensi/internal/photo"
	"go-presensi/internal/repository"
	"go-presensi/internal/revocation"
	"go-presensi/internal/router"
	"go-presensi/internal/service"
	"go-presensi/internal/storage"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.cleanup()
		}
	}()

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	userRepo := repository.NewUserRepository(db.SQL)
	presensiRepo := repository.NewPresensiRepository(db.SQL)
	reportRepo := repository.NewReportRepository(db.SQL)
	slog.Info("database ready")

	checks := map[string]handler.HealthCheck{"database": db.Health}

	var revoked revocation.Store = revocation.NewMemoryStore()
	if cfg.RedisAddr != "" {
		client, err := revocation.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = client.Close() })

		redisStore := revocation.NewRedisStore(client)
		revoked = redisStore
		checks["redis"] = redisStore.Health
		slog.Info("token revocation backed by redis", "addr", cfg.RedisAddr)
	} else {
		slog.Warn("REDIS_ADDR not set, token revocation is kept in memory")
	}

	photos, photoFiles, err := newPhotoStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	processor := photo.NewProcessor(cfg.PhotoMaxSize, cfg.PhotoMaxDimension)

	authService := service.NewAuthService(userRepo, revoked, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		TTL:        cfg.JWTTTL,
		BcryptCost: cfg.BcryptCost,
	}, m)
	presensiService := service.NewPresensiService(presensiRepo, photos, processor, cfg.DisplayLocation, m)
	reportService := service.NewReportService(reportRepo, cfg.DisplayLocation)

	if cfg.SeedAdminEmail != "" {
		created, err := authService.EnsureSeedAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to seed admin: %w", err)
		}
		if created {
			slog.Info("seed admin created", "email", cfg.SeedAdminEmail)
		}
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Presensi: handler.NewPresensiHandler(presensiService, cfg.DisplayLocation, processor),
		Report:   handler.NewReportHandler(reportService),
		Health:   handler.NewHealthHandler(checks),
	}, m, photoFiles)

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	ok = true
	return a, nil
}

// newPhotoStore returns the configured photo backend and, for the local
// backend, the file system served under PHOTO_PUBLIC_PATH.
func newPhotoStore(ctx context.Context, cfg *config.Config) (storage.PhotoStore, http.FileSystem, error) {
	if cfg.PhotoStorage == config.PhotoStorageS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			UsePathStyle:  cfg.S3UsePathStyle,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 photo storage: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure photo bucket: %w", err)
		}
		slog.Info("photos stored in s3", "bucket", cfg.S3Bucket)
		return store, nil, nil
	}

	store, err := storage.New(cfg.PhotoRoot, cfg.PhotoPublicPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize photo storage: %w", err)
	}
	slog.Info("photos stored on disk", "root", store.RootAbs(), "public_path", store.PublicPath())
	return store, http.Dir(store.RootAbs()), nil
}

func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case err := <-errCh:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
