package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/catalog"
	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/auth"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/cache"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/config"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/imaging"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/jobs"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/logger"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/persistence"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/storage"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/telemetry"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/handler"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/middleware"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 30 * time.Second
	adminRole       = "ADMIN"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting catalog admin",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver == persistence.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create SQLite schema", zap.Error(err))
		}
	}
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if db.Driver == persistence.DriverSQLite {
			dbTracing.DBSystem = "sqlite"
		}
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	registry := resource.NewCatalogRegistry()
	records := persistence.NewGormRecordRepository(db.DB)
	countRepo := persistence.NewGormCountRepository(db.DB, log)

	countCache, cacheCloser := cache.NewCountCache(cfg.Counts, cfg.Redis, log)
	defer closeQuietly(cacheCloser, "count cache", log)

	// Media
	store, err := newObjectStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	var frames mediaapp.FrameExtractor
	if ffmpeg := imaging.NewFFmpegExtractor(cfg.Media.FFmpegPath); ffmpeg.Available() {
		frames = ffmpeg
	} else {
		log.Warn("ffmpeg not found, videos will have no thumbnails", zap.String("path", cfg.Media.FFmpegPath))
	}

	thumbQueue := jobs.NewQueue(jobs.Options{
		Workers: cfg.Media.ThumbWorkers,
		Size:    cfg.Media.ThumbQueueSize,
	}, log)
	thumbQueue.Start(context.Background())

	imageLimit, videoLimit, audioLimit, documentLimit := cfg.Media.LimitsBytes()
	ingestion := mediaapp.NewIngestionService(
		store,
		imaging.NewProcessor(imaging.Options{
			ThumbWidth:  cfg.Media.ThumbWidth,
			JPEGQuality: cfg.Media.JPEGQuality,
			MaxPixels:   cfg.Media.MaxImagePixels,
		}),
		frames,
		thumbQueue,
		media.NewNameGenerator(),
		media.Limits{Image: imageLimit, Video: videoLimit, Audio: audioLimit, Document: documentLimit},
		log,
	)
	delivery := mediaapp.NewDeliveryService(registry, records, store, ingestion, thumbQueue, cfg.Media.ThumbAwaitTimeout, log)

	// Application services
	resources := catalogapp.NewResourceService(registry, records, ingestion, log)
	counts := catalogapp.NewCountAggregator(registry, countRepo, countCache, catalogapp.CountAggregatorConfig{
		TTL:                 cfg.Counts.CacheTTL,
		FallbackConcurrency: cfg.Counts.FallbackConcurrency,
	}, log)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access sql.DB", zap.Error(err))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: tp.IsEnabled()}),
		middleware.SpanErrorMarker(),
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.CORS(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", handler.NewHealthHandler(sqlDB).Health)

	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		Validator:  auth.NewJWTService(cfg.JWT),
		CookieName: cfg.JWT.CookieName,
		QueryParam: cfg.JWT.QueryParam,
		Logger:     log,
	})
	admin := []gin.HandlerFunc{jwtAuth, middleware.RequireRole(log, adminRole), middleware.TracingAttributes()}
	mediaGuard := []gin.HandlerFunc{jwtAuth, middleware.TracingAttributes()}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.CatalogGroups(router.CatalogHandlers{
		Resources: handler.NewResourceHandler(resources),
		Counts:    handler.NewCountHandler(counts, resources),
		Media:     handler.NewMediaHandler(delivery),
	}, admin, mediaGuard)...)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := thumbQueue.Stop(ctx); err != nil {
		log.Warn("Thumbnail queue did not drain", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newObjectStore selects the storage backend; local storage is rooted at the media root
func newObjectStore(cfg *config.Config, log *zap.Logger) (mediaapp.ObjectStore, error) {
	if cfg.Storage.Backend == "s3" {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("Using S3 object storage", zap.String("bucket", s3.GetBucket()))
		return s3, nil
	}
	local, err := storage.NewLocalStorage(cfg.Media.Root)
	if err != nil {
		return nil, err
	}
	log.Info("Using local object storage", zap.String("root", local.Root()))
	return local, nil
}

func closeQuietly(c io.Closer, name string, log *zap.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("Close failed", zap.String("resource", name), zap.Error(err))
	}
}
