package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"schedule-viewer/config"
	"schedule-viewer/handlers"
	"schedule-viewer/logger"
	"schedule-viewer/metrics"
	"schedule-viewer/middleware"
	"schedule-viewer/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("main")
	log.Infof("start service, feed source %s", cfg.FeedSource)

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Инициализируем сервисы
	var minioService *services.MinIOService
	if cfg.MinIORequired() {
		minioService, err = services.NewMinIOService(cfg, logger.New("minio"))
		if err != nil {
			return fmt.Errorf("failed to initialize MinIO service: %w", err)
		}
	}

	var storage services.ObjectDownloader
	if minioService != nil {
		storage = minioService
	}
	if cfg.FeedSource == config.FeedSourceMinIO {
		exists, err := minioService.ObjectExists(ctx, cfg.FeedBucket, cfg.FeedObject)
		if err != nil {
			log.Warnf("failed to check feed object %s/%s: %v", cfg.FeedBucket, cfg.FeedObject, err)
		} else if !exists {
			log.Warnf("feed object %s/%s not found, load will fail", cfg.FeedBucket, cfg.FeedObject)
		}
	}
	loader, err := services.NewFeedLoader(cfg, storage)
	if err != nil {
		return err
	}

	session := services.NewSession(services.SessionConfig{
		Window:           cfg.Window(),
		Location:         cfg.Location(),
		RejectDegenerate: cfg.FeedRejectDegenerate,
	}, time.Now, logger.New("session"), collector)
	session.Start(ctx, loader)

	// Линия времени сдвигается по расписанию cron
	ticker := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := ticker.AddFunc(cfg.TickSchedule, func() { session.Tick() }); err != nil {
		return fmt.Errorf("invalid tick schedule %q: %w", cfg.TickSchedule, err)
	}
	ticker.Start()
	defer ticker.Stop()

	cacheService := services.NewCacheService(cfg.CacheTTL(), 2*cfg.CacheTTL())

	var exportStorage handlers.ExportStorage
	if cfg.ExportsEnabled {
		if err := minioService.EnsureBucket(ctx, cfg.ExportBucket); err != nil {
			log.Warnf("export bucket unavailable: %v", err)
		}
		exportStorage = services.NewExportStore(minioService, cfg.ExportBucket, cfg.ExportPrefix)
	}

	router := newRouter(cfg, session, cacheService, exportStorage, collector)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.Config, session *services.Session, cacheService *services.CacheService,
	exportStorage handlers.ExportStorage, collector *metrics.Collector) *gin.Engine {
	// Настраиваем Gin
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	scheduleHandler := handlers.NewScheduleHandler(session, cacheService)
	viewHandler := handlers.NewViewHandler(session)
	timelineHandler := handlers.NewTimelineHandler(session)
	autocompleteHandler := handlers.NewAutocompleteHandler(session, cacheService)
	exportHandler := handlers.NewExportHandler(
		session,
		services.NewExportService(now),
		services.NewCalendarService(loc, 0, time.Now, logger.New("calendar")),
		exportStorage,
		cacheService,
		collector,
		logger.New("exports"),
	)

	router := gin.New()
	router.Use(middleware.Logger(logger.New("http")))
	router.Use(middleware.CORS(cfg.AllowedOrigins()))
	router.Use(middleware.Metrics(collector))
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(collector.Handler()))

	api := router.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
				"time":   time.Now(),
			})
		})
		api.GET("/status", scheduleHandler.GetStatus)

		// Занятия и раскладка
		api.GET("/entries", scheduleHandler.GetEntries)
		api.GET("/layout", scheduleHandler.GetLayout)
		api.GET("/layout/hit", scheduleHandler.HitTest)
		api.GET("/statistics", scheduleHandler.GetStatistics)

		// Состояние просмотра
		api.GET("/view", viewHandler.GetView)
		api.PUT("/view/day", viewHandler.SelectDay)
		api.POST("/view/filters", viewHandler.ApplyFilters)
		api.DELETE("/view/filters", viewHandler.ClearFilters)
		api.PUT("/view/hover", viewHandler.Hover)

		// Линия времени
		api.GET("/now", timelineHandler.GetNow)
		api.POST("/timeline/now", timelineHandler.ResetToNow)
		api.POST("/timeline/drag", timelineHandler.Drag)

		// Подсказки фильтров
		api.GET("/autocomplete", autocompleteHandler.GetFields)
		api.GET("/autocomplete/:field", autocompleteHandler.GetSuggestions)

		// Выгрузки
		api.GET("/export/xlsx", exportHandler.DownloadXLSX)
		api.GET("/export/ics", exportHandler.DownloadICS)
		api.POST("/exports", exportHandler.SaveExport)
		api.GET("/exports", exportHandler.ListExports)

		// Cache management
		api.POST("/cache/invalidate", scheduleHandler.InvalidateCache)
	}
	return router
}
