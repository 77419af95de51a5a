package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medibook/scheduling/internal/cache"
	"github.com/medibook/scheduling/internal/config"
	"github.com/medibook/scheduling/internal/domain/schedule"
	"github.com/medibook/scheduling/internal/domain/status"
	v1 "github.com/medibook/scheduling/internal/handler/v1"
	"github.com/medibook/scheduling/internal/repository"
	"github.com/medibook/scheduling/internal/service"
	"github.com/medibook/scheduling/pkg/database"
	"github.com/medibook/scheduling/pkg/logger"
	"github.com/medibook/scheduling/pkg/metrics"
	"github.com/medibook/scheduling/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	policy, err := schedule.NewPolicy(schedule.WorkingHours{
		StartHour:    cfg.Schedule.StartHour,
		EndHour:      cfg.Schedule.EndHour,
		SlotDuration: time.Duration(cfg.Schedule.SlotDurationMins) * time.Minute,
		WeekendDays:  cfg.Schedule.WeekendDays,
	}, nil)
	if err != nil {
		return err
	}
	gen := schedule.NewGenerator(policy)

	collector := metrics.NewCollector("scheduling")

	var store cache.Store
	if cfg.Cache.Enabled {
		store = cache.NewLRUStore(cfg.Cache.Size, cfg.Cache.TTL, log)
	} else {
		log.Info("availability cache disabled, every read recomputes")
	}

	events := service.NewEventDispatcher(log, collector)
	defer events.Shutdown()

	bookingRepo := repository.NewBookingRepository(db, log)
	guard := status.MustDefaultGuard()
	resolver := service.NewConflictResolver(cfg.Retry, log)

	availability := service.NewAvailabilityService(bookingRepo, gen, policy, store, cfg.Cache, events, log, collector)
	bookings := service.NewBookingService(bookingRepo, gen, policy, availability, guard, resolver, events, log, collector)
	statuses := service.NewStatusService(guard, bookingRepo, log)

	events.Subscribe(func(ev service.Event) {
		log.Debug("event published", zap.String("event", ev.EventName()))
	})

	router := buildRouter(cfg, log, collector, availability, bookings, statuses)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("address", cfg.Server.Address()),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRouter(
	cfg *config.Config,
	log *zap.Logger,
	collector *metrics.Collector,
	availability *service.AvailabilityService,
	bookings *service.BookingService,
	statuses *service.StatusService,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestMetrics(collector))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := router.Group("/api/v1")
	v1.NewHandler(availability, bookings, statuses, log).RegisterRoutes(api)

	return router
}

func requestMetrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		collector.InFlightGauge.Inc()
		start := time.Now()

		c.Next()

		collector.InFlightGauge.Dec()
		code := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RequestsTotal.WithLabelValues(c.Request.Method, path, code).Inc()
		collector.RequestDuration.WithLabelValues(c.Request.Method, path, code).Observe(time.Since(start).Seconds())
	}
}
