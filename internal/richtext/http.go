// Пакет richtext предоставляет HTTP API для работы со значениями форматированного текста: разбиение,
// проверку, преобразование в HTML, TipTap, Markdown и PDF, разбор HTML и хранение документов с ревизиями.
//
// Основные возможности:
//   - Операции над значениями без хранения (split, validate, convert, parse, format).
//   - Документы с историей ревизий и Lua-правилами перед сохранением.
//   - Фоновая очистка старых ревизий и логов правил по расписанию.
//   - Метрики Prometheus на отдельном адресе.
package richtext

// @title RichText API
// @version 1.0
// @description Rich text value model service.
// @BasePath /
// @query.collection.format multi
import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/config"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/cronmanager"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/maintenance"
	"github.com/WordPress/gutenberg-sub061/pkg/limiter"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

//go:generate echo "Generate docs"
//go:generate go run ../../cmd/docsgen/main.go -src apierrors/apierrors.go -out ../../docs/api_errors.md

type Services struct {
	db       *gorm.DB
	cfg      *config.Config
	registry *editor.FormatRegistry
	metrics  *serviceMetrics
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "RichText")
		return next(c)
	}
}

// NewEcho собирает HTTP-сервер со всеми маршрутами. Метрики регистрируются в reg.
func NewEcho(db *gorm.DB, cfg *config.Config, version string, reg prometheus.Registerer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	s := &Services{
		db:       db,
		cfg:      cfg,
		registry: editor.DefaultFormats(),
		metrics:  newServiceMetrics(reg),
	}

	// Global middlewares
	e.Use(ServerHeader)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return dao.GenUUID().String()
		},
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     9,
		MinLength: 2048,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/convert/pdf/"
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "richtext",
		Registerer: reg,
	}))
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")

	s.AddConvertServices(apiGroup)
	s.AddDocumentServices(apiGroup)

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version":               version,
			"default_multiline_tag": cfg.DefaultMultilineTag,
			"max_text_length":       limiter.Limiter.GetTextLimit(uuid.Nil),
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return EErrorMsgStatus(c, err, http.StatusServiceUnavailable)
		}
		if err := sqlDB.PingContext(c.Request().Context()); err != nil {
			return EErrorMsgStatus(c, err, http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	return e
}

func Server(db *gorm.DB, cfg *config.Config, version string) {
	jobRegistry := cronmanager.JobRegistry{
		"revisions_clean": cronmanager.Job{
			Func:     maintenance.NewRevisionsCleaner(db, cfg.RevisionsKeep).CleanRevisions,
			Schedule: cfg.RevisionsCleanSchedule,
		},
		"rules_log_clean": cronmanager.Job{
			Func:     maintenance.NewRulesLogCleaner(db, cfg.RulesLogKeepDays).CleanRulesLog,
			Schedule: "30 3 * * *", // daily at 03:30
		},
	}

	// Create CronManager
	cronManager := cronmanager.NewCronManager(jobRegistry)
	if err := cronManager.LoadJobs(); err != nil {
		slog.Error("Failed to load cron jobs", "err", err)
		os.Exit(1)
	}
	slog.Info("Cron jobs loaded", "jobs", cronManager.Jobs())

	e := NewEcho(db, cfg, version, prometheus.DefaultRegisterer)

	// Start cronManager
	cronManager.Start()

	// Create a channel to handle termination signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		cronManager.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown", "err", err)
		}
	}()

	// Prometheus metrics
	go func() {
		bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "richtext",
			Name:      "boot_time",
			Help:      "Server startup time",
		})
		bootTimeGauge.Set(float64(time.Now().UnixMilli()))

		if err := prometheus.Register(bootTimeGauge); err != nil {
			slog.Error("Register boot time gauge", "err", err)
			os.Exit(1)
		}

		metrics := echo.New()
		metrics.HideBanner = true
		metrics.GET("/metrics", echoprometheus.NewHandler()) // adds route to serve gathered metrics
		if err := metrics.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server fail", "err", err)
		}
	}()

	if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server fail", "err", err)
	}
}
