package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agamariel/mastercrm/internal/auth"
	"github.com/agamariel/mastercrm/internal/config"
	"github.com/agamariel/mastercrm/internal/handlers"
	"github.com/agamariel/mastercrm/internal/migrations"
	"github.com/agamariel/mastercrm/internal/numbering"
	"github.com/agamariel/mastercrm/internal/services"
	"github.com/agamariel/mastercrm/internal/storage"
	"github.com/agamariel/mastercrm/internal/validation"
	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	dbConnectTries = 5
	redisTimeout   = 3 * time.Second
)

// App структура для управления приложением и его зависимостями.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	dbPool *pgxpool.Pool
	redis  *redis.Client
	echo   *echo.Echo

	allocator *numbering.Allocator
	orders    *storage.PostgresOrderStorage

	// Handlers
	userHandler   *handlers.UserHandler
	orderHandler  *handlers.OrderHandler
	cityHandler   *handlers.CityHandler
	statusHandler *handlers.StatusHandler
	sourceHandler *handlers.SourceHandler
	masterHandler *handlers.MasterHandler
	statsHandler  *handlers.StatsHandler
	healthHandler *handlers.HealthHandler
}

// NewApp создаёт и инициализирует новое приложение.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log,
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initDependencies(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	if err := app.backfillNumbers(ctx); err != nil {
		return nil, fmt.Errorf("failed to backfill order numbers: %w", err)
	}

	app.initServer()

	return app, nil
}

// initDatabase подключается к базе данных с повторами и затем выполняет миграции.
func (app *App) initDatabase(ctx context.Context) error {
	if app.cfg.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}

	connect := func() (*pgxpool.Pool, error) {
		pool, err := pgxpool.New(ctx, app.cfg.DatabaseURI)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("unable to create pool: %w", err))
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			app.log.Warn("database is not ready", zap.Error(err))
			return nil, fmt.Errorf("unable to ping database: %w", err)
		}
		return pool, nil
	}

	pool, err := backoff.Retry(ctx, connect,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(dbConnectTries),
	)
	if err != nil {
		return err
	}

	app.dbPool = pool
	app.log.Info("connected to database")

	// Миграции только после успешного Ping.
	if err := migrations.Apply(ctx, app.cfg.DatabaseURI, app.log); err != nil {
		pool.Close()
		app.dbPool = nil
		return err
	}

	return nil
}

// initSequence выбирает счётчик номеров: Redis, если задан адрес, иначе таблица в PostgreSQL.
func (app *App) initSequence(ctx context.Context, orders *storage.PostgresOrderStorage) (numbering.Sequence, error) {
	if app.cfg.RedisAddress == "" {
		app.log.Info("order numbers use postgres counters")
		return storage.NewPostgresOrderNumberSequence(app.dbPool), nil
	}

	client := numbering.NewRedisClient(app.cfg.RedisAddress)
	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis at %s: %w", app.cfg.RedisAddress, err)
	}

	app.redis = client
	app.log.Info("order numbers use redis counters", zap.String("addr", app.cfg.RedisAddress))
	return numbering.NewRedisSequence(client, orders), nil
}

// initDependencies инициализирует все зависимости приложения (storage, services, handlers).
func (app *App) initDependencies(ctx context.Context) error {
	// Storage layer
	userStorage := storage.NewPostgresUserStorage(app.dbPool)
	orderStorage := storage.NewPostgresOrderStorage(app.dbPool)
	statusStorage := storage.NewPostgresStatusStorage(app.dbPool)
	masterStorage := storage.NewPostgresMasterStorage(app.dbPool)
	cityStorage := storage.NewPostgresCityStorage(app.dbPool)
	sourceStorage := storage.NewPostgresSourceStorage(app.dbPool)
	statsStorage := storage.NewPostgresStatsStorage(app.dbPool)

	seq, err := app.initSequence(ctx, orderStorage)
	if err != nil {
		return err
	}
	app.allocator = numbering.NewAllocator(seq)
	app.orders = orderStorage

	// Service layer
	stages := services.NewStageResolver(statusStorage)
	masters := services.NewMasterResolver(masterStorage, app.log)

	userService := services.NewUserService(userStorage, app.cfg.JWTSecret, app.cfg.TokenExpiration, app.log)
	orderService := services.NewOrderService(services.OrderDeps{
		Orders:    orderStorage,
		Statuses:  statusStorage,
		Cities:    cityStorage,
		Sources:   sourceStorage,
		Stages:    stages,
		Masters:   masters,
		Allocator: app.allocator,
		Log:       app.log,
	})
	cityService := services.NewCityService(cityStorage, stages, app.log)
	statusService := services.NewStatusService(statusStorage)
	sourceService := services.NewSourceService(sourceStorage)
	masterService := services.NewMasterService(masterStorage, masters)
	statsService := services.NewStatsService(statsStorage)

	// Handler layer
	app.userHandler = handlers.NewUserHandler(userService, app.cfg.TokenExpiration, app.log)
	app.orderHandler = handlers.NewOrderHandler(orderService, app.log)
	app.cityHandler = handlers.NewCityHandler(cityService, app.log)
	app.statusHandler = handlers.NewStatusHandler(statusService, app.log)
	app.sourceHandler = handlers.NewSourceHandler(sourceService, app.log)
	app.masterHandler = handlers.NewMasterHandler(masterService, app.log)
	app.statsHandler = handlers.NewStatsHandler(statsService, app.log)
	app.healthHandler = handlers.NewHealthHandler(app.dbPool)

	return nil
}

// initServer инициализирует HTTP-сервер и настраивает маршруты.
func (app *App) initServer() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handlers.JSONSerializer{}
	e.Validator = validation.New()
	e.HTTPErrorHandler = handlers.ErrorHandler(app.log)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			app.log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	api := e.Group("/api")

	// Публичные маршруты (не требуют аутентификации)
	loginLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(app.cfg.LoginRateLimit)))
	api.GET("/health", app.healthHandler.Health)
	api.GET("/auth/check", app.userHandler.Check)
	api.POST("/auth/register", app.userHandler.Register, loginLimiter)
	api.POST("/auth/login", app.userHandler.Login, loginLimiter)

	// Защищённые маршруты (требуют аутентификации)
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(app.cfg.JWTSecret))

	protected.GET("/auth/me", app.userHandler.Me)
	protected.GET("/auth/users", app.userHandler.ListUsers)
	protected.POST("/auth/users", app.userHandler.CreateUser)
	protected.DELETE("/auth/users/:id", app.userHandler.DeleteUser)
	protected.PUT("/auth/password", app.userHandler.ChangePassword)

	protected.GET("/cities", app.cityHandler.List)
	protected.POST("/cities", app.cityHandler.Create)
	protected.PUT("/cities/:id", app.cityHandler.Update)
	protected.DELETE("/cities/:id", app.cityHandler.Delete)

	protected.GET("/statuses", app.statusHandler.List)

	protected.GET("/sources", app.sourceHandler.List)
	protected.POST("/sources", app.sourceHandler.Create)
	protected.DELETE("/sources/:id", app.sourceHandler.Delete)

	protected.GET("/masters", app.masterHandler.List)
	protected.POST("/masters/find-or-create", app.masterHandler.FindOrCreate)
	protected.GET("/masters/:id/stats", app.masterHandler.Stats)

	protected.GET("/orders/city/:cityId", app.orderHandler.ListByCity)
	protected.GET("/orders/by-phone/:phone", app.orderHandler.ListByPhone)
	protected.GET("/orders/search", app.orderHandler.Search)
	protected.GET("/orders/:id", app.orderHandler.Get)
	protected.POST("/orders", app.orderHandler.Create)
	protected.PUT("/orders/:id", app.orderHandler.Update)
	protected.PUT("/orders/:id/status", app.orderHandler.ChangeStatus)
	protected.PUT("/orders/:id/close", app.orderHandler.Close)
	protected.DELETE("/orders/:id", app.orderHandler.Delete)

	protected.GET("/stats/overview", app.statsHandler.Overview)
	protected.GET("/stats/masters", app.statsHandler.Masters)
	protected.GET("/stats/masters/export", app.statsHandler.ExportMasters)
	protected.GET("/stats/sources", app.statsHandler.Sources)
	protected.GET("/stats/cities", app.statsHandler.Cities)

	app.echo = e
}

// backfillNumbers нумерует заказы, созданные до появления нумерации.
func (app *App) backfillNumbers(ctx context.Context) error {
	n, err := numbering.NewBackfiller(app.orders, app.allocator, app.log).Run(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		app.log.Info("order numbers backfilled", zap.Int("orders", n))
	}
	return nil
}

// Start запускает HTTP-сервер.
func (app *App) Start(ctx context.Context) error {
	app.log.Info("starting server", zap.String("addr", app.cfg.RunAddress))
	if err := app.echo.Start(app.cfg.RunAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// Shutdown корректно завершает работу приложения.
func (app *App) Shutdown(ctx context.Context) error {
	app.log.Info("shutting down server")

	if err := app.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Warn("failed to close redis client", zap.Error(err))
		}
	}

	if app.dbPool != nil {
		app.dbPool.Close()
	}

	app.log.Info("server gracefully stopped")
	return nil
}
