package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apptbook/internal/api"
	"apptbook/internal/config"
	"apptbook/internal/database"
	"apptbook/internal/domain"
	"apptbook/internal/events"
	"apptbook/internal/export"
	"apptbook/internal/logging"
	"apptbook/internal/metrics"
	"apptbook/internal/notify"
	"apptbook/internal/repository"
	"apptbook/internal/schedule"
	"apptbook/internal/service"
	"apptbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	sessions := initSessions(cfg, &logger)

	holidays, err := loadHolidays(cfg, &logger)
	if err != nil {
		return err
	}
	weekdays, err := cfg.Schedule.WeekdayPair()
	if err != nil {
		return err
	}
	generator := schedule.NewGenerator(cfg.Schedule.WeeksAhead, weekdays, holidays)
	grid := schedule.Times(cfg.Schedule.DayStart, cfg.Schedule.DayEnd, cfg.Schedule.SlotIntervalMinutes)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := buildSender(cfg, &logger)
	notifyWorker := worker.NewNotifyWorker(db, sender, worker.RetryPolicy{}, &logger)
	go notifyWorker.Start(ctx)

	eventBus := events.NewEventBus()

	scheduler := service.NewSchedulerService(
		db, eventBus, notifyWorker, generator,
		cfg.Schedule.DayStart, cfg.Schedule.DayEnd,
		cfg.Schedule.SlotIntervalMinutes, cfg.Schedule.AppointmentMinutes,
		&logger,
	)
	auth := service.NewAuthService(db, sessions, eventBus, cfg.Sessions.TTL(), &logger)
	if cfg.Admin.Email != "" {
		if err := auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Name, cfg.Admin.Password); err != nil {
			logger.Error().Err(err).Str("email", cfg.Admin.Email).Msg("seed admin account")
			return err
		}
	}
	exporter := export.NewExporter(db, grid, cfg.Exports.Path, &logger)

	httpServer := api.NewHTTPServer(cfg.API, scheduler, auth, exporter, &logger)

	startMetrics(ctx, cfg, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()
	logger.Info().Int("http_port", cfg.API.Port).Msg("server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info().Msg("server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	return cfg, logger, closer, nil
}

// loadHolidays merges the inline config list with the optional holidays
// file, so the long static list can live outside the main config.
func loadHolidays(cfg *config.Config, logger *zerolog.Logger) ([]string, error) {
	holidays := append([]string(nil), cfg.Schedule.Holidays...)

	holidaysPath := os.Getenv("HOLIDAYS_PATH")
	if holidaysPath == "" {
		holidaysPath = "configs/holidays.yaml"
	}
	data, err := os.ReadFile(holidaysPath)
	if err != nil {
		if os.IsNotExist(err) {
			return holidays, nil
		}
		logger.Error().Err(err).Str("holidays_path", holidaysPath).Msg("read holidays")
		return nil, err
	}

	var fileConfig struct {
		Holidays []string `yaml:"holidays"`
	}
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		logger.Error().Err(err).Str("holidays_path", holidaysPath).Msg("parse holidays")
		return nil, err
	}

	logger.Info().Int("count", len(fileConfig.Holidays)).Str("holidays_path", holidaysPath).Msg("holidays loaded")
	return append(holidays, fileConfig.Holidays...), nil
}

// initSessions picks the session backend: redis with in-memory failover when
// redis is configured and reachable, plain in-memory otherwise.
func initSessions(cfg *config.Config, logger *zerolog.Logger) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository(cfg.Sessions.TTL())

	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		logger.Info().Msg("redis disabled, using in-memory sessions")
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-memory sessions")
		_ = repository.Close(client)
		return memory
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	primary := repository.NewRedisSessionRepository(client, cfg.Sessions.TTL())
	return repository.NewFailoverSessionRepository(primary, memory, logger)
}

func buildSender(cfg *config.Config, logger *zerolog.Logger) domain.Sender {
	var senders []domain.Sender

	if cfg.Email.Enabled {
		if s := notify.NewSendGridSender(cfg.Email, logger); s != nil {
			senders = append(senders, s)
		}
	}
	if cfg.Telegram.Enabled {
		s, err := notify.NewTelegramSender(cfg.Telegram, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram alerts")
		} else {
			senders = append(senders, s)
		}
	}

	if len(senders) == 0 {
		return notify.NewStubSender(logger)
	}
	if len(senders) == 1 {
		return senders[0]
	}
	return &notify.Multi{Senders: senders}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("metrics server started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
