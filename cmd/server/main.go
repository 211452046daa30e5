package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-billing/internal/config"
	"github.com/diewo77/go-billing/internal/db"
	"github.com/diewo77/go-billing/internal/events"
	"github.com/diewo77/go-billing/internal/logger"
	"github.com/diewo77/go-billing/internal/metrics"
	"github.com/diewo77/go-billing/internal/notify"
	"github.com/diewo77/go-billing/internal/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
	envFileFlag     = flag.String("env", ".env", "Optional dotenv file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*envFileFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid LOG_LEVEL %q: %v", cfg.LogLevel, err)
	}

	dbConn, err := db.Connect(cfg.Database)
	if err != nil {
		fatal(l, "failed to connect to database", err)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg.Database, true); err != nil {
			fatal(l, "migration failed", err)
		}
		l.Info("migrations completed")
		return
	}

	if *seedOnlyFlag {
		if _, err := db.Seed(context.Background(), dbConn); err != nil {
			fatal(l, "seeding failed", err)
		}
		l.Info("seeding completed")
		return
	}

	// SQL migrations when enabled, gorm AutoMigrate otherwise.
	if err := db.Migrate(dbConn, cfg.Database, cfg.App.Migrations); err != nil {
		fatal(l, "migration failed", err)
	}
	if cfg.App.Seed {
		if _, err := db.Seed(context.Background(), dbConn); err != nil {
			fatal(l, "seeding failed", err)
		}
	}

	metrics.Init(prometheus.DefaultRegisterer)

	var publisher services.EventPublisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(l, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	}
	var notifier services.Notifier = notify.Discard{}
	if cfg.MailEnabled() {
		notifier = notify.NewMailer(cfg.Mail)
	}

	appHandler := NewApp(Deps{
		DB:       dbConn,
		Auth:     cfg.Auth,
		Notifier: notifier,
		Events:   publisher,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(l, appHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		l.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev,
			"mail", cfg.MailEnabled(), "kafka", len(cfg.Kafka.Brokers) > 0)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(l, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error("error during shutdown", "error", err)
	}
	l.Info("server stopped gracefully")
}

func fatal(l *slog.Logger, msg string, err error) {
	l.Error(msg, "error", err)
	os.Exit(1)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging tags the request with an id and logs it once served.
func withLogging(l *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logger.WithRequestID(r.Context(), requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		l.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
