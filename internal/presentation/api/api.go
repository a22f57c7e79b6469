package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/hilthontt/todoroom/internal/infrastructure/configs"
	"github.com/hilthontt/todoroom/internal/infrastructure/json"
	"github.com/hilthontt/todoroom/internal/infrastructure/metrics"
	healthHandler "github.com/hilthontt/todoroom/internal/presentation/handler/health"
)

// Application is the operations HTTP server that runs next to the bot.
type Application struct {
	config        configs.HTTPConfig
	healthHandler *healthHandler.Handler
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewApplication(
	config configs.HTTPConfig,
	healthHandler *healthHandler.Handler,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Application {
	return &Application{
		config:        config,
		healthHandler: healthHandler,
		metrics:       m,
		logger:        logger,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", app.healthHandler.GetHealth)
	r.Get("/healthz", app.healthHandler.GetHealth)
	r.Get("/live", app.healthHandler.GetHealth)
	r.Get("/ready", app.healthHandler.GetReady)
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		json.WriteNotFound(w)
	})

	return otelhttp.NewHandler(r, "ops")
}

// Run serves mux until ctx is cancelled, then shuts down gracefully.
func (app *Application) Run(ctx context.Context, mux http.Handler) error {
	readTimeout := app.config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := app.config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.Host, app.config.Port),
		Handler:      mux,
		WriteTimeout: writeTimeout,
		ReadTimeout:  readTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error, 1)
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		shutdown <- srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info("ops server has started", zap.String("addr", srv.Addr))

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	app.logger.Info("ops server has stopped", zap.String("addr", srv.Addr))
	return nil
}
