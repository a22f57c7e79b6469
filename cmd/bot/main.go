package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hilthontt/todoroom/internal/application/usecases/room"
	"github.com/hilthontt/todoroom/internal/application/usecases/todo"
	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/hilthontt/todoroom/internal/infrastructure/configs"
	"github.com/hilthontt/todoroom/internal/infrastructure/credential"
	"github.com/hilthontt/todoroom/internal/infrastructure/fanout"
	"github.com/hilthontt/todoroom/internal/infrastructure/logging"
	"github.com/hilthontt/todoroom/internal/infrastructure/metrics"
	"github.com/hilthontt/todoroom/internal/infrastructure/persistence"
	"github.com/hilthontt/todoroom/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/todoroom/internal/infrastructure/repository"
	"github.com/hilthontt/todoroom/internal/infrastructure/session"
	"github.com/hilthontt/todoroom/internal/infrastructure/telegram"
	"github.com/hilthontt/todoroom/internal/infrastructure/tracing"
	"github.com/hilthontt/todoroom/internal/presentation/api"
	"github.com/hilthontt/todoroom/internal/presentation/bot"
	healthHandler "github.com/hilthontt/todoroom/internal/presentation/handler/health"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "todoroom-bot:", err)
		os.Exit(1)
	}
}

type stores struct {
	users    domain.UserRepository
	rooms    domain.RoomRepository
	todos    domain.TodoRepository
	sessions domain.SessionStore
	checks   map[string]domain.Pinger
	closers  []func() error
}

func run() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	var configFlag string
	flagSet := pflag.NewFlagSet("todoroom-bot", pflag.ContinueOnError)
	flagSet.StringVar(&configFlag, "config", "", "path to config file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := configs.Load(configs.DetermineConfigPath(configFlag))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		FilePath: cfg.Logger.FilePath,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		Environment:    cfg.Tracing.Environment,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("failed to shut down tracer", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, closeFn := range s.closers {
			if err := closeFn(); err != nil {
				logger.Warn("failed to close store", zap.Error(err))
			}
		}
	}()

	m := metrics.New()

	transport, err := telegram.New(telegram.Options{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout,
		Debug:       cfg.Telegram.Debug,
		Workers:     cfg.Telegram.Workers,
	}, logger)
	if err != nil {
		return err
	}

	notifier := fanout.NewNotifier(s.rooms, transport, logger.Named("fanout"), m, fanout.Options{
		SendTimeout: cfg.Fanout.SendTimeout,
		Parallelism: cfg.Fanout.Parallelism,
	})

	roomUseCase := room.NewRoomUseCase(
		s.rooms,
		s.sessions,
		credential.NewHasher(cfg.Credential.BcryptCost),
		notifier,
		logger.Named("rooms"),
		m,
		room.Options{MemberLimit: cfg.Rooms.MemberLimit, RandomAttempts: cfg.Rooms.RandomAttempts},
	)
	todoUseCase := todo.NewTodoUseCase(s.rooms, s.todos, notifier, logger.Named("todos"), m)

	deps := bot.Deps{
		Rooms:    roomUseCase,
		Todos:    todoUseCase,
		Users:    s.users,
		Sessions: s.sessions,
		Sender:   transport,
		Logger:   logger.Named("dialog"),
		Metrics:  m,
	}
	if cfg.RateLimiter.Enabled {
		limiter := ratelimiter.NewUserLimiter(cfg.RateLimiter.Limit, cfg.RateLimiter.Window)
		defer limiter.Close()
		deps.Limiter = limiter
	}
	controller := bot.NewController(deps)

	app := api.NewApplication(cfg.HTTP, healthHandler.NewHandler(s.checks, logger), m, logger.Named("ops"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(gctx, app.Mount())
	})
	g.Go(func() error {
		return transport.Run(gctx, controller.Handle)
	})

	logger.Info("bot started",
		zap.String("store", cfg.Store.Driver),
		zap.String("sessions", cfg.Session.Driver),
		zap.Int("memberLimit", cfg.Rooms.MemberLimit),
	)

	err = g.Wait()
	notifier.Wait()
	logger.Info("bot stopped")
	return err
}

func openStores(ctx context.Context, cfg *configs.Config, logger *zap.Logger) (*stores, error) {
	s := &stores{checks: make(map[string]domain.Pinger)}

	switch cfg.Store.Driver {
	case configs.DriverPostgres:
		store, err := persistence.Open(ctx, persistence.Options{
			DSN:             cfg.Store.DSN,
			MaxOpenConns:    cfg.Store.MaxOpenConns,
			MaxIdleConns:    cfg.Store.MaxIdleConns,
			ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
			AutoMigrate:     cfg.Store.AutoMigrate,
		}, logger.Named("store"))
		if err != nil {
			return nil, err
		}
		s.users, s.rooms, s.todos = store.Users, store.Rooms, store.Todos
		s.checks["store"] = store
		s.closers = append(s.closers, store.Close)
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		s.users = repository.NewUserRepository()
		s.rooms = repository.NewRoomRepository()
		s.todos = repository.NewTodoRepository()
	}

	switch cfg.Session.Driver {
	case configs.DriverRedis:
		sessions := session.NewRedisStore(session.RedisOptions{
			Addr:      cfg.Session.RedisAddr,
			Password:  cfg.Session.Password,
			DB:        cfg.Session.DB,
			KeyPrefix: cfg.Session.KeyPrefix,
			TTL:       cfg.Session.TTL,
		})
		if err := sessions.Ping(ctx); err != nil {
			for _, closeFn := range s.closers {
				_ = closeFn()
			}
			_ = sessions.Close()
			return nil, err
		}
		s.sessions = sessions
		s.checks["sessions"] = sessions
		s.closers = append(s.closers, sessions.Close)
	default:
		s.sessions = session.NewMemoryStore()
	}

	return s, nil
}
