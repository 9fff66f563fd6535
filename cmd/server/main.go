package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	_ "pollguard/docs"
	"pollguard/internal/config"
	"pollguard/internal/csrf"
	"pollguard/internal/domain/poll"
	"pollguard/internal/domain/user"
	"pollguard/internal/domain/vote"
	api "pollguard/internal/http"
	"pollguard/internal/identity"
	"pollguard/internal/metrics"
	"pollguard/internal/platform/database"
	jwtpkg "pollguard/internal/platform/jwt"
	"pollguard/internal/polling"
	"pollguard/internal/repository/sqlrepo"
	"pollguard/internal/worker"
)

// @title           pollguard API
// @version         1.0
// @description     Polls with owner-only mutation, one vote per identity and single-use anti-forgery tokens
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	api.SetLogger(logger)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("db connect", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("db migrate", "err", err)
		os.Exit(1)
	}

	userRepo := sqlrepo.NewUserRepo(db)
	pollRepo := sqlrepo.NewPollRepo(db)
	voteRepo := sqlrepo.NewVoteRepo(db)

	ledger := vote.NewLedger(voteRepo, pollRepo)
	store := poll.NewStore(pollRepo, ledger, database.NewTxManager(db))
	userSvc := user.NewService(userRepo)

	var (
		tokenStore  csrf.Store = csrf.NewMemoryStore()
		redisClient redis.UniversalClient
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("parse redis url", "err", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		redisClient = client
		tokenStore = csrf.NewRedisStore(client)
		logger.Info("anti-forgery tokens stored in redis", "addr", opts.Addr)
	}

	svc := polling.NewService(
		identity.ContextGateway{},
		csrf.NewManager(tokenStore, cfg.CSRFTokenTTL),
		store,
		ledger,
		logger,
		polling.Options{
			AllowAnonymousVotes: cfg.AllowAnonymousVotes,
			Timeout:             cfg.StoreTimeout,
		},
	)

	voteCh := make(chan worker.VoteEvent, 100)
	statsWorker := worker.NewStatsWorker(voteCh, logger)

	router := api.NewRouter(api.Deps{
		Polls:         svc,
		Users:         userSvc,
		JWT:           jwtpkg.NewManager(cfg.JWTSecret, cfg.JWTIssuer),
		JWTTTL:        cfg.JWTTTL,
		VoteCh:        voteCh,
		DB:            db,
		Redis:         redisClient,
		VoteRate:      rate.Every(time.Minute / time.Duration(cfg.VoteRatePerMinute)),
		VoteBurst:     cfg.VoteRateBurst,
		SecureCookies: cfg.SecureCookies,
		TrustProxy:    cfg.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	go statsWorker.Run(workerCtx)

	go func() {
		logger.Info("server listening", "port", cfg.Port, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}
	cancelWorker()

	logger.Info("server stopped")
}
