package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/config"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/events"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/handlers"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/interview"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/jobs"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/matchmaking"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/metrics"
	mongorepo "github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/repositories/mongo"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/registry"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/routers"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	client, err := mongorepo.NewClient(context.Background(), cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer client.Close(context.Background())

	sessionRepo, err := mongorepo.NewSessionRepo(client)
	if err != nil {
		logger.Fatal("session repository init failed", zap.Error(err))
	}
	historyRepo, err := mongorepo.NewHistoryRepo(client)
	if err != nil {
		logger.Fatal("history repository init failed", zap.Error(err))
	}
	questionRepo, err := mongorepo.NewQuestionSetRepo(client)
	if err != nil {
		logger.Fatal("question set repository init failed", zap.Error(err))
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		publisher = events.NewRedisPublisher(rdb, cfg.RedisChannel, logger)
		defer rdb.Close()
	}

	reg := registry.New(logger)
	mm := matchmaking.New(logger)
	coord := interview.NewCoordinator(logger, reg, mm, sessionRepo, historyRepo, questionRepo, publisher, cfg.StoreTimeout)

	sweeper := jobs.NewSweeper(logger, coord, cfg.SweepSchedule, cfg.StaleAfter)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("sweeper start failed", zap.Error(err))
	}
	defer sweeper.Stop()

	wsHandler := handlers.NewWSHandler(logger, reg, coord, cfg.JWTSecret, cfg.RequireAuth)
	questionHandler := handlers.NewQuestionHandler(logger, questionRepo)
	historyHandler := handlers.NewHistoryHandler(logger, historyRepo)

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))
	router.Use(metrics.Middleware)

	routers.Register(router, wsHandler, questionHandler, historyHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("interview service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("interview service shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("interview service exited")
}
