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
	"go.uber.org/zap"

	"chesscoach/internal/adapters"
	"chesscoach/internal/bootstrap"
	analyzeDelivery "chesscoach/internal/delivery/analyze"
	ratingDelivery "chesscoach/internal/delivery/rating"
	ownMiddleware "chesscoach/internal/middleware"
	"chesscoach/internal/repository"
	analysisUC "chesscoach/internal/usecase/analysis"
	ratingUC "chesscoach/internal/usecase/rating"
)

type mainDeliveryHandler struct {
	analyze *analyzeDelivery.AnalyzeHandler
	rating  *ratingDelivery.RatingHandler
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	mongoAdapter := adapters.NewAdapterMongo(cfg)
	if err := mongoAdapter.Init(ctx); err != nil {
		logger.Fatal("Failed to initialize MongoDB", zap.Error(err))
	}
	defer mongoAdapter.Close(ctx)

	redisAdapter := adapters.NewAdapterRedis(cfg)
	if err := redisAdapter.Init(ctx); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisAdapter.Close(ctx)

	pool, err := repository.NewEnginePool(repository.EngineConfig{
		Path:            cfg.StockfishPath,
		HashMB:          cfg.EngineHashMB,
		Threads:         cfg.EngineThreads,
		TimeoutBase:     time.Duration(cfg.EngineTimeoutBaseMS) * time.Millisecond,
		TimeoutPerDepth: time.Duration(cfg.EngineTimeoutPerDepth) * time.Millisecond,
	}, cfg.EnginePoolSize, logger)
	if err != nil {
		logger.Fatal("Failed to start engine pool", zap.Error(err))
	}
	defer pool.Close()

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(*cfg, logger, pool, mongoAdapter, redisAdapter)
	handlers.Router(r, cfg.IsLocalCors)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/analyze/position", h.analyze.HandleAnalyzePosition)
	r.Post("/analyze/game", h.analyze.HandleAnalyzeGame)
	r.Get("/analyze/bestmove", h.analyze.HandleBestMove)
	r.Post("/analyze/judge", h.analyze.HandleJudgeMove)
	r.Get("/analyze/ws", h.analyze.HandleAnalyzeWS)

	r.Post("/rating/result", h.rating.HandleRecordResult)
	r.Get("/rating/performance", h.rating.HandlePerformance)
	r.Get("/rating/expected", h.rating.HandleExpectedScore)
}

// enginePool adapts the concrete pool to the analysis usecase interface.
type enginePool struct {
	pool *repository.EnginePool
}

func (p enginePool) Acquire(ctx context.Context) (analysisUC.Engine, error) {
	client, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (p enginePool) Release(e analysisUC.Engine) {
	if client, ok := e.(*repository.EngineClient); ok {
		p.pool.Release(client)
	}
}

func initializeDeliveryHandlers(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	pool *repository.EnginePool,
	mongoAdapter *adapters.AdapterMongo,
	redisAdapter *adapters.AdapterRedis,
) *mainDeliveryHandler {
	analyzer := analysisUC.NewAnalyzer(enginePool{pool: pool}, cfg.DefaultDepth, cfg.DefaultMultiPV, log)
	evalCache := repository.NewEvalCache(redisAdapter.GetClient(), time.Duration(cfg.EvalCacheTTLSeconds)*time.Second, log)
	analyzeHandler := analyzeDelivery.NewAnalyzeHandler(cfg, log, analyzer, evalCache)

	ratingEngine := ratingUC.NewEngine(cfg.EloKFactor, cfg.EloDefaultRating)
	ratingStore := repository.NewRatingStore(mongoAdapter.Database, log)
	ratingService := ratingUC.NewService(ratingEngine, ratingStore, log)
	ratingHandler := ratingDelivery.NewRatingHandler(log, ratingService, ratingEngine)

	return &mainDeliveryHandler{
		analyze: analyzeHandler,
		rating:  ratingHandler,
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
