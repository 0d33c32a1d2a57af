package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/ai-community/config"
	"github.com/d60-Lab/ai-community/internal/api"
	"github.com/d60-Lab/ai-community/internal/api/handler"
	"github.com/d60-Lab/ai-community/internal/cache"
	"github.com/d60-Lab/ai-community/internal/llm"
	"github.com/d60-Lab/ai-community/internal/repository"
	"github.com/d60-Lab/ai-community/internal/service"
	"github.com/d60-Lab/ai-community/pkg/database"
	"github.com/d60-Lab/ai-community/pkg/logger"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db := must(database.InitDB(cfg))

	// repositories
	characterRepo := repository.NewCharacterRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// redis 未配置时直读数据库
	var feedCache *cache.FeedCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		feedCache = cache.NewFeedCache(rdb, cfg.Redis.FeedTTL)
	}

	provider := must(llm.NewOpenAIProvider(llm.OpenAIConfig{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		RequestTimeout: cfg.LLM.RequestTimeout,
	}))
	channel := llm.NewChannel(provider, llm.ChannelConfig{
		MinGap:       cfg.LLM.MinRequestGap,
		MaxPerWindow: cfg.LLM.MaxPerMinute,
		Window:       cfg.LLM.QuotaWindow,
		RetryDelay:   cfg.LLM.QuotaRetryDelay,
		QueueSize:    cfg.LLM.QueueSize,
	})
	stopChannel := channel.Start()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	schedule := service.NewSchedule(cfg.Automation.EligibilityFloor)
	generator := service.NewGenerator(characterRepo, postRepo, commentRepo, interactionRepo, channel)
	humanEvents := service.NewHumanEvents(interactionRepo, postRepo, generator)
	automation := service.NewAutomation(service.AutomationConfig{
		PostScanInterval:      cfg.Automation.PostScanInterval,
		InteractionInterval:   cfg.Automation.InteractionInterval,
		HumanEventInterval:    cfg.Automation.HumanEventInterval,
		MaxPostsPerTrigger:    cfg.Automation.MaxPostsPerTrigger,
		MaxCommentsPerTrigger: cfg.Automation.MaxCommentsPerTrigger,
	}, settingRepo, characterRepo, postRepo, generator, humanEvents, schedule, rng)

	feed := service.NewFeed(characterRepo, postRepo, commentRepo, interactionRepo, feedCache)
	// 调度器内部已对 rng 加锁，角色创建路径用独立的随机源
	characters := service.NewCharacters(characterRepo, rand.New(rand.NewSource(rng.Int63())))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := automation.Initialize(ctx); err != nil {
		logger.Error("automation init failed", zap.Error(err))
		panic(err)
	}

	h := handler.NewHandler(feed, characters, automation)
	router := api.NewRouter(cfg, h)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	automation.Shutdown()
	_ = stopChannel(shutdownCtx)
}
