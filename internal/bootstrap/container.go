package bootstrap

import (
	"context"
	"log"
	"time"

	"knowledge-workspace/internal/config"
	"knowledge-workspace/internal/controller"
	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/internal/pkg/metrics"
	"knowledge-workspace/internal/repository/memory"
	"knowledge-workspace/internal/repository/unitofwork"
	"knowledge-workspace/internal/service"
	"knowledge-workspace/internal/websocket"
	"knowledge-workspace/pkg/events"
	"knowledge-workspace/pkg/llm"
	"knowledge-workspace/pkg/llm/factory"
	pktNats "knowledge-workspace/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController
	AdminController    controller.IAdminController

	// Background services, started by main
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Metrics *metrics.Collector
	Logger  logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	collector := metrics.NewCollector("workspace")
	documentCache := memory.NewDocumentCache(5 * time.Minute)

	// 2. In-process event bus for document changes
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Optional infrastructure. The server still runs without NATS or Redis.
	var auditPublisher pktNats.AuditPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		auditPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	rdb := connectRedis(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(rdb, collector, wsLogger)

	// 4. AI provider behind a circuit breaker
	provider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL, cfg.Ai.HuggingFaceKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	breakerCfg := llm.DefaultBreakerConfig("llm-" + cfg.Ai.LLMProvider)
	breakerCfg.MinRequests = cfg.Ai.BreakerMinRequests
	breakerCfg.FailureThreshold = cfg.Ai.BreakerFailureThreshold
	breakerCfg.Timeout = cfg.Ai.BreakerOpenTimeout
	breakerCfg.OnStateChange = func(name, from, to string) {
		sysLogger.Warn("LLMBreaker", "Circuit breaker state changed", map[string]interface{}{
			"breaker": name,
			"from":    from,
			"to":      to,
		})
	}
	guardedProvider := llm.NewBreakerProvider(provider, breakerCfg)

	// 5. Services
	publisherService := service.NewPublisherService(events.TopicDocumentsChanged, pubSub)
	documentService := service.NewDocumentService(uowFactory, documentCache, publisherService, sysLogger)
	authService := service.NewAuthService(uowFactory, service.AuthSettings{
		JwtSecret:  cfg.Auth.JwtSecret,
		SessionTTL: cfg.Auth.SessionTTL,
	}, auditPublisher, sysLogger)
	chatService := service.NewChatService(guardedProvider, cfg.Ai.MaxContextChars, collector, sysLogger)
	consumerService := service.NewConsumerService(pubSub, events.TopicDocumentsChanged, documentCache, wsHub, auditPublisher, collector, sysLogger)

	// 6. Controllers
	c.AuthController = controller.NewAuthController(authService, controller.CookieSettings{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
	})
	c.DocumentController = controller.NewDocumentController(documentService)
	c.ChatController = controller.NewChatController(chatService)
	c.AdminController = controller.NewAdminController(sysLogger)

	c.ConsumerService = consumerService
	c.WebSocketHub = wsHub
	c.Metrics = collector
	c.Logger = sysLogger
	return c
}

func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Redis unavailable, websocket fan-out stays local: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
