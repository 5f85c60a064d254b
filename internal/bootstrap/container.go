package bootstrap

import (
	"context"
	"fmt"

	"ai-helpdesk-be/internal/config"
	"ai-helpdesk-be/internal/controller"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/pkg/mailer"
	"ai-helpdesk-be/internal/repository/contract"
	"ai-helpdesk-be/internal/repository/implementation"
	"ai-helpdesk-be/internal/repository/memory"
	"ai-helpdesk-be/internal/repository/redisstore"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/internal/service"
	"ai-helpdesk-be/internal/websocket"
	"ai-helpdesk-be/pkg/assistant"
	"ai-helpdesk-be/pkg/knowledge"
	"ai-helpdesk-be/pkg/knowledgefiles"
	pktNats "ai-helpdesk-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const containerModule = "Bootstrap"

type Container struct {
	// Controllers
	ChatController        controller.IChatController
	KnowledgeController   controller.IKnowledgeController
	FileController        controller.IFileController // nil without FILE_API_BASE_URL
	LogController         controller.ILogController
	InteractionController controller.IInteractionController
	DeskController        controller.IDeskController

	// Background services, started by Start
	EscalationConsumer service.IEscalationConsumer
	DeskFeedService    *service.DeskFeedService // nil without NATS
	WebSocketHub       *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the application. db may be nil: the assistant then runs on the keyword
// retriever and interactions are not recorded.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	deskLogger := logger.NewIsolatedLogger(cfg.App.DeskLogFilePath)
	c := &Container{Logger: sysLogger}

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		sysLogger,
	)

	// 2. Event bus
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Infrastructure
	rdb := connectRedis(cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		if natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL, sysLogger); err != nil {
			sysLogger.Warn(containerModule, "Failed to connect NATS publisher, desk escalations go straight to the feed", map[string]interface{}{"error": err})
			natsPub = nil
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
		if natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger); err != nil {
			sysLogger.Warn(containerModule, "Failed to connect NATS subscriber", map[string]interface{}{"error": err})
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	c.WebSocketHub = websocket.NewHub(rdb, deskLogger)

	// 4. Assistant
	retriever := newRetriever(db, cfg.Retrieval, sysLogger)

	assistantCfg := assistant.DefaultConfig()
	assistantCfg.Endpoint = cfg.Assistant.Endpoint
	assistantCfg.AgentID = cfg.Assistant.AgentID
	assistantCfg.APIKey = cfg.Assistant.APIKey
	assistantCfg.Provider = cfg.Assistant.Provider
	assistantCfg.Model = cfg.Assistant.Model
	assistantCfg.Temperature = cfg.Assistant.Temperature
	assistantCfg.HistoryWindow = cfg.Assistant.HistoryWindow
	assistantCfg.RetryAttempts = cfg.Assistant.RetryAttempts
	assistantCfg.RetryBaseDelay = cfg.Assistant.RetryBaseDelay
	assistantCfg.RetryMaxDelay = cfg.Assistant.RetryMaxDelay
	assistantCfg.Timeout = cfg.Assistant.Timeout

	orchestrator, err := assistant.New(assistantCfg, retriever, nil, sysLogger)
	if err != nil {
		return nil, fmt.Errorf("assistant: %w", err)
	}
	sysLogger.Info(containerModule, "Assistant ready", map[string]interface{}{
		"provider":  assistantCfg.Provider,
		"model":     assistantCfg.Model,
		"retrieval": cfg.Retrieval.Provider,
	})

	// 5. Services
	conversations := newConversationRepository(cfg.App, rdb, sysLogger)
	publisherService := service.NewPublisherService(pubSub, cfg.Escalation.Topic)

	eventBus := deskEventBus(natsPub, natsSub)
	if natsPub != nil && eventBus == nil {
		sysLogger.Warn(containerModule, "NATS subscriber unavailable, desk escalations go straight to the feed", nil)
	}
	c.EscalationConsumer = service.NewEscalationConsumer(
		pubSub,
		cfg.Escalation.Topic,
		emailService,
		cfg.Escalation.DeskMailbox,
		eventBus,
		c.WebSocketHub,
		sysLogger,
	)
	if natsSub != nil {
		c.DeskFeedService = service.NewDeskFeedService(natsSub, c.WebSocketHub, sysLogger, deskLogger)
	}

	chatService := service.NewChatService(orchestrator, conversations, uowFactory, publisherService, sysLogger)
	knowledgeService := service.NewKnowledgeService(retriever, uowFactory, sysLogger)
	logService := service.NewLogService(sysLogger)
	interactionService := service.NewInteractionService(uowFactory)

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatService)
	c.KnowledgeController = controller.NewKnowledgeController(knowledgeService, cfg.Auth.JWTSecret)
	c.LogController = controller.NewLogController(logService, cfg.Auth.JWTSecret)
	c.InteractionController = controller.NewInteractionController(interactionService, cfg.Auth.JWTSecret)
	c.DeskController = controller.NewDeskController(c.WebSocketHub, cfg.Auth.JWTSecret, sysLogger)

	if cfg.FileAPI.BaseURL != "" {
		files := knowledgefiles.NewClient(cfg.FileAPI.BaseURL, cfg.Assistant.AgentID, cfg.Assistant.APIKey, knowledgefiles.Options{
			Timeout:    cfg.FileAPI.Timeout,
			RetryCount: cfg.FileAPI.RetryCount,
		})
		c.FileController = controller.NewFileController(service.NewFileService(files, sysLogger), cfg.Auth.JWTSecret)
	}

	return c, nil
}

// Start launches the background consumers. They stop when ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.EscalationConsumer.Consume(ctx); err != nil {
		return fmt.Errorf("escalation consumer: %w", err)
	}
	if c.DeskFeedService != nil {
		if err := c.DeskFeedService.Start(ctx); err != nil {
			return fmt.Errorf("desk feed: %w", err)
		}
	}
	return nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newRetriever(db *gorm.DB, cfg config.RetrievalConfig, log logger.ILogger) knowledge.Retriever {
	var inner knowledge.Retriever
	switch {
	case cfg.Provider == "store" && db != nil:
		inner = knowledge.NewStoreRetriever(implementation.NewKnowledgeRecordRepository(db), cfg.TopK)
	default:
		if cfg.Provider == "store" {
			log.Warn(containerModule, "Store retrieval needs a database, using keyword retrieval", nil)
		}
		inner = knowledge.NewKeywordRetriever(cfg.Latency)
	}
	return knowledge.NewBoundedRetriever(inner, cfg.Timeout, log)
}

func newConversationRepository(cfg config.AppConfig, rdb *redis.Client, log logger.ILogger) contract.ConversationRepository {
	if cfg.ConversationStore == "redis" {
		if rdb != nil {
			return redisstore.NewConversationRepository(rdb, cfg.ConversationTTL)
		}
		log.Warn(containerModule, "CONVERSATION_STORE=redis without a reachable REDIS_URL, sessions stay in memory", nil)
	}
	return memory.NewConversationRepository(cfg.ConversationTTL)
}

func connectRedis(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn(containerModule, "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn(containerModule, "Failed to connect to Redis", map[string]interface{}{"error": err})
		rdb.Close()
		return nil
	}
	return rdb
}

// deskEventBus routes desk escalations through NATS only when this instance also feeds them back
// to the hub. nil means the consumer broadcasts directly.
func deskEventBus(pub *pktNats.Publisher, sub *pktNats.Subscriber) service.EventPublisher {
	if pub == nil || sub == nil {
		return nil
	}
	return pub
}
