package bootstrap

import (
	"context"
	"fmt"
	"log"

	"sql-agent-be/internal/config"
	"sql-agent-be/internal/controller"
	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/internal/pkg/serverutils"
	"sql-agent-be/internal/repository/implementation"
	"sql-agent-be/internal/service"
	"sql-agent-be/pkg/ai/evidence"
	"sql-agent-be/pkg/ai/intent"
	"sql-agent-be/pkg/ai/pipeline"
	"sql-agent-be/pkg/ai/response"
	"sql-agent-be/pkg/ai/router"
	"sql-agent-be/pkg/ai/sqlgen"
	"sql-agent-be/pkg/embedding"
	"sql-agent-be/pkg/llm/factory"
	"sql-agent-be/pkg/observability"
	"sql-agent-be/pkg/schema"
	"sql-agent-be/pkg/semcache"
	"sql-agent-be/pkg/sqlexec"
	"sql-agent-be/pkg/sqlguard"

	pktNats "sql-agent-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const eventLogPath = "logs/events.log"

type Container struct {
	// Controllers
	QueryController   controller.IQueryController
	HistoryController controller.IHistoryController
	CacheController   controller.ICacheController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the agent. memoryDB holds history and the sqlite cache;
// pool is the PostgreSQL database questions are answered from. Optional
// infrastructure (NATS, Redis, embeddings) degrades with a warning.
func NewContainer(memoryDB *gorm.DB, pool *pgxpool.Pool, cfg *config.Config) (*Container, error) {
	c := &Container{}
	fail := func(err error) (*Container, error) {
		c.Close()
		return nil, err
	}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	eventLogger := logger.NewIsolatedLogger(eventLogPath)
	c.Logger = sysLogger

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	var remote observability.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			remote = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// Registered after the bus so it drains before the bus closes.
	sink := observability.NewSink(pubSub, observability.DefaultTopic, remote, sysLogger, observability.DefaultCapacity)
	c.closers = append(c.closers, sink.Close)
	tracer := observability.NewTracer(sysLogger, sink)

	// 3. Stores
	cache, backend, err := newCache(memoryDB, cfg)
	if err != nil {
		return fail(err)
	}
	if closer, ok := cache.(interface{ Close() error }); ok {
		c.closers = append(c.closers, func() { closer.Close() })
	}

	interactionRepo, err := implementation.NewInteractionRepository(memoryDB)
	if err != nil {
		return fail(err)
	}
	historyService := service.NewHistoryService(interactionRepo, sysLogger)

	// 4. AI Providers
	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" && cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, llmBaseURL, cfg.Ai.LLMAPIKey)
	if err != nil {
		return fail(fmt.Errorf("initialize LLM provider: %w", err))
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	} else {
		log.Printf("[INFO] Embeddings disabled, schema documents ranked lexically")
	}

	// 5. Agent
	validator := sqlguard.NewValidator(nil)
	executor := sqlexec.NewExecutor(sqlexec.NewPgxSessions(pool), sqlexec.Config{
		BatchSize:        cfg.Executor.BatchSize,
		MaxRows:          cfg.Executor.MaxRows,
		StatementTimeout: cfg.Executor.StatementTimeout,
	}, sysLogger)

	agent, err := pipeline.New(pipeline.Deps{
		Cache:     cache,
		Router:    router.NewRouter(llmProvider, sysLogger),
		Retriever: schema.NewMultiLayerRetriever(validator.Catalog(), schema.DefaultDocuments(), embedder, sysLogger),
		History:   historyService,
		Parser:    intent.NewParser(llmProvider, sysLogger),
		Generator: sqlgen.NewGenerator(llmProvider, sysLogger),
		Validator: validator,
		Executor:  executor,
		Formatter: response.NewFormatter(llmProvider, sysLogger),
		Checker:   evidence.NewChecker(llmProvider, sysLogger),
		Tracer:    tracer,
		Logger:    sysLogger,
	})
	if err != nil {
		return fail(err)
	}

	// 6. Services
	queryService := service.NewQueryService(agent, cache, backend, sysLogger)
	consumerService := service.NewConsumerService(pubSub, observability.DefaultTopic, eventLogger, sysLogger)

	// 7. Controllers
	auth := serverutils.JwtMiddleware(cfg.App.JWTSecret)
	c.QueryController = controller.NewQueryController(queryService, auth)
	c.HistoryController = controller.NewHistoryController(historyService, auth)
	c.CacheController = controller.NewCacheController(queryService)
	c.ConsumerService = consumerService

	return c, nil
}

// Close releases background resources in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// newCache also reports the backend actually in use; an unreachable Redis
// falls back to the sqlite store.
func newCache(memoryDB *gorm.DB, cfg *config.Config) (semcache.Cache, string, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return semcache.NewMemoryStore(), "memory", nil
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to sqlite cache", err)
			rdb.Close()
			store, err := semcache.NewSQLStore(memoryDB)
			return store, "sqlite", err
		}
		return semcache.NewRedisStore(rdb, cfg.Cache.RedisPrefix), "redis", nil
	case "sqlite", "":
		store, err := semcache.NewSQLStore(memoryDB)
		return store, "sqlite", err
	default:
		return nil, "", fmt.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
	}
}
