package bootstrap

import (
	"context"
	"log"

	"bookmarkhub-be/internal/config"
	"bookmarkhub-be/internal/controller"
	"bookmarkhub-be/internal/handler"
	"bookmarkhub-be/internal/pkg/logger"
	"bookmarkhub-be/internal/pkg/mailer"
	"bookmarkhub-be/internal/repository/memory"
	"bookmarkhub-be/internal/repository/unitofwork"
	"bookmarkhub-be/internal/service"
	"bookmarkhub-be/internal/websocket"

	pktNats "bookmarkhub-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	OAuthController    controller.IOAuthController
	UserController     controller.IUserController
	BookmarkController controller.IBookmarkController

	// Background Services (Exposed for main.go to run)
	EnrichmentService service.IEnrichmentService

	// WebSockets & Change Feed
	ChangefeedHandler *handler.ChangefeedHandler
	WebSocketHub      *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.App.ClientURL,
	)

	// Single-use OAuth state storage
	stateRepo := memory.NewStateRepository()

	// 2. Event Bus (in-process, feeds the enrichment worker)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/changefeed.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Feed.EnrichTopic, pubSub)
	enrichmentService := service.NewEnrichmentService(
		pubSub,
		cfg.Feed.EnrichTopic,
		uowFactory,
		natsPub,
	)

	userService := service.NewUserService(uowFactory)
	oauthService := service.NewOAuthService(uowFactory, stateRepo, emailService, cfg, sysLogger)
	bookmarkService := service.NewBookmarkService(uowFactory, publisherService, natsPub, sysLogger)

	// 3.5 Change Feed Worker (NATS -> Hub)
	changefeedService := service.NewChangefeedService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go changefeedService.Start()
	}

	changefeedHandler := handler.NewChangefeedHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		ChangefeedHandler:  changefeedHandler,
		WebSocketHub:       wsHub,
		OAuthController:    controller.NewOAuthController(oauthService, cfg),
		UserController:     controller.NewUserController(userService),
		BookmarkController: controller.NewBookmarkController(bookmarkService),

		EnrichmentService: enrichmentService,
	}
}
