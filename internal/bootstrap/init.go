package bootstrap

import (
	"LykkeLoopAPI/internal/adapter"
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/controller"
	"LykkeLoopAPI/internal/middleware"
	"LykkeLoopAPI/internal/repository"
	"LykkeLoopAPI/internal/service"
	"LykkeLoopAPI/internal/websocket"
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Init wires services and controllers onto chiMux and starts the background
// workers that live as long as ctx: the websocket hub, the cross-instance
// push relay when Redis is configured, and limiter housekeeping.
func Init(ctx context.Context, cfg *config.AppConfig, repo *repository.Repository, redisAdapter *adapter.RedisAdapter, validate *validator.Validate, chiMux *chi.Mux, healthChecks map[string]controller.Pinger) *websocket.Hub {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	var publisher websocket.Publisher = hub
	if redisAdapter != nil {
		broker := websocket.NewRedisBroker(redisAdapter, hub)
		go broker.Run(ctx)
		publisher = broker
	}

	if limiter, ok := repo.RateLimit.(*repository.WindowLimiter); ok {
		go limiter.Run(ctx, time.Minute)
	}

	wsLimiter := config.NewRateLimiter(cfg)
	go func() {
		<-ctx.Done()
		wsLimiter.Stop()
	}()

	emailAdapter := adapter.NewEmailAdapter(cfg)
	deliveryService := service.NewDeliveryService(publisher, emailAdapter, repo.User, cfg)

	conversationService := service.NewConversationService(repo)
	messageService := service.NewMessageService(repo, cfg, validate, deliveryService)
	notificationService := service.NewNotificationService(repo)

	route := NewRoute(
		chiMux,
		controller.NewConversationController(conversationService),
		controller.NewMessageController(messageService),
		controller.NewNotificationController(notificationService),
		controller.NewWebSocketController(hub),
		controller.NewHealthController(healthChecks),
		middleware.NewAuthMiddleware(cfg),
		middleware.NewRateLimitMiddleware(wsLimiter, cfg),
	)
	route.Register()

	return hub
}
