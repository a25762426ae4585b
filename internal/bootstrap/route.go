package bootstrap

import (
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/controller"
	"LykkeLoopAPI/internal/middleware"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Route struct {
	chi                    *chi.Mux
	conversationController *controller.ConversationController
	messageController      *controller.MessageController
	notificationController *controller.NotificationController
	wsController           *controller.WebSocketController
	healthController       *controller.HealthController
	authMiddleware         *middleware.AuthMiddleware
	rateLimitMiddleware    *middleware.RateLimitMiddleware
}

func NewRoute(
	chi *chi.Mux,
	conversationController *controller.ConversationController,
	messageController *controller.MessageController,
	notificationController *controller.NotificationController,
	wsController *controller.WebSocketController,
	healthController *controller.HealthController,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
) *Route {
	return &Route{
		chi:                    chi,
		conversationController: conversationController,
		messageController:      messageController,
		notificationController: notificationController,
		wsController:           wsController,
		healthController:       healthController,
		authMiddleware:         authMiddleware,
		rateLimitMiddleware:    rateLimitMiddleware,
	}
}

func (route *Route) Register() {
	route.chi.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to LykkeLoopAPI"))
	})

	route.chi.Get("/healthz", route.healthController.Health)

	route.chi.With(
		route.rateLimitMiddleware.Throttle,
		route.authMiddleware.VerifyWSToken,
	).Get("/ws", route.wsController.ServeWS)

	route.chi.Route("/api", func(r chi.Router) {
		r.Use(config.APITimeout())
		r.Use(route.authMiddleware.VerifyToken)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", route.conversationController.GetOrCreate)
			r.Get("/", route.conversationController.List)
			r.Get("/{conversationID}", route.conversationController.Get)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", route.messageController.SendMessage)
			r.Patch("/read", route.messageController.MarkRead)
		})

		r.Get("/notifications/unread-count", route.notificationController.UnreadCount)
	})
}
