package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/auth"
	"messaging-service/internal/db"
	"messaging-service/internal/handlers"
	"messaging-service/internal/messaging"
	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

func main() {
	ctx := context.Background()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	amqpURL := getEnv("AMQP_URL", "")
	amqpExchange := getEnv("AMQP_EXCHANGE", "ws_events")
	if amqpURL != "" {
		if publisher, err := observability.NewAMQPPublisher(amqpURL, amqpExchange); err != nil {
			log.Printf("amqp publisher disabled: %v", err)
		} else {
			observability.SetPublisher(publisher)
			defer publisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(amqpURL, getEnv("AUDIT_EXCHANGE", "audit"))
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(
		auditPublisher,
		getEnv("AUDIT_ROUTING_KEY", "audit.messaging"),
		"messaging-service",
		getEnv("ENVIRONMENT", "development"),
	)

	otlpEndpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdownTracer, err := telemetry.InitTracer(ctx, "messaging-service", otlpEndpoint)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				log.Printf("tracer shutdown: %v", err)
			}
		}()
	}

	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	participantRepo := repositories.NewParticipantRepo(database)

	hub := ws.NewHub()
	presence := ws.NewMemoryPresence()
	typing := ws.NewMemoryTyping()
	notifier := ws.NewHubNotifier(hub)

	service := messaging.NewService(conversationRepo, messageRepo, participantRepo, notifier)

	verifier := auth.NewJWTVerifier(getEnv("JWT_SECRET", "dev-secret"))
	gateway := ws.NewGateway(hub, presence, typing, service, verifier)
	conversationHandler := handlers.NewConversationHandler(service, participantRepo, auditEmitter)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("messaging-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.POST("/conversations/start", authMiddleware, conversationHandler.StartConversation)
	router.GET("/conversations/unread-count", authMiddleware, conversationHandler.UnreadCount)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, conversationHandler.GetMessages)
	router.DELETE("/conversations/:conversation_id/messages/:message_id", authMiddleware, conversationHandler.DeleteMessage)
	router.POST("/messages", authMiddleware, conversationHandler.PostMessage)
	router.GET("/presence/online", authMiddleware, gateway.Online)

	router.GET("/ws", gateway.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, auditEmitter, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
