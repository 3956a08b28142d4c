package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/grpcserver"
	"messenger-service/internal/handlers"
	"messenger-service/internal/logging"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init tracing")
	}

	database, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	publisherMode, noopReason := rabbitmq.Describe(publisher)
	log.Info().
		Str("mode", string(publisherMode)).
		Str("reason", noopReason).
		Msg("event publisher ready")
	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", cfg.ServiceName, cfg.Env)

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	relationshipRepo := repositories.NewRelationshipRepo(database)

	relationshipService := services.NewRelationshipService(relationshipRepo, publisher)
	chatService := services.NewChatService(chatRepo, messageRepo, relationshipService, publisher).
		WithMaxMembers(cfg.MaxChatMembers)

	chatHandler := handlers.NewChatHandler(chatService, audit)
	relationshipHandler := handlers.NewRelationshipHandler(relationshipService, audit)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 2*time.Minute)
	go limiter.Run(30 * time.Second)
	defer limiter.Stop()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.ServiceName),
		observability.RequestIDMiddleware(),
		observability.AccessLogMiddleware(),
		observability.HTTPMetricsMiddleware(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, string(publisherMode), cfg.DebugRoutes)

	api := router.Group("/", middleware.AuthMiddleware(cfg.JWTSecret), middleware.RateLimit(limiter))
	handlers.RegisterRoutes(api, chatHandler, relationshipHandler)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	health := grpcserver.New(database)
	go health.Watch(ctx, 15*time.Second)

	grpcLis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("grpc listen")
	}
	go func() {
		if err := health.Serve(grpcLis); err != nil {
			log.Error().Err(err).Msg("grpc server error")
			stop()
		}
	}()

	go func() {
		log.Info().Str("port", cfg.Port).Str("grpc_port", cfg.GRPCPort).Msg("messenger-service listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	health.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown")
	}
}
