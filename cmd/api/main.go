package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/aws"
	"github.com/imrishuroy/go-orderflow-notifications/internal/config"
	"github.com/imrishuroy/go-orderflow-notifications/internal/handlers"
	"github.com/imrishuroy/go-orderflow-notifications/internal/logging"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterFeeRoutes(r, cfg.Logger)
	handlers.RegisterNotificationRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat).With(zap.String("service", "api"), zap.String("env", cfg.AppEnv))
	defer func() { _ = log.Sync() }()

	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion, cfg.AWSEndpointOverride)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	r := setupRouter(handlers.HandlerConfig{
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		IdempotencyTable: cfg.IdempotencyTable,
		OrdersTable:      cfg.OrdersTable,
		QueueURL:         cfg.NotificationsQueueURL,
		TTLWindow:        cfg.IdempotencyTTL,
		Logger:           log,
	})

	// RUN_LOCAL serves plain HTTP for development.
	if cfg.RunLocal {
		addr := cfg.HTTPAddr()
		log.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			log.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
