package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/aws"
	"github.com/imrishuroy/go-orderflow-notifications/internal/config"
	"github.com/imrishuroy/go-orderflow-notifications/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat).With(zap.String("service", "worker"), zap.String("env", cfg.AppEnv))
	defer func() { _ = log.Sync() }()

	if err := cfg.ValidateWorker(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion, cfg.AWSEndpointOverride)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}
	p := NewProcessor(clients, cfg, log)

	// RUN_LOCAL processes a single simulated SQS record and exits.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"order_id":"local-order-1","kind":"order_sent","idempotency_key":"local-key-1","notification_id":"local-notification-1"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
