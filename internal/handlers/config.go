package handlers

import (
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/aws"
)

// HandlerConfig groups dependencies for the API handlers.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	IdempotencyTable string
	OrdersTable      string
	QueueURL         string // notifications queue consumed by the worker
	TTLWindow        time.Duration
	Logger           *zap.Logger
}

func (cfg HandlerConfig) logger() *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}
