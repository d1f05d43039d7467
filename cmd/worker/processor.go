package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/apperr"
	"github.com/imrishuroy/go-orderflow-notifications/internal/aws"
	"github.com/imrishuroy/go-orderflow-notifications/internal/config"
	"github.com/imrishuroy/go-orderflow-notifications/internal/idempotency"
	"github.com/imrishuroy/go-orderflow-notifications/internal/mailmodel"
	"github.com/imrishuroy/go-orderflow-notifications/internal/orders"
)

// Notification outcomes reported to CloudWatch
const (
	outcomeSent      = "sent"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
	outcomeExpired   = "expired"
)

// Processor turns queued notification requests into mail queue messages.
type Processor struct {
	idempStore *idempotency.Store
	orderStore *orders.Store
	mail       *aws.Publisher
	metrics    *aws.Metrics
	builder    *mailmodel.Builder
	log        *zap.Logger
}

// NewProcessor creates a new worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, cfg *config.Config, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		idempStore: idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		orderStore: orders.NewStore(clients.DynamoDB, cfg.OrdersTable),
		mail:       aws.NewPublisher(clients.SQS, cfg.MailQueueURL),
		metrics:    aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace),
		builder:    mailmodel.NewBuilder(log),
		log:        log,
	}
}

// Handle receives an SQS batch event and processes each message.
// An error makes Lambda retry the batch; permanently broken requests are
// recorded as FAILED in the ledger and acknowledged instead.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.log.Debug("received sqs batch", zap.Int("records", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg WorkerMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	log := p.log.With(
		zap.String("order_id", msg.OrderID),
		zap.String("kind", msg.Kind),
		zap.String("idempotency_key", msg.IdempotencyKey),
		zap.String("correlation_id", msg.CorrelationID))
	log.Info("received notification request")

	// Step 1: skip requests the ledger already settled
	entry, err := p.idempStore.Get(ctx, msg.IdempotencyKey)
	if err != nil {
		return fmt.Errorf("failed to read idempotency record: %w", err)
	}
	if entry == nil {
		// the ledger TTL ran out while the message was queued
		log.Warn("idempotency record missing, dropping stale request")
		p.count(ctx, msg.Kind, outcomeExpired)
		return nil
	}
	if entry.Status != idempotency.StatusInProgress {
		log.Info("notification already settled", zap.String("status", entry.Status))
		p.count(ctx, msg.Kind, outcomeDuplicate)
		return nil
	}

	kind, err := mailmodel.ParseKind(msg.Kind)
	if err != nil {
		return p.fail(ctx, log, msg, err)
	}

	// Step 2: load the order and the trade items being notified about
	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		return p.fail(ctx, log, msg, apperr.InvalidArgument("order %s not found", msg.OrderID))
	}
	tradeItems, err := order.SelectTradeItems(msg.TradeItemIDs)
	if err != nil {
		return p.fail(ctx, log, msg, apperr.InvalidArgument("%v", err))
	}

	// Step 3: build the template model
	data, err := p.builder.Build(kind, order, tradeItems)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidArgument) {
			return p.fail(ctx, log, msg, err)
		}
		return fmt.Errorf("failed to build model: %w", err)
	}

	// Step 4: hand it to the mail queue
	mail := MailMessage{
		NotificationID: msg.NotificationID,
		Kind:           msg.Kind,
		OrderID:        msg.OrderID,
		CorrelationID:  msg.CorrelationID,
		Model:          data,
	}
	attrs := map[string]string{
		"kind":            msg.Kind,
		"notification_id": msg.NotificationID,
		"correlation_id":  msg.CorrelationID,
	}
	if err := p.mail.SendJSON(ctx, mail, attrs); err != nil {
		return fmt.Errorf("failed to publish mail: %w", err)
	}

	// Step 5: stamp the order; a second notification of the same kind is only logged
	if err := p.orderStore.MarkNotified(ctx, msg.OrderID, msg.Kind); err != nil {
		if !errors.Is(err, orders.ErrAlreadyNotified) {
			return fmt.Errorf("failed to stamp order: %w", err)
		}
		log.Warn("order was already notified for this kind")
	}

	// Step 6: mark idempotency DONE (API created the record)
	response, err := json.Marshal(map[string]string{
		"notification_id": msg.NotificationID,
		"order_id":        msg.OrderID,
		"kind":            msg.Kind,
		"status":          "SENT",
	})
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := p.idempStore.MarkDone(ctx, msg.IdempotencyKey, string(response), 200); err != nil {
		if !errors.Is(err, idempotency.ErrRecordNotFound) {
			return fmt.Errorf("failed to update idempotency: %w", err)
		}
		log.Warn("idempotency record expired before completion")
	}

	p.count(ctx, msg.Kind, outcomeSent)
	log.Info("notification sent", zap.String("notification_id", msg.NotificationID))
	return nil
}

// fail records a request that can never succeed and acknowledges the message.
func (p *Processor) fail(ctx context.Context, log *zap.Logger, msg WorkerMessage, cause error) error {
	log.Warn("notification request rejected", zap.Error(cause))
	if err := p.idempStore.MarkFailed(ctx, msg.IdempotencyKey, cause.Error()); err != nil && !errors.Is(err, idempotency.ErrRecordNotFound) {
		return fmt.Errorf("failed to mark idempotency failed: %w", err)
	}
	p.count(ctx, msg.Kind, outcomeFailed)
	return nil
}

func (p *Processor) count(ctx context.Context, kind, outcome string) {
	if err := p.metrics.CountNotification(ctx, kind, outcome); err != nil {
		p.log.Warn("failed to publish metric", zap.String("outcome", outcome), zap.Error(err))
	}
}
