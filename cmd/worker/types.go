package main

import "github.com/imrishuroy/go-orderflow-notifications/internal/mailmodel"

// WorkerMessage is the payload sent from API -> SQS -> Worker.
type WorkerMessage struct {
	OrderID        string   `json:"order_id"`
	Kind           string   `json:"kind"`
	IdempotencyKey string   `json:"idempotency_key"`
	NotificationID string   `json:"notification_id"`
	CorrelationID  string   `json:"correlation_id,omitempty"`
	TradeItemIDs   []string `json:"trade_item_ids,omitempty"`
}

// MailMessage is what the worker hands to the mail queue.
type MailMessage struct {
	NotificationID string                 `json:"notification_id"`
	Kind           string                 `json:"kind"`
	OrderID        string                 `json:"order_id"`
	CorrelationID  string                 `json:"correlation_id,omitempty"`
	Model          mailmodel.TemplateData `json:"model"`
}
