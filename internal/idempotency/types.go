package idempotency

import (
	"slices"
	"time"
)

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// IdempotencyRecord is the shape persisted in the idempotency DynamoDB table.
// One record exists per Idempotency-Key a notification was requested with.
type IdempotencyRecord struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Status         string    `dynamodbav:"status"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	Kind           string    `dynamodbav:"kind,omitempty"`            // notification kind
	NotificationID string    `dynamodbav:"notification_id,omitempty"` // id handed to the mail queue
	TradeItemIDs   []string  `dynamodbav:"trade_item_ids,omitempty"`  // requested subset; empty = all
	ResponseBody   string    `dynamodbav:"response_body,omitempty"`   // small responses only
	ResponseStatus int       `dynamodbav:"response_status,omitempty"` // e.g., 202
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// Request identifies the notification an idempotency key was claimed for.
type Request struct {
	OrderID        string
	Kind           string
	NotificationID string
	TradeItemIDs   []string
}

// Matches reports whether rec was claimed for the same notification as r.
// NotificationID is generated per claim and is not compared.
func (r Request) Matches(rec *IdempotencyRecord) bool {
	return rec.OrderID == r.OrderID &&
		rec.Kind == r.Kind &&
		slices.Equal(rec.TradeItemIDs, r.TradeItemIDs)
}
