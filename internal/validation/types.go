package validation

// NotificationRequest is the payload for POST /orders/:order_id/notifications.
type NotificationRequest struct {
	Kind         string   `json:"kind" validate:"required,oneof=order_sent customer_feedback_sent"`
	TradeItemIDs []string `json:"trade_item_ids,omitempty" validate:"omitempty,dive,required"` // order_sent only; empty = all trade items
}
