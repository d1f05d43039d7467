package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/apperr"
	"github.com/imrishuroy/go-orderflow-notifications/internal/aws"
	"github.com/imrishuroy/go-orderflow-notifications/internal/idempotency"
	"github.com/imrishuroy/go-orderflow-notifications/internal/mailmodel"
	"github.com/imrishuroy/go-orderflow-notifications/internal/orders"
	"github.com/imrishuroy/go-orderflow-notifications/internal/validation"
)

// RegisterNotificationRoutes registers the notification request and preview routes.
func RegisterNotificationRoutes(r *gin.Engine, cfg HandlerConfig) {
	log := cfg.logger()
	v := validation.New()
	idempStore := idempotency.NewStore(cfg.DynamoDBClient, cfg.IdempotencyTable, cfg.TTLWindow)
	ordersStore := orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable)
	publisher := aws.NewPublisher(cfg.SQSClient, cfg.QueueURL)
	builder := mailmodel.NewBuilder(log)

	r.POST("/orders/:order_id/notifications", func(c *gin.Context) {
		ctx := c.Request.Context()
		orderID := c.Param("order_id")

		var req validation.NotificationRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
			return
		}

		order, err := ordersStore.Get(ctx, orderID)
		if err != nil {
			log.Error("load order failed", zap.String("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order_lookup_failed"})
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found", "order_id": orderID})
			return
		}
		if _, err := order.SelectTradeItems(req.TradeItemIDs); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "trade_item_not_found", "detail": err.Error()})
			return
		}

		notificationID := uuid.NewString()
		claim := idempotency.Request{
			OrderID:        orderID,
			Kind:           req.Kind,
			NotificationID: notificationID,
			TradeItemIDs:   req.TradeItemIDs,
		}
		created, err := idempStore.Claim(ctx, idempKey, claim)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
			return
		}
		if !created {
			replayIdempotent(c, idempStore, idempKey, claim)
			return
		}

		msg := map[string]interface{}{
			"order_id":        orderID,
			"kind":            req.Kind,
			"idempotency_key": idempKey,
			"notification_id": notificationID,
			"correlation_id":  c.GetHeader("X-Request-Id"),
		}
		if len(req.TradeItemIDs) > 0 {
			msg["trade_item_ids"] = req.TradeItemIDs
		}
		attrs := map[string]string{
			"idempotency_key": idempKey,
			"order_id":        orderID,
			"kind":            req.Kind,
			"correlation_id":  c.GetHeader("X-Request-Id"),
		}

		if err := publisher.SendJSON(ctx, msg, attrs); err != nil {
			// mark the key failed so the client can retry with a new one
			_ = idempStore.MarkFailed(ctx, idempKey, fmt.Sprintf("sqs_send_failed: %v", err))
			log.Error("enqueue notification failed", zap.String("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
			return
		}

		log.Info("notification queued",
			zap.String("order_id", orderID),
			zap.String("kind", req.Kind),
			zap.String("notification_id", notificationID))
		c.JSON(http.StatusAccepted, gin.H{
			"notification_id": notificationID,
			"order_id":        orderID,
			"kind":            req.Kind,
			"status":          "QUEUED",
		})
	})

	r.GET("/orders/:order_id/notifications/:kind/preview", func(c *gin.Context) {
		ctx := c.Request.Context()
		orderID := c.Param("order_id")

		kind, err := mailmodel.ParseKind(c.Param("kind"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_argument", "msg": err.Error()})
			return
		}

		order, err := ordersStore.Get(ctx, orderID)
		if err != nil {
			log.Error("load order failed", zap.String("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order_lookup_failed"})
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found", "order_id": orderID})
			return
		}

		tradeItems, err := order.SelectTradeItems(splitIDs(c.Query("trade_item_ids")))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "trade_item_not_found", "detail": err.Error()})
			return
		}

		data, err := builder.Build(kind, order, tradeItems)
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidArgument) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_argument", "msg": err.Error()})
				return
			}
			log.Error("build model failed", zap.String("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}
		c.JSON(http.StatusOK, data)
	})
}

// replayIdempotent answers a request whose Idempotency-Key was already claimed.
// The key is bound to order, kind and trade item selection.
func replayIdempotent(c *gin.Context, store *idempotency.Store, key string, req idempotency.Request) {
	rec, err := store.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	}
	if rec == nil {
		// claimed a moment ago but expired or removed since
		c.JSON(http.StatusConflict, gin.H{"error": "idempotency_record_missing"})
		return
	}
	if !req.Matches(rec) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused"})
		return
	}

	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			status := rec.ResponseStatus
			if status == 0 {
				status = http.StatusOK
			}
			c.Data(status, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"notification_id": rec.NotificationID, "status": "SENT"})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "notification_id": rec.NotificationID})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "notification_id": rec.NotificationID, "note": rec.Note})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func splitIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
