package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/apperr"
	"github.com/imrishuroy/go-orderflow-notifications/internal/fee"
)

// RegisterFeeRoutes registers the fee allocation endpoint.
func RegisterFeeRoutes(r *gin.Engine, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	r.POST("/fees/allocate", func(c *gin.Context) {
		var in fee.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
			return
		}

		result, err := fee.Allocate(in)
		if err != nil {
			if apperr.IsInvalidArgument(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_argument", "msg": err.Error()})
				return
			}
			log.Error("fee allocation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"shipFeePerUnit":    result.ShipFeePerUnit.StringFixed(2),
			"articleFeePerUnit": result.ArticleFeePerUnit.StringFixed(2),
		})
	})
}
