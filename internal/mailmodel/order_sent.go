package mailmodel

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/apperr"
	"github.com/imrishuroy/go-orderflow-notifications/internal/orders"
)

// OrderSentInput is what the order-sent template is built from.
// TradeItems must be non-nil; an empty slice is allowed.
type OrderSentInput struct {
	Order      *orders.Order      `json:"order"`
	TradeItems []orders.TradeItem `json:"tradeItems"`
}

// PositionSentModel is one shipped line of the order-sent mail.
type PositionSentModel struct {
	GTIN13      string          `json:"gtin13"`
	Name        string          `json:"name"`
	SinglePrice decimal.Decimal `json:"singlePrice"`
	Quantity    int             `json:"quantity"`
}

// OrderSentModel is the order-sent view model.
type OrderSentModel struct {
	// Order describes the first shipped position; nil when nothing was shipped.
	Order             *PositionSentModel
	Positions         []PositionSentModel
	PlatformAccountID string
	ResellerID        string
}

// TemplateData returns the model under the template's key names.
func (m *OrderSentModel) TemplateData() TemplateData {
	return TemplateData{
		KeyOrder:             m.Order,
		KeyPositions:         m.Positions,
		KeyPlatformAccountID: m.PlatformAccountID,
		KeyResellerID:        m.ResellerID,
	}
}

// OrderSent builds the order-sent model. Every trade item becomes its own
// position with quantity 1; repeated GTINs are not merged.
func (b *Builder) OrderSent(in OrderSentInput) (*OrderSentModel, error) {
	if in.Order == nil || in.TradeItems == nil {
		return nil, apperr.InvalidArgument("parameters are missing: 'order' and 'tradeItems' must be provided")
	}
	accountID, resellerID, err := accountIDs(in.Order)
	if err != nil {
		return nil, err
	}

	positions := make([]PositionSentModel, 0, len(in.TradeItems))
	for _, ti := range in.TradeItems {
		if ti.OrderPosition == nil {
			return nil, apperr.InvalidArgument("trade item %s has no order position", ti.ID)
		}
		positions = append(positions, newPositionSent(ti.OrderPosition))
	}

	m := &OrderSentModel{
		Positions:         positions,
		PlatformAccountID: accountID,
		ResellerID:        resellerID,
	}
	if len(positions) == 0 {
		b.log.Warn("no trade items provided to create order model", zap.String("order_id", in.Order.ID))
		return m, nil
	}
	first := positions[0]
	m.Order = &first
	return m, nil
}

func newPositionSent(p *orders.Position) PositionSentModel {
	return PositionSentModel{
		GTIN13:      p.GTIN13,
		Name:        p.Name,
		SinglePrice: p.PriceGross,
		Quantity:    1,
	}
}
