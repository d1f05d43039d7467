package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-orderflow-notifications/internal/orders"
)

// New returns a configured validator with the struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(notificationStructValidation, NotificationRequest{})
	v.RegisterStructValidation(positionStructValidation, orders.Position{})
	v.RegisterStructValidation(orderStructValidation, orders.Order{})

	return v
}

// notificationStructValidation rejects trade item ids on kinds that ignore them.
func notificationStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(NotificationRequest)
	if req.Kind != "order_sent" && len(req.TradeItemIDs) > 0 {
		sl.ReportError(req.TradeItemIDs, "trade_item_ids", "TradeItemIDs", "order_sent_only", req.Kind)
	}
}

// positionStructValidation requires a GTIN on articles and a non-negative gross
// price on articles and shipping.
func positionStructValidation(sl validatorv10.StructLevel) {
	p := sl.Current().Interface().(orders.Position)
	switch p.Type {
	case orders.PositionArticle:
		if p.GTIN13 == "" {
			sl.ReportError(p.GTIN13, "gtin13", "GTIN13", "required_for_article", "")
		}
		if p.PriceGross.IsNegative() {
			sl.ReportError(p.PriceGross, "priceGross", "PriceGross", "gte_zero", p.PriceGross.String())
		}
	case orders.PositionShipping:
		if p.PriceGross.IsNegative() {
			sl.ReportError(p.PriceGross, "priceGross", "PriceGross", "gte_zero", p.PriceGross.String())
		}
	}
}

// orderStructValidation verifies every trade item references a position of the
// order and that position ids are unique.
func orderStructValidation(sl validatorv10.StructLevel) {
	o := sl.Current().Interface().(orders.Order)

	seen := make(map[string]bool, len(o.Positions))
	for i, p := range o.Positions {
		if seen[p.ID] {
			sl.ReportError(p.ID, fmt.Sprintf("positions[%d].id", i), "ID", "unique", p.ID)
		}
		seen[p.ID] = true
	}
	for i, ti := range o.TradeItems {
		if ti.PositionID != "" && !seen[ti.PositionID] {
			sl.ReportError(ti.PositionID, fmt.Sprintf("tradeItems[%d].positionId", i), "PositionID", "known_position", ti.PositionID)
		}
	}
}
