package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PositionType classifies an order position.
type PositionType string

// Position types
const (
	PositionArticle  PositionType = "ARTICLE"
	PositionShipping PositionType = "SHIPPING"
	PositionDiscount PositionType = "DISCOUNT"
)

// Reseller owns one or more platform accounts.
type Reseller struct {
	ID string `json:"id"`
}

// PlatformAccount is the marketplace account an order was placed through.
type PlatformAccount struct {
	ID          string    `json:"id"`
	AccountName string    `json:"accountName"`
	Reseller    *Reseller `json:"reseller"`
}

// Address is the delivery address of an order.
type Address struct {
	FirstName   string `json:"firstName" dynamodbav:"first_name,omitempty"`
	LastName    string `json:"lastName" dynamodbav:"last_name,omitempty"`
	Address1    string `json:"address1" dynamodbav:"address1,omitempty"`
	Address2    string `json:"address2,omitempty" dynamodbav:"address2,omitempty"`
	Address3    string `json:"address3,omitempty" dynamodbav:"address3,omitempty"`
	Zip         string `json:"zip" dynamodbav:"zip,omitempty"`
	City        string `json:"city" dynamodbav:"city,omitempty"`
	State       string `json:"state,omitempty" dynamodbav:"state,omitempty"`
	CountryName string `json:"countryName" dynamodbav:"country_name,omitempty"`
	Company     string `json:"company,omitempty" dynamodbav:"company,omitempty"`
}

// Position is a single order line: an article or a shipping charge.
type Position struct {
	ID         string          `json:"id" validate:"required"`
	GTIN13     string          `json:"gtin13"`
	Name       string          `json:"name"`
	PriceGross decimal.Decimal `json:"priceGross"`
	Type       PositionType    `json:"type" validate:"required"`
}

// TradeItem is one shipped unit referencing the order position it fulfils.
type TradeItem struct {
	ID            string    `json:"id" validate:"required"`
	PositionID    string    `json:"positionId" validate:"required"`
	OrderPosition *Position `json:"orderPosition,omitempty"`
}

// Order is the aggregate the notification models are built from.
type Order struct {
	ID              string           `json:"id" validate:"required"`
	PlatformOrderID string           `json:"platformOrderId"`
	OrderDate       time.Time        `json:"orderDate"`
	PlatformAccount *PlatformAccount `json:"platformAccount"`
	DeliveryAddress *Address         `json:"deliveryAddress"`
	Positions       []Position       `json:"positions" validate:"dive"`
	TradeItems      []TradeItem      `json:"tradeItems,omitempty" validate:"dive"`
}

// UnknownTradeItemError is returned when a requested trade item is not part of the order.
type UnknownTradeItemError struct {
	OrderID     string
	TradeItemID string
}

func (e *UnknownTradeItemError) Error() string {
	return fmt.Sprintf("trade item %s not found on order %s", e.TradeItemID, e.OrderID)
}

// Position returns the position with the given id, or nil.
func (o *Order) Position(id string) *Position {
	for i := range o.Positions {
		if o.Positions[i].ID == id {
			return &o.Positions[i]
		}
	}
	return nil
}

// ResolveTradeItems points every trade item at its order position.
// Trade items whose position is missing keep a nil OrderPosition.
func (o *Order) ResolveTradeItems() {
	for i := range o.TradeItems {
		o.TradeItems[i].OrderPosition = o.Position(o.TradeItems[i].PositionID)
	}
}

// SelectTradeItems returns the trade items with the given ids, in the requested order.
// An empty id list selects every trade item of the order.
func (o *Order) SelectTradeItems(ids []string) ([]TradeItem, error) {
	if len(ids) == 0 {
		out := make([]TradeItem, len(o.TradeItems))
		copy(out, o.TradeItems)
		return out, nil
	}
	out := make([]TradeItem, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, ti := range o.TradeItems {
			if ti.ID == id {
				out = append(out, ti)
				found = true
				break
			}
		}
		if !found {
			return nil, &UnknownTradeItemError{OrderID: o.ID, TradeItemID: id}
		}
	}
	return out, nil
}
