package mailmodel

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/apperr"
	"github.com/imrishuroy/go-orderflow-notifications/internal/orders"
)

// CustomerFeedbackSentInput is what the feedback request mail is built from.
type CustomerFeedbackSentInput struct {
	Order *orders.Order `json:"customerFeedback"`
}

// FeedbackPosition is an article line merged by GTIN.
type FeedbackPosition struct {
	GTIN13            string          `json:"gtin13"`
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	SinglePrice       decimal.Decimal `json:"singlePrice"`
	TotalPerItemPrice decimal.Decimal `json:"totalPerItemPrice"`
}

// CustomerFeedbackSentModel is the feedback request view model.
type CustomerFeedbackSentModel struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	Address3    string `json:"address3"`
	Zip         string `json:"zip"`
	City        string `json:"city"`
	State       string `json:"state"`
	CountryName string `json:"countryName"`
	Company     string `json:"company"`

	OrderID             string    `json:"orderId"`
	PlatformOrderID     string    `json:"platformOrderId"`
	OrderDate           time.Time `json:"orderDate"`
	PlatformAccountName string    `json:"platformAccountName"`

	// Positions holds article lines in first-seen order of their GTIN.
	Positions []FeedbackPosition `json:"oip"`
	// TotalCosts grows by one single price per article occurrence.
	TotalCosts    decimal.Decimal `json:"totalCosts"`
	ShippingCosts decimal.Decimal `json:"shippingCosts"`

	platformAccountID string
	resellerID        string
}

// TemplateData returns the model under the template's key names.
func (m *CustomerFeedbackSentModel) TemplateData() TemplateData {
	return TemplateData{
		KeyCustomerFeedback:  m,
		KeyPlatformAccountID: m.platformAccountID,
		KeyResellerID:        m.resellerID,
	}
}

// PlatformAccountID returns the platform account the order belongs to.
func (m *CustomerFeedbackSentModel) PlatformAccountID() string { return m.platformAccountID }

// ResellerID returns the reseller owning the platform account.
func (m *CustomerFeedbackSentModel) ResellerID() string { return m.resellerID }

// CustomerFeedbackSent builds the feedback request model. Shipping positions
// are summed into ShippingCosts; article positions are merged by GTIN.
func (b *Builder) CustomerFeedbackSent(in CustomerFeedbackSentInput) (*CustomerFeedbackSentModel, error) {
	order := in.Order
	if order == nil {
		return nil, apperr.InvalidArgument("customerFeedback is missing")
	}
	if order.DeliveryAddress == nil {
		return nil, apperr.InvalidArgument("order %s has no delivery address", order.ID)
	}
	accountID, resellerID, err := accountIDs(order)
	if err != nil {
		return nil, err
	}

	m := newCustomerFeedbackSent(order)
	m.platformAccountID = accountID
	m.resellerID = resellerID

	for i := range order.Positions {
		p := &order.Positions[i]
		switch p.Type {
		case orders.PositionArticle:
			m.addArticle(p)
		case orders.PositionShipping:
			m.ShippingCosts = m.ShippingCosts.Add(p.PriceGross)
		default:
			b.log.Debug("skipping order position",
				zap.String("order_id", order.ID),
				zap.String("position_id", p.ID),
				zap.String("type", string(p.Type)))
		}
	}
	return m, nil
}

func newCustomerFeedbackSent(order *orders.Order) *CustomerFeedbackSentModel {
	addr := order.DeliveryAddress
	return &CustomerFeedbackSentModel{
		FirstName:           addr.FirstName,
		LastName:            addr.LastName,
		Address1:            addr.Address1,
		Address2:            addr.Address2,
		Address3:            addr.Address3,
		Zip:                 addr.Zip,
		City:                addr.City,
		State:               addr.State,
		CountryName:         addr.CountryName,
		Company:             addr.Company,
		OrderID:             order.ID,
		PlatformOrderID:     order.PlatformOrderID,
		OrderDate:           order.OrderDate,
		PlatformAccountName: order.PlatformAccount.AccountName,
		Positions:           []FeedbackPosition{},
		TotalCosts:          decimal.Zero,
		ShippingCosts:       decimal.Zero,
	}
}

// addArticle merges p into the first position with the same GTIN, or appends it.
// The line total is recomputed as price x quantity; TotalCosts grows by one
// single price per occurrence.
func (m *CustomerFeedbackSentModel) addArticle(p *orders.Position) {
	for i := range m.Positions {
		pos := &m.Positions[i]
		if pos.GTIN13 != p.GTIN13 {
			continue
		}
		pos.Quantity++
		pos.TotalPerItemPrice = pos.SinglePrice.Mul(decimal.NewFromInt(int64(pos.Quantity)))
		m.TotalCosts = m.TotalCosts.Add(pos.SinglePrice)
		return
	}

	m.Positions = append(m.Positions, FeedbackPosition{
		GTIN13:            p.GTIN13,
		Name:              p.Name,
		Quantity:          1,
		SinglePrice:       p.PriceGross,
		TotalPerItemPrice: p.PriceGross,
	})
	m.TotalCosts = m.TotalCosts.Add(p.PriceGross)
}
