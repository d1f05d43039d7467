// Package mailmodel assembles the view models handed to the transactional
// mail templates. Builders are pure: they read the order aggregate, never
// mutate it, and return freshly allocated models.
package mailmodel

import (
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/apperr"
	"github.com/imrishuroy/go-orderflow-notifications/internal/orders"
)

// Kind identifies a notification template.
type Kind string

// Notification kinds
const (
	KindOrderSent            Kind = "order_sent"
	KindCustomerFeedbackSent Kind = "customer_feedback_sent"
)

// Template data keys
const (
	KeyOrder             = "order"
	KeyPositions         = "positions"
	KeyCustomerFeedback  = "customerFeedback"
	KeyPlatformAccountID = "platformAccountId"
	KeyResellerID        = "resellerId"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindOrderSent, KindCustomerFeedbackSent}
}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperr.InvalidArgument("unknown notification kind %q", s)
}

// TemplateData is the flat key/value mapping a mail template renders from.
type TemplateData map[string]interface{}

// Builder builds notification models. It is safe for concurrent use.
type Builder struct {
	log *zap.Logger
}

// NewBuilder returns a Builder logging through log. A nil log discards output.
func NewBuilder(log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log.Named("mailmodel")}
}

// Build dispatches to the typed builder for kind and returns its template data.
// tradeItems is only read for KindOrderSent.
func (b *Builder) Build(kind Kind, order *orders.Order, tradeItems []orders.TradeItem) (TemplateData, error) {
	switch kind {
	case KindOrderSent:
		m, err := b.OrderSent(OrderSentInput{Order: order, TradeItems: tradeItems})
		if err != nil {
			return nil, err
		}
		return m.TemplateData(), nil
	case KindCustomerFeedbackSent:
		m, err := b.CustomerFeedbackSent(CustomerFeedbackSentInput{Order: order})
		if err != nil {
			return nil, err
		}
		return m.TemplateData(), nil
	default:
		return nil, apperr.InvalidArgument("unknown notification kind %q", kind)
	}
}

// accountIDs returns the platform account and reseller ids every template carries.
func accountIDs(order *orders.Order) (string, string, error) {
	if order.PlatformAccount == nil {
		return "", "", apperr.InvalidArgument("order %s has no platform account", order.ID)
	}
	if order.PlatformAccount.Reseller == nil {
		return "", "", apperr.InvalidArgument("platform account %s has no reseller", order.PlatformAccount.ID)
	}
	return order.PlatformAccount.ID, order.PlatformAccount.Reseller.ID, nil
}
