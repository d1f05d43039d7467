package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-orderflow-notifications/internal/aws"
)

var (
	// ErrOrderExists is returned by Put when the order id is already stored.
	ErrOrderExists = errors.New("order already exists")
	// ErrAlreadyNotified is returned by MarkNotified when the order is missing
	// or already carries a timestamp for that notification kind.
	ErrAlreadyNotified = errors.New("order already notified/conditional failed")
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Put stores a new order. Prices are persisted as decimal strings so they
// round-trip exactly.
func (s *Store) Put(ctx context.Context, order Order) error {
	now := s.nowFunc().UTC()
	rec := toRecord(order)
	rec.CreatedAt = now
	rec.UpdatedAt = now

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrOrderExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Get fetches an order by order_id with its trade items resolved.
// Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	key := map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	o, err := rec.toOrder()
	if err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return o, nil
}

// MarkNotified stamps notified_<kind>_at on the order, once per kind.
func (s *Store) MarkNotified(ctx context.Context, orderID, kind string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #n = :ts, updated_at = :ua"),
		ConditionExpression:      awsString("attribute_exists(order_id) AND attribute_not_exists(#n)"),
		ExpressionAttributeNames: map[string]string{"#n": NotifiedAttribute(kind)},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ts": &types.AttributeValueMemberS{Value: now},
			":ua": &types.AttributeValueMemberS{Value: now},
		},
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return ErrAlreadyNotified
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// NotifiedAttribute is the order attribute recording when a notification kind went out.
func NotifiedAttribute(kind string) string {
	return "notified_" + kind + "_at"
}

func awsString(s string) *string { return &s }

// orderRecord is the item stored in the orders table.
type orderRecord struct {
	OrderID             string            `dynamodbav:"order_id"` // PK
	PlatformOrderID     string            `dynamodbav:"platform_order_id,omitempty"`
	OrderDate           time.Time         `dynamodbav:"order_date"`
	PlatformAccountID   string            `dynamodbav:"platform_account_id,omitempty"`
	PlatformAccountName string            `dynamodbav:"platform_account_name,omitempty"`
	ResellerID          string            `dynamodbav:"reseller_id,omitempty"`
	DeliveryAddress     *Address          `dynamodbav:"delivery_address,omitempty"`
	Positions           []positionRecord  `dynamodbav:"positions"`
	TradeItems          []tradeItemRecord `dynamodbav:"trade_items,omitempty"`
	CreatedAt           time.Time         `dynamodbav:"created_at"`
	UpdatedAt           time.Time         `dynamodbav:"updated_at"`
}

type positionRecord struct {
	ID         string `dynamodbav:"id"`
	GTIN13     string `dynamodbav:"gtin13"`
	Name       string `dynamodbav:"name"`
	PriceGross string `dynamodbav:"price_gross"` // decimal string
	Type       string `dynamodbav:"type"`
}

type tradeItemRecord struct {
	ID         string `dynamodbav:"id"`
	PositionID string `dynamodbav:"position_id"`
}

func toRecord(o Order) orderRecord {
	rec := orderRecord{
		OrderID:         o.ID,
		PlatformOrderID: o.PlatformOrderID,
		OrderDate:       o.OrderDate,
		DeliveryAddress: o.DeliveryAddress,
		Positions:       make([]positionRecord, 0, len(o.Positions)),
	}
	if pa := o.PlatformAccount; pa != nil {
		rec.PlatformAccountID = pa.ID
		rec.PlatformAccountName = pa.AccountName
		if pa.Reseller != nil {
			rec.ResellerID = pa.Reseller.ID
		}
	}
	for _, p := range o.Positions {
		rec.Positions = append(rec.Positions, positionRecord{
			ID:         p.ID,
			GTIN13:     p.GTIN13,
			Name:       p.Name,
			PriceGross: p.PriceGross.String(),
			Type:       string(p.Type),
		})
	}
	for _, ti := range o.TradeItems {
		rec.TradeItems = append(rec.TradeItems, tradeItemRecord{ID: ti.ID, PositionID: ti.PositionID})
	}
	return rec
}

func (r orderRecord) toOrder() (*Order, error) {
	o := &Order{
		ID:              r.OrderID,
		PlatformOrderID: r.PlatformOrderID,
		OrderDate:       r.OrderDate,
		DeliveryAddress: r.DeliveryAddress,
		Positions:       make([]Position, 0, len(r.Positions)),
		TradeItems:      make([]TradeItem, 0, len(r.TradeItems)),
	}
	if r.PlatformAccountID != "" {
		o.PlatformAccount = &PlatformAccount{ID: r.PlatformAccountID, AccountName: r.PlatformAccountName}
		if r.ResellerID != "" {
			o.PlatformAccount.Reseller = &Reseller{ID: r.ResellerID}
		}
	}
	for _, p := range r.Positions {
		price, err := decimal.NewFromString(p.PriceGross)
		if err != nil {
			return nil, fmt.Errorf("position %s price %q: %w", p.ID, p.PriceGross, err)
		}
		o.Positions = append(o.Positions, Position{
			ID:         p.ID,
			GTIN13:     p.GTIN13,
			Name:       p.Name,
			PriceGross: price,
			Type:       PositionType(p.Type),
		})
	}
	for _, ti := range r.TradeItems {
		o.TradeItems = append(o.TradeItems, TradeItem{ID: ti.ID, PositionID: ti.PositionID})
	}
	o.ResolveTradeItems()
	return o, nil
}
