package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsDynamo "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-orderflow-notifications/internal/aws"
	"github.com/imrishuroy/go-orderflow-notifications/internal/config"
	"github.com/imrishuroy/go-orderflow-notifications/internal/idempotency"
	"github.com/imrishuroy/go-orderflow-notifications/internal/orders"
)

// --- mock implementations ---

type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		tables: map[string]map[string]map[string]types.AttributeValue{
			"idempotency": {},
			"orders":      {},
		},
	}
}

func keyOf(attrs map[string]types.AttributeValue) string {
	key := attrs["idempotency_key"]
	if key == nil {
		key = attrs["order_id"]
	}
	return key.(*types.AttributeValueMemberS).Value
}

func (m *mockDynamo) PutItem(ctx context.Context, in *awsDynamo.PutItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(in.Item)
	if _, exists := m.tables[*in.TableName][k]; exists && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.tables[*in.TableName][k] = in.Item
	return &awsDynamo.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *awsDynamo.GetItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.tables[*in.TableName][keyOf(in.Key)]
	if !ok {
		return &awsDynamo.GetItemOutput{}, nil
	}
	return &awsDynamo.GetItemOutput{Item: item}, nil
}

// UpdateItem understands the ledger status updates (#s) and the order
// notification stamp (#n).
func (m *mockDynamo) UpdateItem(ctx context.Context, in *awsDynamo.UpdateItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.tables[*in.TableName][keyOf(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if attr, ok := in.ExpressionAttributeNames["#n"]; ok {
		if _, stamped := item[attr]; stamped && strings.Contains(deref(in.ConditionExpression), "attribute_not_exists(#n)") {
			return nil, &types.ConditionalCheckFailedException{}
		}
		item[attr] = in.ExpressionAttributeValues[":ts"]
	}
	for placeholder, attr := range map[string]string{":done": "status", ":failed": "status", ":rb": "response_body", ":rs": "response_status", ":n": "note"} {
		if v, ok := in.ExpressionAttributeValues[placeholder]; ok {
			item[attr] = v
		}
	}
	return &awsDynamo.UpdateItemOutput{Attributes: item}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type mockSQS struct {
	bodies []string
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.bodies = append(m.bodies, *in.MessageBody)
	return &sqs.SendMessageOutput{}, nil
}

type mockCloudWatch struct {
	outcomes []string
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	for _, d := range in.MetricData[0].Dimensions {
		if *d.Name == "Outcome" {
			m.outcomes = append(m.outcomes, *d.Value)
		}
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

// --- helpers ---

type fixture struct {
	dynamo *mockDynamo
	mail   *mockSQS
	cw     *mockCloudWatch
	p      *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dynamo: newMockDynamo(), mail: &mockSQS{}, cw: &mockCloudWatch{}}
	clients := &aws.AWSClients{DynamoDB: f.dynamo, SQS: f.mail, CloudWatch: f.cw}
	cfg := &config.Config{
		OrdersTable:      "orders",
		IdempotencyTable: "idempotency",
		MailQueueURL:     "https://sqs.local/mail",
		IdempotencyTTL:   time.Hour,
		MetricsNamespace: "Test",
	}
	f.p = NewProcessor(clients, cfg, nil)
	return f
}

func (f *fixture) seedOrder(t *testing.T, mutate func(*orders.Order)) {
	t.Helper()
	o := orders.Order{
		ID:              "o1",
		PlatformOrderID: "302-1",
		OrderDate:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		PlatformAccount: &orders.PlatformAccount{ID: "pa-1", AccountName: "shop", Reseller: &orders.Reseller{ID: "rs-1"}},
		DeliveryAddress: &orders.Address{FirstName: "Ada", City: "London"},
		Positions: []orders.Position{
			{ID: "p1", GTIN13: "4006381333931", Name: "Pen", PriceGross: decimal.RequireFromString("2.50"), Type: orders.PositionArticle},
			{ID: "p2", Name: "DHL", PriceGross: decimal.RequireFromString("4.99"), Type: orders.PositionShipping},
		},
		TradeItems: []orders.TradeItem{{ID: "t1", PositionID: "p1"}},
	}
	if mutate != nil {
		mutate(&o)
	}
	require.NoError(t, orders.NewStore(f.dynamo, "orders").Put(context.Background(), o))
}

func (f *fixture) seedLedger(t *testing.T, key, kind, status string) {
	t.Helper()
	rec := idempotency.IdempotencyRecord{
		IdempotencyKey: key,
		Status:         status,
		OrderID:        "o1",
		Kind:           kind,
		NotificationID: "n-" + key,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	item, err := attributevalue.MarshalMap(rec)
	require.NoError(t, err)
	f.dynamo.tables["idempotency"][key] = item
}

func (f *fixture) ledger(t *testing.T, key string) *idempotency.IdempotencyRecord {
	t.Helper()
	rec, err := idempotency.NewStore(f.dynamo, "idempotency", time.Hour).Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func event(t *testing.T, msg WorkerMessage) events.SQSEvent {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m1", Body: string(body)}}}
}

// --- test cases ---

func TestWorkerProcess_OrderSent(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, nil)
	f.seedLedger(t, "k1", "order_sent", idempotency.StatusInProgress)

	err := f.p.Handle(context.Background(), event(t, WorkerMessage{
		OrderID: "o1", Kind: "order_sent", IdempotencyKey: "k1", NotificationID: "n-k1", CorrelationID: "c1",
	}))
	require.NoError(t, err)

	require.Len(t, f.mail.bodies, 1)
	var mail struct {
		NotificationID string                 `json:"notification_id"`
		Kind           string                 `json:"kind"`
		CorrelationID  string                 `json:"correlation_id"`
		Model          map[string]interface{} `json:"model"`
	}
	require.NoError(t, json.Unmarshal([]byte(f.mail.bodies[0]), &mail))
	require.Equal(t, "n-k1", mail.NotificationID)
	require.Equal(t, "c1", mail.CorrelationID)
	require.Equal(t, "pa-1", mail.Model["platformAccountId"])
	require.Equal(t, "rs-1", mail.Model["resellerId"])
	require.Len(t, mail.Model["positions"], 1)

	rec := f.ledger(t, "k1")
	require.Equal(t, idempotency.StatusDone, rec.Status)
	require.Equal(t, 200, rec.ResponseStatus)
	require.Contains(t, rec.ResponseBody, `"status":"SENT"`)

	require.Contains(t, f.dynamo.tables["orders"]["o1"], orders.NotifiedAttribute("order_sent"))
	require.Equal(t, []string{outcomeSent}, f.cw.outcomes)
}

func TestWorkerProcess_CustomerFeedbackSent(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, nil)
	f.seedLedger(t, "k1", "customer_feedback_sent", idempotency.StatusInProgress)

	err := f.p.Handle(context.Background(), event(t, WorkerMessage{
		OrderID: "o1", Kind: "customer_feedback_sent", IdempotencyKey: "k1", NotificationID: "n-k1",
	}))
	require.NoError(t, err)
	require.Len(t, f.mail.bodies, 1)

	var mail MailMessage
	require.NoError(t, json.Unmarshal([]byte(f.mail.bodies[0]), &mail))
	feedback := mail.Model["customerFeedback"].(map[string]interface{})
	require.Equal(t, "Ada", feedback["firstName"])
	require.True(t, decimal.RequireFromString(feedback["shippingCosts"].(string)).Equal(decimal.RequireFromString("4.99")))
}

func TestWorkerProcess_SkipsSettledRequest(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, nil)
	f.seedLedger(t, "k1", "order_sent", idempotency.StatusDone)

	err := f.p.Handle(context.Background(), event(t, WorkerMessage{OrderID: "o1", Kind: "order_sent", IdempotencyKey: "k1"}))
	require.NoError(t, err)
	require.Empty(t, f.mail.bodies)
	require.Equal(t, []string{outcomeDuplicate}, f.cw.outcomes)
}

func TestWorkerProcess_PermanentFailures(t *testing.T) {
	cases := map[string]struct {
		mutate func(*orders.Order)
		msg    WorkerMessage
	}{
		"missing reseller": {
			mutate: func(o *orders.Order) { o.PlatformAccount.Reseller = nil },
			msg:    WorkerMessage{OrderID: "o1", Kind: "order_sent", IdempotencyKey: "k1"},
		},
		"unknown order": {
			msg: WorkerMessage{OrderID: "o9", Kind: "order_sent", IdempotencyKey: "k1"},
		},
		"unknown trade item": {
			msg: WorkerMessage{OrderID: "o1", Kind: "order_sent", IdempotencyKey: "k1", TradeItemIDs: []string{"t9"}},
		},
		"unknown kind": {
			msg: WorkerMessage{OrderID: "o1", Kind: "invoice", IdempotencyKey: "k1"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.seedOrder(t, tc.mutate)
			f.seedLedger(t, "k1", tc.msg.Kind, idempotency.StatusInProgress)

			require.NoError(t, f.p.Handle(context.Background(), event(t, tc.msg)))
			require.Empty(t, f.mail.bodies)

			rec := f.ledger(t, "k1")
			require.Equal(t, idempotency.StatusFailed, rec.Status)
			require.NotEmpty(t, rec.Note)
			require.Equal(t, []string{outcomeFailed}, f.cw.outcomes)
		})
	}
}

func TestWorkerProcess_MailFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, nil)
	f.seedLedger(t, "k1", "order_sent", idempotency.StatusInProgress)
	f.mail.err = errors.New("throttled")

	err := f.p.Handle(context.Background(), event(t, WorkerMessage{OrderID: "o1", Kind: "order_sent", IdempotencyKey: "k1"}))
	require.ErrorContains(t, err, "throttled")
	require.Equal(t, idempotency.StatusInProgress, f.ledger(t, "k1").Status)
	require.NotContains(t, f.dynamo.tables["orders"]["o1"], orders.NotifiedAttribute("order_sent"))
}

func TestWorkerProcess_AlreadyNotifiedOrder(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, nil)
	require.NoError(t, orders.NewStore(f.dynamo, "orders").MarkNotified(context.Background(), "o1", "order_sent"))
	f.seedLedger(t, "k2", "order_sent", idempotency.StatusInProgress)

	err := f.p.Handle(context.Background(), event(t, WorkerMessage{OrderID: "o1", Kind: "order_sent", IdempotencyKey: "k2"}))
	require.NoError(t, err)
	require.Len(t, f.mail.bodies, 1)
	require.Equal(t, idempotency.StatusDone, f.ledger(t, "k2").Status)
}

func TestWorkerProcess_InvalidBody(t *testing.T) {
	f := newFixture(t)
	err := f.p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{{Body: "{"}}})
	require.ErrorContains(t, err, "invalid message body")
}

func TestWorkerProcess_ExpiredLedgerEntry(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, nil)

	err := f.p.Handle(context.Background(), event(t, WorkerMessage{OrderID: "o1", Kind: "order_sent", IdempotencyKey: "gone"}))
	require.NoError(t, err)
	require.Empty(t, f.mail.bodies)
	require.NotContains(t, f.dynamo.tables["idempotency"], "gone")
	require.NotContains(t, f.dynamo.tables["orders"]["o1"], orders.NotifiedAttribute("order_sent"))
	require.Equal(t, []string{outcomeExpired}, f.cw.outcomes)
}
