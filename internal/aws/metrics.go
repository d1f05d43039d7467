package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names
const (
	MetricNotifications = "Notifications"
)

// Metrics publishes counters to CloudWatch. A nil *Metrics or one without a
// client is a no-op, which keeps local runs free of AWS calls.
type Metrics struct {
	CW        CloudWatchAPI
	Namespace string
	nowFunc   func() time.Time
}

// NewMetrics returns a Metrics bound to namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{CW: cw, Namespace: namespace, nowFunc: time.Now}
}

// CountNotification records one notification of kind with the given outcome
// (e.g. "sent", "failed", "duplicate").
func (m *Metrics) CountNotification(ctx context.Context, kind, outcome string) error {
	if m == nil || m.CW == nil {
		return nil
	}
	now := time.Now
	if m.nowFunc != nil {
		now = m.nowFunc
	}
	_, err := m.CW.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(MetricNotifications),
				Timestamp:  sdkaws.Time(now()),
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(1),
				Dimensions: []cwtypes.Dimension{
					{Name: sdkaws.String("Kind"), Value: sdkaws.String(kind)},
					{Name: sdkaws.String("Outcome"), Value: sdkaws.String(outcome)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
