package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics emits order lifecycle counters to CloudWatch. A nil *Metrics is
// valid and drops every datum, so callers never have to branch.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewMetrics returns a Metrics publisher for the given namespace, or nil
// when no client is configured.
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	if client == nil {
		return nil
	}
	return &Metrics{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count publishes a single count datum for name.
func (m *Metrics) Count(ctx context.Context, name string) error {
	if m == nil {
		return nil
	}
	now := m.nowFunc()
	one := float64(1)
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &one,
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  &now,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
