package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetricsClient_Record(t *testing.T) {
	fake := &fakeCloudWatch{}
	m := &MetricsClient{client: fake, namespace: "PricingService"}
	ctx := context.Background()

	require.NoError(t, m.RecordCount(ctx, MetricHTTPRequests, map[string]string{"Status": "2xx"}))
	require.NoError(t, m.RecordLatency(ctx, MetricHTTPLatency, 1500*time.Millisecond, nil))
	require.Len(t, fake.inputs, 2)

	count := fake.inputs[0]
	assert.Equal(t, "PricingService", *count.Namespace)
	require.Len(t, count.MetricData, 1)
	assert.Equal(t, MetricHTTPRequests, *count.MetricData[0].MetricName)
	assert.Equal(t, float64(1), *count.MetricData[0].Value)
	assert.Equal(t, types.StandardUnitCount, count.MetricData[0].Unit)
	require.Len(t, count.MetricData[0].Dimensions, 1)
	assert.Equal(t, "Status", *count.MetricData[0].Dimensions[0].Name)

	latency := fake.inputs[1].MetricData[0]
	assert.Equal(t, float64(1500), *latency.Value)
	assert.Equal(t, types.StandardUnitMilliseconds, latency.Unit)
}

func TestMetricsClient_Error(t *testing.T) {
	m := &MetricsClient{client: &fakeCloudWatch{err: errors.New("throttled")}, namespace: "PricingService"}
	assert.ErrorContains(t, m.RecordCount(context.Background(), MetricHTTPRequests, nil), "throttled")
}
