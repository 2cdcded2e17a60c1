package instrument

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewWithProviders(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	ins := NewWithProviders(nil, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	counter, err := ins.Meter(ScopeUsecase).Int64Counter("twofa.authorize.attempts")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, ScopeUsecase, rm.ScopeMetrics[0].Scope.Name)

	_, span := ins.Tracer(ScopeDatabase).Start(context.Background(), "noop")
	span.End()

	require.NoError(t, ins.Shutdown(context.Background()))
}
