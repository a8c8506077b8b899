package telemetry

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/require"
)

func TestOtlpProtocol(t *testing.T) {
	cases := []struct {
		name     string
		config   OtlpConnConfig
		protocol exportProtocol
		endpoint string
	}{
		{name: "disabled", config: OtlpConnConfig{}, protocol: protocolNone},
		{
			name:     "grpc",
			config:   OtlpConnConfig{GrpcEndpoint: "http://127.0.0.1:4317"},
			protocol: protocolGrpc,
			endpoint: "http://127.0.0.1:4317",
		},
		{
			name:     "http",
			config:   OtlpConnConfig{HttpEndpoint: "http://127.0.0.1:4318"},
			protocol: protocolHttp,
			endpoint: "http://127.0.0.1:4318",
		},
		{
			name: "grpc wins",
			config: OtlpConnConfig{
				GrpcEndpoint: "http://127.0.0.1:4317",
				HttpEndpoint: "http://127.0.0.1:4318",
			},
			protocol: protocolGrpc,
			endpoint: "http://127.0.0.1:4317",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.protocol, tc.config.protocol())
			require.Equal(t, tc.endpoint, tc.config.endpoint())
		})
	}
}

func TestProvidersDisabledWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	r, err := newResource("test")
	require.NoError(t, err)

	traces, err := newTraceProvider(ctx, r, OtlpConnConfig{})
	require.NoError(t, err)
	require.Nil(t, traces)

	metrics, err := newMetricProvider(ctx, r, OtlpConnConfig{})
	require.NoError(t, err)
	require.Nil(t, metrics)

	require.NoError(t, Telemetry{}.Shutdown(ctx))
}

func TestProvidersWithHttpEndpoint(t *testing.T) {
	ctx := context.Background()
	r, err := newResource("test")
	require.NoError(t, err)

	// exporters connect lazily, nothing has to listen on the endpoint
	config := OtlpConnConfig{
		HttpEndpoint: "http://127.0.0.1:4318",
		Headers:      map[string]string{"x-api-key": "secret"},
	}
	traces, err := newTraceProvider(ctx, r, config)
	require.NoError(t, err)
	require.NotNil(t, traces)

	metrics, err := newMetricProvider(ctx, r, config)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	// the flush may fail since no collector runs
	Telemetry{TracerProvider: traces, MeterProvider: metrics}.Shutdown(shutdownCtx)
}

func TestSamplePerfStats(t *testing.T) {
	ctx := context.Background()

	sample := samplePerfStats(ctx, nil)
	require.Positive(t, sample.Goroutines)
	require.GreaterOrEqual(t, sample.AllocatedMb, int64(0))
	require.Equal(t, int64(-1), sample.RssMb)

	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		t.Skipf("process stats unavailable: %v", err)
	}
	sample = samplePerfStats(ctx, self)
	require.GreaterOrEqual(t, sample.RssMb, int64(0))
}
