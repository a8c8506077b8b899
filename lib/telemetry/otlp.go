package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	exportTimeout  = time.Second * 3
	metricInterval = time.Second * 15
)

// OtlpConnConfig configures the exporter of one signal. The grpc endpoint
// wins when both are set, a signal with neither is not exported.
type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

type exportProtocol string

const (
	protocolNone exportProtocol = ""
	protocolGrpc exportProtocol = "grpc"
	protocolHttp exportProtocol = "http"
)

func (c OtlpConnConfig) protocol() exportProtocol {
	switch {
	case c.GrpcEndpoint != "":
		return protocolGrpc
	case c.HttpEndpoint != "":
		return protocolHttp
	}
	return protocolNone
}

func (c OtlpConnConfig) endpoint() string {
	if c.protocol() == protocolGrpc {
		return c.GrpcEndpoint
	}
	return c.HttpEndpoint
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

// newTraceProvider returns nil when traces are not exported.
func newTraceProvider(ctx context.Context, r *resource.Resource, c OtlpConnConfig) (*trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	var exporter trace.SpanExporter
	var err error
	switch c.protocol() {
	case protocolNone:
		slog.Info("traces are not exported")
		return nil, nil
	case protocolGrpc:
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(c.GrpcEndpoint),
			otlptracegrpc.WithHeaders(c.Headers),
		)
	case protocolHttp:
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(c.HttpEndpoint),
			otlptracehttp.WithHeaders(c.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info(
		"trace exporter initialized",
		"type", c.protocol(),
		"endpoint", c.endpoint(),
		"headers", len(c.Headers) > 0,
	)

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

// newMetricProvider returns nil when metrics are not exported.
func newMetricProvider(ctx context.Context, r *resource.Resource, c OtlpConnConfig) (*metric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	var exporter metric.Exporter
	var err error
	switch c.protocol() {
	case protocolNone:
		slog.Info("metrics are not exported")
		return nil, nil
	case protocolGrpc:
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(c.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
		)
	case protocolHttp:
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(c.HttpEndpoint),
			otlpmetrichttp.WithHeaders(c.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info(
		"metric exporter initialized",
		"type", c.protocol(),
		"endpoint", c.endpoint(),
		"headers", len(c.Headers) > 0,
	)

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(metricInterval))),
		metric.WithResource(r),
	), nil
}
