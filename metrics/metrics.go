package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the instruments recorded by the HTTP layer.
// A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequests metric.Int64Counter
	HTTPDuration metric.Float64Histogram
	PostViews    metric.Int64Counter
	PostLikes    metric.Int64Counter
	PostWrites   metric.Int64Counter

	provider *sdkmetric.MeterProvider
}

// Setup registers a Prometheus exporter and returns the instruments together
// with the handler serving /metrics.
func Setup(serviceName string) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	m := &Metrics{provider: provider}

	m.HTTPRequests, err = meter.Int64Counter(
		"portal_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"portal_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PostViews, err = meter.Int64Counter(
		"portal_post_views_total",
		metric.WithDescription("Total number of post detail views"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PostLikes, err = meter.Int64Counter(
		"portal_post_likes_total",
		metric.WithDescription("Total number of post likes"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PostWrites, err = meter.Int64Counter(
		"portal_post_writes_total",
		metric.WithDescription("Post create, update and delete operations"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequests.Add(ctx, 1, attrs)
	m.HTTPDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordView counts one post detail view.
func (m *Metrics) RecordView(ctx context.Context) {
	if m == nil {
		return
	}
	m.PostViews.Add(ctx, 1)
}

// RecordLike counts one like.
func (m *Metrics) RecordLike(ctx context.Context) {
	if m == nil {
		return
	}
	m.PostLikes.Add(ctx, 1)
}

// RecordWrite counts a post mutation; op is create, update or delete.
func (m *Metrics) RecordWrite(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.PostWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
