package cache

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope used when no meter is supplied.
const meterName = "github.com/dshills/tagsource/internal/tagger/cache"

// metrics records cache activity.
type metrics struct {
	hits            metric.Int64Counter
	misses          metric.Int64Counter
	constructErrors metric.Int64Counter
	disposals       metric.Int64Counter
	live            metric.Int64UpDownCounter
}

// newMetrics creates the cache instruments on meter.
func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	hits, err := meter.Int64Counter(
		"tagger.cache.hits",
		metric.WithDescription("Source lookups served from the cache"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"tagger.cache.misses",
		metric.WithDescription("Source lookups that ran a constructor"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	constructErrors, err := meter.Int64Counter(
		"tagger.cache.construct_errors",
		metric.WithDescription("Source constructors that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	disposals, err := meter.Int64Counter(
		"tagger.cache.disposals",
		metric.WithDescription("Sources disposed by the cache"),
		metric.WithUnit("{source}"),
	)
	if err != nil {
		return nil, err
	}

	live, err := meter.Int64UpDownCounter(
		"tagger.cache.live",
		metric.WithDescription("Sources currently held by the cache"),
		metric.WithUnit("{source}"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		hits:            hits,
		misses:          misses,
		constructErrors: constructErrors,
		disposals:       disposals,
		live:            live,
	}, nil
}

func keyAttr(key *Key) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("feature.key", key.Name()))
}

func (m *metrics) hit(key *Key) {
	m.hits.Add(context.Background(), 1, keyAttr(key))
}

func (m *metrics) miss(key *Key) {
	m.misses.Add(context.Background(), 1, keyAttr(key))
}

func (m *metrics) constructFailed(key *Key) {
	m.constructErrors.Add(context.Background(), 1, keyAttr(key))
}

func (m *metrics) stored(key *Key) {
	m.live.Add(context.Background(), 1, keyAttr(key))
}

func (m *metrics) disposed(key *Key) {
	ctx := context.Background()
	opt := keyAttr(key)
	m.disposals.Add(ctx, 1, opt)
	m.live.Add(ctx, -1, opt)
}
