// Package datadog implements a DogStatsD backend for the metrics package.
//
// Labels become Datadog tags in the "key:value" form and counters and
// histograms are forwarded to a local or remote agent over the statsd
// protocol. The rest of the pipeline depends only on metrics.Backend, so
// swapping between this backend and the Pushgateway one is a wiring change
// in cmd/etl.
package datadog

import (
	"fmt"
	"sort"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics"
)

// Config holds the DogStatsD connection settings.
type Config struct {
	// Addr is the agent address, e.g. "127.0.0.1:8125" or
	// "unix:///var/run/datadog/dsd.socket".
	Addr string

	// Tags are applied to every metric, e.g. "service:iowa-liquor-etl".
	Tags []string
}

// Backend sends pipeline metrics to a DogStatsD agent.
type Backend struct {
	client *statsd.Client
}

// NewBackend connects a statsd client to cfg.Addr. Delivery is fire and
// forget; a missing agent surfaces here only for unusable addresses.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: agent address is required")
	}

	opts := []statsd.Option{}
	if len(cfg.Tags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.Tags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter implements metrics.Backend. Fractional deltas are truncated;
// the pipeline only ever reports whole rows and chunks.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	b.client.Count(name, int64(delta), labelsToTags(labels), 1)
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	b.client.Histogram(name, value, labelsToTags(labels), 1)
}

// Flush drains the client's buffer so short runs do not lose their tail.
func (b *Backend) Flush() error {
	return b.client.Flush()
}

// labelsToTags renders labels as sorted "key:value" tags.
func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	tags := make([]string, 0, len(lbls))
	for k, v := range lbls {
		tags = append(tags, k+":"+v)
	}
	sort.Strings(tags)
	return tags
}
