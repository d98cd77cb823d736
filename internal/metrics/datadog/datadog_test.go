package datadog

import (
	"reflect"
	"testing"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if b, err := NewBackend(Config{}); err == nil || b != nil {
		t.Fatalf("NewBackend(Config{}) = %v, %v, want nil backend and error", b, err)
	}

	// UDP is connectionless, so no agent needs to be listening.
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Tags: []string{"service:iowa-liquor-etl"}})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	defer b.Flush()

	b.IncCounter("etl_rows_total", 50000, metrics.Labels{"stage": "extract", "kind": "raw"})
	b.ObserveHistogram("etl_stage_duration_seconds", 1.5, metrics.Labels{"stage": "load", "status": "success"})
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		labels metrics.Labels
		want   []string
	}{
		{name: "nil labels", labels: nil, want: nil},
		{name: "empty labels", labels: metrics.Labels{}, want: nil},
		{
			name:   "tags come out sorted",
			labels: metrics.Labels{"status": "success", "stage": "extract"},
			want:   []string{"stage:extract", "status:success"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := labelsToTags(tt.labels); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("labelsToTags(%v) = %v, want %v", tt.labels, got, tt.want)
			}
		})
	}
}
