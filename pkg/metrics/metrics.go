package metrics

import (
	"context"
	"time"
)

// Custom events and metrics are reported to the newrelic application carried
// by ctx. They are dropped when there is none, which is the case in tests.

// RecordEvent records a custom event, such as a purchase or claim
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	if app, ok := FromContext(ctx); ok {
		app.RecordCustomEvent(eventName, attributes)
	}
}

// RecordCount records a count metric
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app, ok := FromContext(ctx); ok {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric in milliseconds
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app, ok := FromContext(ctx); ok {
		app.RecordCustomMetric(metricName, float64(duration.Milliseconds()))
	}
}
