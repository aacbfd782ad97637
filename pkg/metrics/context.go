package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type newRelicContextKey struct{}

// NewContext returns a context carrying the New Relic application, so custom
// metrics and events can be recorded by downstream code.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, newRelicContextKey{}, app)
}

// FromContext returns the New Relic application set by NewContext, if any
func FromContext(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(newRelicContextKey{}).(*newrelic.Application)
	return app, ok && app != nil
}
