package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// TraceMethodCall starts a segment named after the struct or package and the
// method within the transaction carried by ctx. It returns nil when there is
// no transaction. All MethodTracer methods are safe to call on nil.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn: txn,
		seg: txn.StartSegment(structOrPackageName + " " + methodName),
	}
}

// MethodTracer collects analytics for a given method call within an existing
// trace.
type MethodTracer struct {
	txn   *newrelic.Transaction
	seg   *newrelic.Segment
	ended bool
}

// AddAttribute adds a key-value pair metadata to the method trace
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	t.seg.AddAttribute(key, value)
}

// AddAttributes adds a set of key-value pair metadata to the method trace
func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	for key, value := range attributes {
		t.AddAttribute(key, value)
	}
}

// OnError notices err on the transaction, if there is one
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.seg.AddAttribute("error", true)
	t.txn.NoticeError(err)
}

// End completes the trace for the method call. Subsequent calls are no-ops.
func (t *MethodTracer) End() {
	if t == nil || t.ended {
		return
	}

	t.ended = true
	t.seg.End()
}
