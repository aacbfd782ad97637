package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// CustomNewRelicContextLogFormatter is a logrus.Formatter that forwards every
// log to New Relic, including all logrus.Entry.Fields, which the stock nrlogrus
// integration drops. Logs written with a context carrying a transaction are
// linked to it.
//
// Based off of: https://github.com/newrelic/go-agent/blob/f1942e10f0819e2c854d5d7289eb0dc1c52a00af/v3/integrations/logcontext-v2/nrlogrus/formatter.go
type CustomNewRelicContextLogFormatter struct {
	app       *newrelic.Application
	formatter logrus.Formatter
}

func NewCustomNewRelicLogFormatter(app *newrelic.Application, formatter logrus.Formatter) CustomNewRelicContextLogFormatter {
	return CustomNewRelicContextLogFormatter{
		app:       app,
		formatter: formatter,
	}
}

func (f CustomNewRelicContextLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	logData := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  newRelicLogMessage(e),
	}

	formatted, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}
	b := bytes.NewBuffer(bytes.TrimRight(formatted, "\n"))

	var txn *newrelic.Transaction
	if e.Context != nil {
		txn = newrelic.FromContext(e.Context)
	}

	if txn != nil {
		txn.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromTxn(txn))
	} else {
		f.app.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromApp(f.app))
	}
	if err != nil {
		return nil, err
	}

	b.WriteString("\n")
	return b.Bytes(), nil
}

// newRelicLogMessage flattens the entry's message, error and remaining fields
// into a single line
func newRelicLogMessage(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	errorString := "<nil>"
	fields := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if k != logrus.ErrorKey {
			fields[k] = v
			continue
		}

		if typed, ok := v.(error); ok {
			errorString = fmt.Sprintf("%q", typed.Error())
		}
	}

	// json.Marshal sorts map keys, which keeps messages stable
	encoded, err := json.Marshal(fields)
	if err != nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("message=%q, error=%s, fields=%v", e.Message, errorString, keys)
	}

	return fmt.Sprintf("message=%q, error=%s, data=%s", e.Message, errorString, encoded)
}
