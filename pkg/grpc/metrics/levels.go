package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/newrelic/go-agent/v3/newrelic"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type statusCodeHandler func(*newrelic.Transaction, *status.Status)

const (
	grpcRequestPackageAttributeKey = "grpc.request.package"
	grpcRequestServiceAttributeKey = "grpc.request.service"
	grpcRequestMethodAttributeKey  = "grpc.request.method"

	grpcResponseStatusCodeAttributeKey      = "grpc.response.statusCode"
	grpcResponseStatusMessageAttributeKey   = "grpc.response.statusMessage"
	grpcResponseStatusCodeLevelAttributeKey = "grpc.response.statusCodeLevel"

	httpRequestRouteAttributeKey            = "http.request.route"
	httpResponseStatusCodeLevelAttributeKey = "http.response.statusCodeLevel"

	resultCodeAttributeKey      = "presale.response.resultCode"
	resultCodeLevelAttributeKey = "presale.response.resultCodeLevel"

	clientRequestIDAttributeKey = "client.requestId"
	clientIPAttributeKey        = "client.ip"
	clientUserAgentAttributeKey = "client.userAgent"

	infoLevel    = "info"
	warningLevel = "warning"
	errorLevel   = "error"
)

var (
	statusCodeHandlers = map[codes.Code]statusCodeHandler{
		codes.OK:              infoStatusCodeHandler,
		codes.AlreadyExists:   infoStatusCodeHandler,
		codes.Canceled:        infoStatusCodeHandler,
		codes.InvalidArgument: infoStatusCodeHandler,
		codes.NotFound:        infoStatusCodeHandler,
		codes.Unauthenticated: infoStatusCodeHandler,

		codes.Aborted:            warningStatusCodeHandler,
		codes.DeadlineExceeded:   warningStatusCodeHandler,
		codes.FailedPrecondition: warningStatusCodeHandler,
		codes.OutOfRange:         warningStatusCodeHandler,
		codes.PermissionDenied:   warningStatusCodeHandler,
		codes.ResourceExhausted:  warningStatusCodeHandler,
		codes.Unavailable:        warningStatusCodeHandler,
	}
	defaultStatusCodeHandler = errorStatusCodeHandler

	httpStatusLevels = map[int]string{
		http.StatusOK:         infoLevel,
		http.StatusCreated:    infoLevel,
		http.StatusNoContent:  infoLevel,
		http.StatusBadRequest: infoLevel,
		http.StatusNotFound:   infoLevel,
		http.StatusConflict:   infoLevel,

		http.StatusUnauthorized:          warningLevel,
		http.StatusForbidden:             warningLevel,
		http.StatusMethodNotAllowed:      warningLevel,
		http.StatusRequestEntityTooLarge: warningLevel,
		http.StatusTooManyRequests:       warningLevel,
		http.StatusServiceUnavailable:    warningLevel,
		http.StatusGatewayTimeout:        warningLevel,
	}

	resultCodeLevels = map[string]string{
		"OK":                 infoLevel,
		"SaleNotFound":       infoLevel,
		"PositionNotFound":   infoLevel,
		"AlreadyInitialized": infoLevel,
		"TokensStillLocked":  infoLevel,
		"AlreadyClaimed":     infoLevel,

		"PresaleInactive":   warningLevel,
		"ExceedsAllocation": warningLevel,
		"CalculationError":  warningLevel,
		"InsufficientFunds": warningLevel,
		"InvalidAmount":     warningLevel,
		"InvalidRequest":    warningLevel,
		"Unauthorized":      warningLevel,
		"SignatureError":    warningLevel,
		"RateLimited":       warningLevel,
		"Disabled":          warningLevel,
	}
)

func infoStatusCodeHandler(m *newrelic.Transaction, s *status.Status) {
	addStatusAttributes(m, s, infoLevel)
}

func warningStatusCodeHandler(m *newrelic.Transaction, s *status.Status) {
	addStatusAttributes(m, s, warningLevel)
}

func errorStatusCodeHandler(m *newrelic.Transaction, s *status.Status) {
	addStatusAttributes(m, s, errorLevel)
	m.NoticeError(&newrelic.Error{
		Message: s.Message(),
		Class:   "gRPC Status: " + s.Code().String(),
	})
}

func addStatusAttributes(m *newrelic.Transaction, s *status.Status, level string) {
	m.SetWebResponse(nil).WriteHeader(int(codes.OK))
	m.AddAttribute(grpcResponseStatusCodeAttributeKey, s.Code().String())
	m.AddAttribute(grpcResponseStatusMessageAttributeKey, s.Message())
	m.AddAttribute(grpcResponseStatusCodeLevelAttributeKey, level)
}

// HTTPStatusLevel is the severity an HTTP status code is reported with
func HTTPStatusLevel(statusCode int) string {
	if level, ok := httpStatusLevels[statusCode]; ok {
		return level
	}
	return errorLevel
}

// ResultCodeLevel is the severity an API result code is reported with
func ResultCodeLevel(resultCode string) string {
	if level, ok := resultCodeLevels[resultCode]; ok {
		return level
	}
	return errorLevel
}

func includeHTTPStatusCode(m *newrelic.Transaction, statusCode int) {
	level := HTTPStatusLevel(statusCode)
	m.AddAttribute(httpResponseStatusCodeLevelAttributeKey, level)
	if level == errorLevel {
		m.NoticeError(&newrelic.Error{
			Message: http.StatusText(statusCode),
			Class:   "HTTP Status: " + strconv.Itoa(statusCode),
		})
	}
}

// RecordResultCode annotates the transaction in ctx with an API result code
func RecordResultCode(ctx context.Context, resultCode string) {
	m := newrelic.FromContext(ctx)
	if m == nil {
		return
	}

	level := ResultCodeLevel(resultCode)
	m.AddAttribute(resultCodeAttributeKey, resultCode)
	m.AddAttribute(resultCodeLevelAttributeKey, level)
	if level == errorLevel {
		m.NoticeError(&newrelic.Error{
			Class: "Presale API Result: " + resultCode,
		})
	}
}
