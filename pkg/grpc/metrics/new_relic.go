package metrics

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/newrelic/go-agent/v3/newrelic"
	grpc_core "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/code-payments/presale-server/pkg/grpc"
	"github.com/code-payments/presale-server/pkg/grpc/client"
	"github.com/code-payments/presale-server/pkg/metrics"
)

// CustomNewRelicUnaryServerInterceptor is a custom implementation of the New
// Relic unary interceptor.
func CustomNewRelicUnaryServerInterceptor(app *newrelic.Application) grpc_core.UnaryServerInterceptor {
	if app == nil {
		return func(ctx context.Context, req interface{}, info *grpc_core.UnaryServerInfo, handler grpc_core.UnaryHandler) (interface{}, error) {
			return handler(ctx, req)
		}
	}

	return func(ctx context.Context, req interface{}, info *grpc_core.UnaryServerInfo, handler grpc_core.UnaryHandler) (interface{}, error) {
		// Inject the application to allow for any custom metrics, events, etc
		// in downstream code.
		ctx = metrics.NewContext(ctx, app)

		m := startGRPCTransaction(ctx, app, info.FullMethod)
		defer m.End()

		ctx = newrelic.NewContext(ctx, m)

		includeParsedFullMethodName(m, info.FullMethod)

		resp, err := handler(ctx, req)
		includeGRPCStatusCode(m, err)
		return resp, err
	}
}

// CustomNewRelicHTTPMiddleware traces HTTP requests. It must be installed on
// a chi router so transactions can be named by route pattern rather than by
// raw path.
func CustomNewRelicHTTPMiddleware(app *newrelic.Application) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if app == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := metrics.NewContext(r.Context(), app)

			m := app.StartTransaction(r.Method + " " + r.URL.Path)
			defer m.End()

			m.SetWebRequestHTTP(r)
			includeClientMetadata(ctx, m)

			recorder := &statusRecorder{ResponseWriter: m.SetWebResponse(w), statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(newrelic.NewContext(ctx, m)))

			if pattern := routePattern(r); len(pattern) > 0 {
				m.SetName(r.Method + " " + pattern)
				m.AddAttribute(httpRequestRouteAttributeKey, pattern)
			}
			includeHTTPStatusCode(m, recorder.statusCode)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

func startGRPCTransaction(ctx context.Context, app *newrelic.Application, fullMethod string) *newrelic.Transaction {
	method := strings.TrimPrefix(fullMethod, "/")

	var hdrs http.Header
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		hdrs = make(http.Header, len(md))
		for k, vs := range md {
			for _, v := range vs {
				hdrs.Add(k, v)
			}
		}
	}

	webReq := newrelic.WebRequest{
		Header: hdrs,
		URL: &url.URL{
			Scheme: "grpc",
			Host:   hdrs.Get(":authority"),
			Path:   method,
		},
		Method:    method,
		Transport: newrelic.TransportHTTP,
	}
	txn := app.StartTransaction(method)
	txn.SetWebRequest(webReq)

	return txn
}

func includeGRPCStatusCode(m *newrelic.Transaction, err error) {
	grpcStatus := status.Convert(err)
	handler, ok := statusCodeHandlers[grpcStatus.Code()]
	if !ok {
		handler = defaultStatusCodeHandler
	}
	handler(m, grpcStatus)
}

func includeParsedFullMethodName(m *newrelic.Transaction, fullMethodName string) {
	packageName, serviceName, methodName, err := grpc.ParseFullMethodName(fullMethodName)
	if err != nil {
		return
	}

	m.AddAttribute(grpcRequestPackageAttributeKey, packageName)
	m.AddAttribute(grpcRequestServiceAttributeKey, serviceName)
	m.AddAttribute(grpcRequestMethodAttributeKey, methodName)
}

func includeClientMetadata(ctx context.Context, m *newrelic.Transaction) {
	md, ok := client.FromContext(ctx)
	if !ok {
		return
	}

	m.AddAttribute(clientRequestIDAttributeKey, md.RequestID)
	m.AddAttribute(clientIPAttributeKey, md.IP)
	if len(md.UserAgent) > 0 {
		m.AddAttribute(clientUserAgentAttributeKey, md.UserAgent)
	}
}
