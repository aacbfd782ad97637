package app

import (
	"net/http"

	"google.golang.org/grpc"
)

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	unaryServerInterceptors  []grpc.UnaryServerInterceptor
	streamServerInterceptors []grpc.StreamServerInterceptor
	httpMiddleware           []func(http.Handler) http.Handler
}

// WithUnaryServerInterceptor appends interceptors to the gRPC servers' unary
// chain. They run after the default interceptors, in the order added.
func WithUnaryServerInterceptor(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(o *opts) {
		o.unaryServerInterceptors = append(o.unaryServerInterceptors, interceptors...)
	}
}

// WithStreamServerInterceptor appends interceptors to the gRPC servers' stream
// chain. They run after the default interceptors, in the order added.
func WithStreamServerInterceptor(interceptors ...grpc.StreamServerInterceptor) Option {
	return func(o *opts) {
		o.streamServerInterceptors = append(o.streamServerInterceptors, interceptors...)
	}
}

// WithHTTPMiddleware appends middleware to the HTTP router. It runs after the
// default middleware, in the order added.
func WithHTTPMiddleware(middleware ...func(http.Handler) http.Handler) Option {
	return func(o *opts) {
		o.httpMiddleware = append(o.httpMiddleware, middleware...)
	}
}
