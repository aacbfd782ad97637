package client

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	RequestIDHeaderName = "X-Request-ID"
	UserAgentHeaderName = "User-Agent"

	clientIPHeader = "X-Forwarded-For"

	maxRequestIDLength = 128
)

type metadataContextKey struct{}

// Metadata describes the client behind a request
type Metadata struct {
	RequestID string
	IP        string
	UserAgent string
}

// NewContext returns a copy of ctx carrying md
func NewContext(ctx context.Context, md *Metadata) context.Context {
	return context.WithValue(ctx, metadataContextKey{}, md)
}

// FromContext returns the metadata stored in ctx, if any
func FromContext(ctx context.Context) (*Metadata, bool) {
	md, ok := ctx.Value(metadataContextKey{}).(*Metadata)
	return md, ok
}

// GetRequestID returns the request ID assigned to the request, or an empty
// string outside of a request
func GetRequestID(ctx context.Context) string {
	md, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return md.RequestID
}

// Middleware extracts client metadata from the request and makes it available
// to downstream handlers. Caller supplied request IDs are honoured, otherwise
// a new one is generated. The ID is echoed in the response headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		md := &Metadata{
			RequestID: sanitizeRequestID(r.Header.Get(RequestIDHeaderName)),
			IP:        GetIPAddr(r),
			UserAgent: strings.TrimSpace(r.Header.Get(UserAgentHeaderName)),
		}
		if len(md.RequestID) == 0 {
			md.RequestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeaderName, md.RequestID)

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), md)))
	})
}

// GetIPAddr gets the client's IP address, preferring the first hop recorded by
// a proxy
func GetIPAddr(r *http.Request) string {
	if forwarded := r.Header.Get(clientIPHeader); len(forwarded) > 0 {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); len(ip) > 0 {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func sanitizeRequestID(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > maxRequestIDLength {
		return ""
	}
	for _, c := range value {
		if c < 0x21 || c > 0x7e {
			return ""
		}
	}
	return value
}
