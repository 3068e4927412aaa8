package httpclient

import "context"

// Request describes a single outbound HTTP call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is sent as-is when non-nil.
	Body []byte
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Status() string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
