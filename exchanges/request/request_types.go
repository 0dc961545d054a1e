package request

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Request outcomes reported to a Recorder
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
	OutcomeError       = "error"

	maxErrorBodyPreview = 256
)

var (
	// ErrBrokerUnreachable is returned when no HTTP response was received
	// from the broker. It is distinct from a rejection so callers can decide
	// on a fallback.
	ErrBrokerUnreachable = errors.New("broker unreachable")

	errRequesterIsNil = errors.New("requester is nil")
	errItemIsNil      = errors.New("request item is nil")
	errPathNotSet     = errors.New("request path not set")
)

// BrokerError is returned when the broker answers with a non 2xx status. The
// body is kept byte for byte as it carries broker diagnostic codes.
type BrokerError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface
func (b *BrokerError) Error() string {
	preview := b.Body
	if len(preview) > maxErrorBodyPreview {
		preview = preview[:maxErrorBodyPreview]
	}
	return fmt.Sprintf("broker rejected request with HTTP status %d: %s", b.StatusCode, preview)
}

// Recorder receives one observation per completed request
type Recorder interface {
	ObserveBrokerRequest(endpoint, outcome string, elapsed time.Duration)
}

// Requester sends rate limited requests to a single upstream
type Requester struct {
	name       string
	HTTPClient *http.Client
	limiter    *rate.Limiter
	recorder   Recorder
}

// Item is a single outbound request. Result may be an io.Writer, in which
// case the raw body is copied into it, a *json.RawMessage which receives the
// body verbatim, or any other JSON decode target.
type Item struct {
	Method   string
	Path     string
	Endpoint string
	Headers  map[string]string
	Body     io.Reader
	Result   interface{}
}
