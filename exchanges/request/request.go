package request

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mfdesk/mfgateway/log"
	"golang.org/x/time/rate"
)

// New returns a requester that allows limit requests per second with the
// supplied burst. A nil client uses http.DefaultClient.
func New(name string, client *http.Client, limit rate.Limit, burst int, rec Recorder) *Requester {
	if client == nil {
		client = http.DefaultClient
	}
	if burst < 1 {
		burst = 1
	}
	return &Requester{
		name:       name,
		HTTPClient: client,
		limiter:    rate.NewLimiter(limit, burst),
		recorder:   rec,
	}
}

// SendPayload waits for the rate limiter, sends the item and decodes the
// response into item.Result. Non 2xx responses are returned as *BrokerError
// and transport failures wrap ErrBrokerUnreachable. No retries are made.
func (r *Requester) SendPayload(ctx context.Context, item *Item) error {
	if r == nil {
		return errRequesterIsNil
	}
	if item == nil {
		return errItemIsNil
	}
	if item.Path == "" {
		return errPathNotSet
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	outcome, err := r.do(ctx, item)
	if r.recorder != nil {
		r.recorder.ObserveBrokerRequest(item.Endpoint, outcome, time.Since(start))
	}
	return err
}

func (r *Requester) do(ctx context.Context, item *Item) (string, error) {
	method := item.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, item.Path, item.Body)
	if err != nil {
		return OutcomeError, err
	}
	for k, v := range item.Headers {
		// assigned directly so header names reach the broker with their
		// exact casing
		req.Header[k] = []string{v}
	}

	log.Debugf(log.BrokerSys, "%s %s request to %s", r.name, method, item.Endpoint)
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		log.Warnf(log.BrokerSys, "%s %s no response received: %v", r.name, item.Endpoint, err)
		return OutcomeUnreachable, fmt.Errorf("%w: %w", ErrBrokerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return OutcomeError, fmt.Errorf("%s %s failed to read error body: %w", r.name, item.Endpoint, readErr)
		}
		log.Warnf(log.BrokerSys, "%s %s rejected with HTTP status %d", r.name, item.Endpoint, resp.StatusCode)
		return OutcomeRejected, &BrokerError{StatusCode: resp.StatusCode, Body: body}
	}

	switch result := item.Result.(type) {
	case nil:
		_, err = io.Copy(io.Discard, resp.Body)
	case io.Writer:
		_, err = io.Copy(result, resp.Body)
	case *json.RawMessage:
		var body []byte
		body, err = io.ReadAll(resp.Body)
		if err == nil {
			*result = body
		}
	default:
		err = json.NewDecoder(resp.Body).Decode(result)
	}
	if err != nil {
		return OutcomeError, fmt.Errorf("%s %s failed to read response: %w", r.name, item.Endpoint, err)
	}
	log.Debugf(log.BrokerSys, "%s %s completed with HTTP status %d", r.name, item.Endpoint, resp.StatusCode)
	return OutcomeSuccess, nil
}
