package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/exchanges/request"
	"github.com/mfdesk/mfgateway/log"
)

// maxRequestBody bounds JSON request bodies. Image uploads carry base64
// file data.
const maxRequestBody = 16 << 20

// persistTimeout bounds a single write-after-success database call
const persistTimeout = 10 * time.Second

var errEmptyBody = errors.New("request body is empty")

// apiResponse is the envelope every relay route answers with
type apiResponse struct {
	Success   bool        `json:"success"`
	Simulated bool        `json:"simulated,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type brokerErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Status  int         `json:"status"`
	Data    interface{} `json:"data"`
}

// messageResponse carries only an error message, matching the routes that
// never reported a success flag on failure
type messageResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// outcome is how a relayed broker call was answered
type outcome int

const (
	outcomeFailed outcome = iota
	outcomeAccepted
	outcomeSimulated
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf(log.APIServerMgr, "Unable to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// readBody reads a bounded, non empty request body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// brokerData returns a broker body in a form that can be embedded in a
// response: JSON is passed through verbatim, anything else as a string
func brokerData(body []byte) interface{} {
	trimmed := bytes.TrimSpace(body)
	switch {
	case len(trimmed) == 0:
		return nil
	case json.Valid(trimmed):
		return json.RawMessage(trimmed)
	default:
		return string(body)
	}
}

// relay answers a broker call. Rejections keep the broker's status code and
// body. When the broker could not be reached and simulation is enabled the
// payload built by simulate is returned instead. Simulation never applies to
// a rejection.
func (e *Engine) relay(w http.ResponseWriter, route string, data json.RawMessage, err error, simulate func() interface{}) (outcome, interface{}) {
	if err == nil {
		payload := brokerData(data)
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: payload})
		return outcomeAccepted, payload
	}

	var be *request.BrokerError
	if errors.As(err, &be) {
		log.Warnf(log.APIServerMgr, "%s rejected by broker with HTTP status %d", route, be.StatusCode)
		status := be.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, brokerErrorResponse{
			Error:  "NSE API Error",
			Status: be.StatusCode,
			Data:   brokerData(be.Body),
		})
		return outcomeFailed, nil
	}

	if errors.Is(err, request.ErrBrokerUnreachable) && simulate != nil && e.Config.Broker.SimulateWhenUnreachable {
		log.Warnf(log.APIServerMgr, "%s broker unreachable, sending simulated response: %v", route, err)
		payload := simulate()
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Simulated: true, Data: payload})
		return outcomeSimulated, payload
	}

	log.Errorf(log.APIServerMgr, "%s failed: %v", route, err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	return outcomeFailed, nil
}

func marshalPayload(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf(log.DatabaseMgr, "Unable to encode payload for storage: %v", err)
		return nil
	}
	return b
}

// persist runs a database write detached from the request lifetime. Failures
// are logged and never reach the caller.
func (e *Engine) persist(r *http.Request, what string, fn func(ctx context.Context, db database.Store) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), persistTimeout)
	defer cancel()
	if err := fn(ctx, e.Database); err != nil {
		log.Errorf(log.DatabaseMgr, "Unable to record %s: %v", what, err)
	}
}

func simulatedTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func simulatedOrderID(t time.Time, suffix string) string {
	return fmt.Sprintf("ORD%d%s", t.UnixMilli(), suffix)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
