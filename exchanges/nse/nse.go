package nse

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mfdesk/mfgateway/common"
	"github.com/mfdesk/mfgateway/config"
	"github.com/mfdesk/mfgateway/exchanges/request"
	"golang.org/x/time/rate"
)

// Name is the broker name used in logs and validation errors
const Name = "NSE"

// NSE is the client for the NSE mutual fund desk API
type NSE struct {
	Name      string
	apiURL    string
	cipher    *Cipher
	requester *request.Requester
	now       func() time.Time
}

// New returns a client for the configured broker. Requests are observed by
// rec when it is not nil.
func New(c *config.BrokerConfig, rec request.Recorder) *NSE {
	client := common.NewHTTPClientWithTimeout(c.HTTPTimeout, c.InsecureSkipVerify)
	return &NSE{
		Name:      Name,
		apiURL:    strings.TrimSuffix(c.URL, "/"),
		cipher:    NewCipher(c.LoginUserID, c.MemberID, c.APIKey, c.APISecret),
		requester: request.New(Name, client, rate.Limit(c.RateLimit), 1, rec),
		now:       time.Now,
	}
}

// Cipher returns the credential cipher used to sign requests
func (n *NSE) Cipher() *Cipher {
	return n.cipher
}

// PlaceOrder sends an order entry request
func (n *NSE) PlaceOrder(ctx context.Context, req *OrderEntryRequest) (json.RawMessage, error) {
	if req == nil {
		return nil, errRequestIsNil
	}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, orderEntryPath, req, &resp)
}

// CancelExistingOrders sends an order cancellation request
func (n *NSE) CancelExistingOrders(ctx context.Context, req *CancellationRequest) (json.RawMessage, error) {
	if req == nil {
		return nil, errRequestIsNil
	}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, orderCancellationPath, req, &resp)
}

// GetOrderStatusReport fetches the order status report
func (n *NSE) GetOrderStatusReport(ctx context.Context, req *OrderStatusReportRequest) (json.RawMessage, error) {
	if req == nil {
		return nil, errRequestIsNil
	}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, orderStatusPath, req, &resp)
}

// RegisterClient registers a unique client code
func (n *NSE) RegisterClient(ctx context.Context, u *UCCRegistration) (json.RawMessage, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	req := UCCRegistrationRequest{RegDetails: []UCCRegDetail{u.regDetail()}}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, clientRegistrationPath, &req, &resp)
}

// RegisterFATCA relays a FATCA declaration as supplied
func (n *NSE) RegisterFATCA(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	if err := ValidateFATCA(payload); err != nil {
		return nil, err
	}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, fatcaRegistrationPath, payload, &resp)
}

// UploadFATCAImage uploads a signed FATCA declaration image
func (n *NSE) UploadFATCAImage(ctx context.Context, f *FATCAImage) (json.RawMessage, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, fatcaImageUploadPath, f, &resp)
}

// UploadAOFImage uploads an account opening form image
func (n *NSE) UploadAOFImage(ctx context.Context, a *AOFImage) (json.RawMessage, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, aofImageUploadPath, a, &resp)
}

// GetFATCAReport fetches FATCA registrations for a PAN or PEKRN
func (n *NSE) GetFATCAReport(ctx context.Context, r *FATCAReportRequest) (json.RawMessage, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, fatcaReportPath, r, &resp)
}

// GetAOFImageUploadReport fetches the AOF image upload status report
func (n *NSE) GetAOFImageUploadReport(ctx context.Context, r *AOFReportRequest) (json.RawMessage, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var resp json.RawMessage
	return resp, n.SendAuthenticatedHTTPRequest(ctx, aofImageReportPath, r, &resp)
}

// DownloadMaster streams the requested master file body into w unchanged
func (n *NSE) DownloadMaster(ctx context.Context, fileType string, w io.Writer) error {
	if w == nil {
		return errMasterWriterNil
	}
	return n.SendAuthenticatedHTTPRequest(ctx, masterDownloadPath, &masterDownloadRequest{FileType: fileType}, w)
}

// SendAuthenticatedHTTPRequest signs and posts payload to the endpoint. A
// fresh credential token is generated for every call.
func (n *NSE) SendAuthenticatedHTTPRequest(ctx context.Context, endpoint string, payload, result interface{}) error {
	if n == nil {
		return errClientIsNil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	headers, err := n.cipher.Headers()
	if err != nil {
		return err
	}
	return n.requester.SendPayload(ctx, &request.Item{
		Method:   http.MethodPost,
		Path:     n.apiURL + "/" + endpoint,
		Endpoint: endpoint,
		Headers:  headers,
		Body:     bytes.NewReader(body),
		Result:   result,
	})
}
