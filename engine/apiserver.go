package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/mfdesk/mfgateway/database"
	"github.com/mfdesk/mfgateway/exchanges/nse"
	"github.com/mfdesk/mfgateway/exchanges/order"
	"github.com/mfdesk/mfgateway/exchanges/validate"
	"github.com/mfdesk/mfgateway/log"
	"github.com/mfdesk/mfgateway/schememaster"
	"github.com/shopspring/decimal"
)

// route defines a single REST endpoint
type route struct {
	name    string
	method  string
	pattern string
	handler http.HandlerFunc
}

func (e *Engine) routes() []route {
	return []route{
		{"DownloadSchemeMaster", http.MethodPost, "/download-scheme-master", e.handleDownloadSchemeMaster},
		{"SchemeMasterJSON", http.MethodGet, "/scheme-master-json", e.handleSchemeMasterJSON},
		{"SchemeMasterRaw", http.MethodGet, "/scheme-master-raw", e.handleSchemeMasterRaw},
		{"SchemeMasterFiles", http.MethodGet, "/scheme-master-files", e.handleSchemeMasterFiles},
		{"Schemes", http.MethodGet, "/schemes", e.handleSchemes},
		{"ProcessOrder", http.MethodPost, "/process-order", e.handleProcessOrder},
		{"RegisterUCC", http.MethodPost, "/register-ucc", e.handleRegisterUCC},
		{"OrderStatus", http.MethodPost, "/order-status", e.handleOrderStatus},
		{"OrderStatusReport", http.MethodPost, "/order-status-report", e.handleOrderStatusReport},
		{"OrderCancellation", http.MethodPost, "/order-cancellation", e.handleOrderCancellation},
		{"FATCAUpload", http.MethodPost, "/fatca-upload", e.handleFATCAUpload},
		{"FATCAImageUpload", http.MethodPost, "/fatca-image-upload", e.handleFATCAImageUpload},
		{"AOFImageUpload", http.MethodPost, "/aof-image-upload", e.handleAOFImageUpload},
		{"FATCAReport", http.MethodPost, "/fatca-report", e.handleFATCAReport},
		{"AOFImageReport", http.MethodPost, "/aof-image-report", e.handleAOFImageReport},
		// paths used by the FATCA forms of the web client
		{"FATCACommon", http.MethodPost, "/registration/FATCA_COMMON", e.handleFATCAUpload},
		{"FATCAReportBroker", http.MethodPost, "/reports/FATCA_REPORT", e.handleFATCAReport},
		{"FATCAImage", http.MethodPost, "/fileupload/FATCAIMG", e.handleFATCAImageUpload},
		{"GetClients", http.MethodGet, "/clients", e.handleGetClients},
		{"AddClient", http.MethodPost, "/clients", e.handleAddClient},
		{"GetOrders", http.MethodGet, "/orders", e.handleGetOrders},
	}
}

// newRouter returns the API router. A configured static directory is served
// for every other path.
func (e *Engine) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(restLogger, e.cors)

	api := router.PathPrefix("/api").Subrouter()
	for _, rt := range e.routes() {
		api.Methods(rt.method, http.MethodOptions).
			Path(rt.pattern).
			Name(rt.name).
			Handler(rt.handler)
	}

	if dir := e.Config.Server.StaticDir; dir != "" {
		router.PathPrefix("/").Handler(spaHandler{dir: dir})
	}
	return router
}

// restLogger logs each request with its handling time
func restLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf(log.APIServerMgr, "%s\t%s\t%s", r.Method, r.RequestURI, time.Since(start))
	})
}

// cors allows the configured origin and answers preflight requests
func (e *Engine) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", e.Config.Server.AllowedOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Add("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// spaHandler serves files from dir, falling back to index.html so client side
// routes resolve
type spaHandler struct {
	dir string
}

func (s spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.dir, "index.html"))
}

type downloadRequest struct {
	ForceDownload bool `json:"forceDownload"`
}

type downloadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
}

func (e *Engine) handleDownloadSchemeMaster(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	snap, err := e.SchemeMaster.EnsureSnapshot(r.Context(), req.ForceDownload)
	if err != nil {
		log.Errorf(log.SchemeMgr, "Scheme master download failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to download scheme master",
			Details: err.Error(),
		})
		return
	}
	msg := "Scheme master processed successfully"
	if req.ForceDownload {
		msg = "Scheme master downloaded successfully"
	}
	writeJSON(w, http.StatusOK, downloadResponse{
		Success:  true,
		Message:  msg,
		FileName: snap.FileName,
		FilePath: snap.FilePath,
	})
}

// resolveSnapshot maps the optional fileName query parameter to a snapshot
// path, answering the request itself on failure
func (e *Engine) resolveSnapshot(w http.ResponseWriter, r *http.Request, notFoundMsg string) (string, bool) {
	path, err := e.SchemeMaster.ResolvePath(r.URL.Query().Get("fileName"))
	switch {
	case err == nil:
		return path, true
	case errors.Is(err, schememaster.ErrSnapshotNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Error: notFoundMsg})
	case errors.Is(err, schememaster.ErrFileNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Error: "Scheme master file not found"})
	case errors.Is(err, schememaster.ErrInvalidFileName):
		writeJSON(w, http.StatusBadRequest, messageResponse{Error: "Invalid scheme master file name"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to locate scheme master",
			Details: err.Error(),
		})
	}
	return "", false
}

type schemeMasterJSONResponse struct {
	Success  bool               `json:"success"`
	FileName string             `json:"fileName"`
	Data     []schememaster.Row `json:"data"`
	Total    int                `json:"total"`
	Limited  bool               `json:"limited"`
	Limit    int                `json:"limit"`
}

func (e *Engine) handleSchemeMasterJSON(w http.ResponseWriter, r *http.Request) {
	path, ok := e.resolveSnapshot(w, r, "No scheme master files found")
	if !ok {
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 0
	}
	res, err := e.SchemeMaster.ParseSnapshot(path, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to parse scheme master",
			Details: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, schemeMasterJSONResponse{
		Success:  true,
		FileName: filepath.Base(path),
		Data:     res.Rows,
		Total:    res.Total,
		Limited:  res.Limited,
		Limit:    res.Limit,
	})
}

func (e *Engine) handleSchemeMasterRaw(w http.ResponseWriter, r *http.Request) {
	path, ok := e.resolveSnapshot(w, r, "No scheme master files found")
	if !ok {
		return
	}
	f, err := e.SchemeMaster.OpenSnapshot(path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, messageResponse{Error: "Scheme master file not found"})
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	if _, err := io.Copy(w, f); err != nil {
		log.Errorf(log.APIServerMgr, "Streaming %s failed: %v", path, err)
	}
}

type schemeMasterFilesResponse struct {
	Success bool                    `json:"success"`
	Files   []schememaster.Snapshot `json:"files"`
}

func (e *Engine) handleSchemeMasterFiles(w http.ResponseWriter, _ *http.Request) {
	files, err := e.SchemeMaster.ListSnapshots()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to get scheme master files",
			Details: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, schemeMasterFilesResponse{Success: true, Files: files})
}

func (e *Engine) handleSchemes(w http.ResponseWriter, r *http.Request) {
	path, ok := e.resolveSnapshot(w, r, "No scheme master files found. Please download the scheme master first.")
	if !ok {
		return
	}
	schemes, err := e.SchemeMaster.PurchasableSchemeIndex(path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, messageResponse{
			Error:   "Failed to read scheme file",
			Details: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, schemes)
}

type processOrderRequest struct {
	SchemeCode string          `json:"schemeCode"`
	Amount     json.RawMessage `json:"amount"`
	ClientCode string          `json:"clientCode"`
	Remarks    string          `json:"remarks"`
	Email      string          `json:"email"`
	MobileNo   string          `json:"mobileNo"`
}

// parseAmount accepts a JSON number or numeric string. Absent, null and
// empty values parse as zero.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// schemeMinimum returns the minimum purchase amount the latest snapshot lists
// for schemeCode. Schemes that are absent, or not open for purchase, have no
// minimum to enforce.
func (e *Engine) schemeMinimum(schemeCode string) (decimal.Decimal, bool) {
	path, err := e.SchemeMaster.LatestSnapshotPath()
	if err != nil {
		if !errors.Is(err, schememaster.ErrSnapshotNotFound) {
			log.Warnf(log.SchemeMgr, "Unable to locate scheme master for minimum amount check: %v", err)
		}
		return decimal.Zero, false
	}
	schemes, err := e.SchemeMaster.PurchasableSchemeIndex(path)
	if err != nil {
		log.Warnf(log.SchemeMgr, "Unable to read scheme master for minimum amount check: %v", err)
		return decimal.Zero, false
	}
	for i := range schemes {
		if schemes[i].Code != schemeCode {
			continue
		}
		minimum, err := decimal.NewFromString(strings.TrimSpace(schemes[i].MinAmount))
		if err != nil {
			log.Warnf(log.SchemeMgr, "Scheme %s has an unreadable minimum amount %q", schemeCode, schemes[i].MinAmount)
			return decimal.Zero, false
		}
		return minimum, true
	}
	return decimal.Zero, false
}

func (e *Engine) handleProcessOrder(w http.ResponseWriter, r *http.Request) {
	var req processOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Error: "Missing required fields"})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid order amount"})
		return
	}
	if req.SchemeCode == "" || req.ClientCode == "" || amount.IsZero() {
		writeJSON(w, http.StatusBadRequest, messageResponse{Error: "Missing required fields"})
		return
	}

	s := &order.Submit{
		SchemeCode:      req.SchemeCode,
		ClientCode:      req.ClientCode,
		Amount:          amount,
		TransactionType: order.Purchase,
		BuySellType:     order.Fresh,
		Remarks:         req.Remarks,
		Email:           req.Email,
		MobileNo:        req.MobileNo,
	}
	var checks []validate.Checker
	if minimum, ok := e.schemeMinimum(s.SchemeCode); ok {
		checks = append(checks, s.MinimumAmount(minimum))
	}
	if err = s.Validate(checks...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	refNumber := e.Broker.OrderRefNumber(s)
	log.Infof(log.APIServerMgr, "Placing order %s for client %s scheme %s", refNumber, s.ClientCode, s.SchemeCode)

	var data json.RawMessage
	resp, err := e.Broker.SubmitOrder(r.Context(), s)
	if err == nil {
		data = resp.Data
	}
	result, payload := e.relay(w, "process-order", data, err, func() interface{} {
		now := e.now()
		return map[string]interface{}{
			"message":     "Order processed successfully (simulated)",
			"order_id":    refNumber,
			"scheme_code": s.SchemeCode,
			"amount":      amount,
			"client_code": s.ClientCode,
			"status":      "PENDING",
			"timestamp":   simulatedTimestamp(now),
		}
	})
	if result == outcomeFailed {
		return
	}
	e.persist(r, "order "+refNumber, func(ctx context.Context, db database.Store) error {
		return db.InsertOrder(ctx, &database.OrderRecord{
			RefNumber:       refNumber,
			SchemeCode:      s.SchemeCode,
			ClientCode:      s.ClientCode,
			Amount:          s.Amount,
			TransactionType: string(s.TransactionType),
			Response:        marshalPayload(payload),
			Simulated:       result == outcomeSimulated,
		})
	})
}

type missingFieldsResponse struct {
	Success       bool     `json:"success"`
	Error         string   `json:"error"`
	MissingFields []string `json:"missingFields"`
}

func (e *Engine) handleRegisterUCC(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var u nse.UCCRegistration
	if err = json.Unmarshal(body, &u); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if missing := u.MissingFields(); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, missingFieldsResponse{
			Error:         "Missing required fields",
			MissingFields: missing,
		})
		return
	}

	data, err := e.Broker.RegisterClient(r.Context(), &u)
	result, payload := e.relay(w, "register-ucc", data, err, func() interface{} {
		return map[string]interface{}{
			"message":     "UCC Registration processed successfully (simulated)",
			"client_code": u.ClientCode,
			"status":      "PENDING",
			"timestamp":   simulatedTimestamp(e.now()),
		}
	})
	if result == outcomeFailed {
		return
	}
	e.persist(r, "client "+u.ClientCode, func(ctx context.Context, db database.Store) error {
		_, err := db.AddClient(ctx, database.NewClient(u.ClientCode, u.FirstName, u.LastName, u.Email))
		return err
	})
	e.persist(r, "UCC registration "+u.ClientCode, func(ctx context.Context, db database.Store) error {
		return db.InsertRegistration(ctx, &database.RegistrationRecord{
			Kind:       database.RegistrationUCC,
			ClientCode: u.ClientCode,
			Payload:    body,
			Response:   marshalPayload(payload),
			Simulated:  result == outcomeSimulated,
		})
	})
}

type orderStatusRequest struct {
	FromDate     string `json:"fromDate"`
	ToDate       string `json:"toDate"`
	TransType    string `json:"transType"`
	OrderType    string `json:"orderType"`
	SubOrderType string `json:"subOrderType"`
}

func (e *Engine) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	e.orderStatus(w, r, "order-status", func(*orderStatusRequest) {
		writeError(w, http.StatusBadRequest, "Missing required fields: fromDate and toDate are required")
	}, func(req *orderStatusRequest) interface{} {
		now := e.now()
		txType := req.TransType
		if txType == "" {
			txType = string(order.Purchase)
		}
		return map[string]interface{}{
			"response_status":   "S",
			"report_data_total": 2,
			"report_data": []map[string]interface{}{
				{
					"order_id":         simulatedOrderID(now, "1"),
					"scheme_code":      "EXAMPLE1",
					"transaction_type": txType,
					"amount":           5000,
					"status":           "SUCCESS",
					"timestamp":        simulatedTimestamp(now),
				},
				{
					"order_id":         simulatedOrderID(now, "2"),
					"scheme_code":      "EXAMPLE2",
					"transaction_type": txType,
					"amount":           10000,
					"status":           "PENDING",
					"timestamp":        simulatedTimestamp(now),
				},
			},
		}
	})
}

// handleOrderStatusReport serves the order status tab of the web client. It
// shares the broker call with handleOrderStatus and differs only in the
// missing dates answer and the simulated report.
func (e *Engine) handleOrderStatusReport(w http.ResponseWriter, r *http.Request) {
	e.orderStatus(w, r, "order-status-report", func(*orderStatusRequest) {
		writeJSON(w, http.StatusBadRequest, messageResponse{Error: "Missing required fields: fromDate and toDate"})
	}, func(req *orderStatusRequest) interface{} {
		return map[string]interface{}{
			"report_data": []map[string]interface{}{
				{
					"order_id":    simulatedOrderID(e.now(), "1"),
					"trans_type":  orDefault(req.TransType, order.ReportFilterAll),
					"order_type":  orDefault(req.OrderType, order.ReportFilterAll),
					"scheme_code": "SCHEME001",
					"amount":      "10000",
					"status":      "COMPLETED",
					"order_date":  req.FromDate,
				},
			},
			"report_data_total": 1,
			"from_date":         req.FromDate,
			"to_date":           req.ToDate,
		}
	})
}

func (e *Engine) orderStatus(w http.ResponseWriter, r *http.Request, route string,
	missingDates func(*orderStatusRequest), simulate func(*orderStatusRequest) interface{}) {
	var req orderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s := &order.StatusRequest{
		FromDate:     req.FromDate,
		ToDate:       req.ToDate,
		TransType:    req.TransType,
		OrderType:    req.OrderType,
		SubOrderType: req.SubOrderType,
	}
	if err := s.Validate(); err != nil {
		if errors.Is(err, order.ErrDateRangeNotSet) {
			missingDates(&req)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := e.Broker.GetOrderStatus(r.Context(), s)
	e.relay(w, route, data, err, func() interface{} { return simulate(&req) })
}

// decodeCancellations accepts a single cancellation object or an array
func decodeCancellations(body []byte) ([]order.Cancel, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var batch []order.Cancel
		return batch, json.Unmarshal(body, &batch)
	}
	var single order.Cancel
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []order.Cancel{single}, nil
}

func (e *Engine) handleOrderCancellation(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Error: "Missing cancellation details"})
		return
	}
	batch, err := decodeCancellations(body)
	if err != nil || len(batch) == 0 {
		writeJSON(w, http.StatusBadRequest, messageResponse{Error: "Missing cancellation details"})
		return
	}
	for i := range batch {
		if missing := batch[i].MissingFields(); len(missing) > 0 {
			client := batch[i].ClientCode
			if client == "" {
				client = "unknown"
			}
			writeJSON(w, http.StatusBadRequest, messageResponse{
				Error:   "Missing required fields",
				Details: fmt.Sprintf("Order for client %s is missing: %s", client, strings.Join(missing, ", ")),
			})
			return
		}
	}
	if err = order.ValidateBatch(batch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := e.Broker.CancelBatchOrders(r.Context(), batch)
	e.relay(w, "order-cancellation", data, err, func() interface{} {
		details := make([]map[string]string, len(batch))
		for i := range batch {
			details[i] = map[string]string{
				"client_code": batch[i].ClientCode,
				"order_no":    batch[i].OrderNo,
				"status":      "CANCELLED",
				"remarks":     "Cancellation processed successfully",
			}
		}
		return map[string]interface{}{
			"can_status":  "S",
			"can_remarks": "Order cancellation request processed successfully",
			"details":     details,
		}
	})
}

// fatcaReference returns the PAN, or PEKRN, of the first investor in a FATCA
// payload
func fatcaReference(payload []byte) string {
	var probe struct {
		RegDetails []struct {
			PANRP string `json:"pan_rp"`
			PEKRN string `json:"pekrn"`
		} `json:"reg_details"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil || len(probe.RegDetails) == 0 {
		return ""
	}
	if probe.RegDetails[0].PANRP != "" {
		return probe.RegDetails[0].PANRP
	}
	return probe.RegDetails[0].PEKRN
}

func (e *Engine) handleFATCAUpload(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err = nse.ValidateFATCA(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := e.Broker.RegisterFATCA(r.Context(), body)
	result, payload := e.relay(w, "fatca-upload", data, err, func() interface{} {
		return map[string]interface{}{
			"message":   "FATCA registration processed successfully (simulated)",
			"status":    "PENDING",
			"timestamp": simulatedTimestamp(e.now()),
		}
	})
	if result == outcomeFailed {
		return
	}
	ref := fatcaReference(body)
	e.persist(r, "FATCA registration "+ref, func(ctx context.Context, db database.Store) error {
		return db.InsertRegistration(ctx, &database.RegistrationRecord{
			Kind:       database.RegistrationFATCA,
			ClientCode: ref,
			Payload:    body,
			Response:   marshalPayload(payload),
			Simulated:  result == outcomeSimulated,
		})
	})
}

func (e *Engine) handleFATCAImageUpload(w http.ResponseWriter, r *http.Request) {
	var f nse.FATCAImage
	if err := decodeJSON(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := f.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := e.Broker.UploadFATCAImage(r.Context(), &f)
	e.relay(w, "fatca-image-upload", data, err, nil)
}

func (e *Engine) handleAOFImageUpload(w http.ResponseWriter, r *http.Request) {
	var a nse.AOFImage
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := a.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := e.Broker.UploadAOFImage(r.Context(), &a)
	e.relay(w, "aof-image-upload", data, err, nil)
}

func (e *Engine) handleFATCAReport(w http.ResponseWriter, r *http.Request) {
	var req nse.FATCAReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := e.Broker.GetFATCAReport(r.Context(), &req)
	e.relay(w, "fatca-report", data, err, nil)
}

func (e *Engine) handleAOFImageReport(w http.ResponseWriter, r *http.Request) {
	var req nse.AOFReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := e.Broker.GetAOFImageUploadReport(r.Context(), &req)
	e.relay(w, "aof-image-report", data, err, nil)
}

type clientsResponse struct {
	Success bool              `json:"success"`
	Clients []database.Client `json:"clients"`
}

func (e *Engine) handleGetClients(w http.ResponseWriter, r *http.Request) {
	clients, err := e.Database.Clients(r.Context())
	if err != nil {
		log.Errorf(log.DatabaseMgr, "Unable to read clients: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to read clients")
		return
	}
	writeJSON(w, http.StatusOK, clientsResponse{Success: true, Clients: clients})
}

type addClientRequest struct {
	ClientCode string `json:"clientCode"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
}

func (e *Engine) handleAddClient(w http.ResponseWriter, r *http.Request) {
	var req addClientRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClientCode == "" {
		writeError(w, http.StatusBadRequest, "clientCode is required")
		return
	}
	if _, err := e.Database.AddClient(r.Context(),
		database.NewClient(req.ClientCode, req.FirstName, req.LastName, req.Email)); err != nil {
		log.Errorf(log.DatabaseMgr, "Unable to add client %s: %v", req.ClientCode, err)
		writeError(w, http.StatusInternalServerError, "Failed to add client")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

type ordersResponse struct {
	Success bool                   `json:"success"`
	Orders  []database.OrderRecord `json:"orders"`
}

func (e *Engine) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	clientCode := r.URL.Query().Get("clientCode")
	if clientCode == "" {
		writeError(w, http.StatusBadRequest, "clientCode is required")
		return
	}
	orders, err := e.Database.Orders(r.Context(), clientCode)
	if err != nil {
		log.Errorf(log.DatabaseMgr, "Unable to read orders for %s: %v", clientCode, err)
		writeError(w, http.StatusInternalServerError, "Failed to read orders")
		return
	}
	writeJSON(w, http.StatusOK, ordersResponse{Success: true, Orders: orders})
}
