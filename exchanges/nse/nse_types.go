package nse

import (
	"encoding/json"
	"errors"
)

// Broker API endpoints, relative to the configured base URL
const (
	orderEntryPath         = "transaction/NORMAL"
	orderCancellationPath  = "cancellation/ORDER_CAN"
	orderStatusPath        = "reports/ORDER_STATUS"
	masterDownloadPath     = "reports/MASTER_DOWNLOAD"
	clientRegistrationPath = "registration/CLIENTCOMMON"
	fatcaRegistrationPath  = "registration/FATCA_COMMON"
	fatcaImageUploadPath   = "fileupload/FATCAIMG"
	aofImageUploadPath     = "fileupload/AOFIMG"
	fatcaReportPath        = "reports/FATCA_REPORT"
	aofImageReportPath     = "reports/AOF_IMAGE_UPLOAD_REPORT"

	// FileTypeSchemeMaster requests the scheme master flat file
	FileTypeSchemeMaster = "SCH"

	// MaxReportWindowDays is the widest FATCA and AOF report window
	MaxReportWindowDays = 31
	// MaxReportClientCodes is the most comma separated client codes an AOF
	// report accepts
	MaxReportClientCodes = 50
)

// order entry defaults used by the order form
const (
	defaultOrderRemarks = "Purchase Order"
	defaultMobileNo     = "9876543210"
	defaultEmail        = "test@example.com"
	dematCDSL           = "C"
	flagYes             = "Y"
	flagNo              = "N"
	defaultEUIN         = "E123456"
	orderRefPrefix      = "ORD"
	bankRefPrefix       = "REF"
)

var (
	errClientIsNil         = errors.New("nse client is nil")
	errRequestIsNil        = errors.New("request is nil")
	errFATCAPayloadInvalid = errors.New("fatca payload must contain at least one reg_details entry")
	errFromAfterTo         = errors.New("from date cannot be greater than to date")
	errReportWindow        = errors.New("date range cannot exceed 31 days")
	errTooManyClientCodes  = errors.New("maximum 50 client codes are allowed")
	errFileDataInvalid     = errors.New("file_data must be base64 encoded")
	errMasterWriterNil     = errors.New("master download writer is nil")
)

// TransactionDetail is one order line of an order entry request
type TransactionDetail struct {
	OrderRefNumber    string `json:"order_ref_number"`
	SchemeCode        string `json:"scheme_code"`
	TrxnType          string `json:"trxn_type"`
	BuySellType       string `json:"buy_sell_type"`
	ClientCode        string `json:"client_code"`
	DematPhysical     string `json:"demat_physical"`
	OrderAmount       string `json:"order_amount"`
	FolioNo           string `json:"folio_no"`
	Remarks           string `json:"remarks"`
	KYCFlag           string `json:"kyc_flag"`
	SubBrokerCode     string `json:"sub_broker_code"`
	EUINNumber        string `json:"euin_number"`
	EUINDeclaration   string `json:"euin_declaration"`
	MinRedemptionFlag string `json:"min_redemption_flag"`
	DPCFlag           string `json:"dpc_flag"`
	AllUnits          string `json:"all_units"`
	RedemptionUnits   string `json:"redemption_units"`
	SubBrokerARN      string `json:"sub_broker_arn"`
	BankRefNo         string `json:"bank_ref_no"`
	AccountNo         string `json:"account_no"`
	MobileNo          string `json:"mobile_no"`
	Email             string `json:"email"`
	MandateID         string `json:"mandate_id"`
	Filler1           string `json:"filler1"`
	TrxnOrderID       string `json:"trxn_order_id"`
	TrxnStatus        string `json:"trxn_status"`
	TrxnRemark        string `json:"trxn_remark"`
}

// OrderEntryRequest is the transaction/NORMAL payload
type OrderEntryRequest struct {
	TransactionDetails []TransactionDetail `json:"transaction_details"`
}

// CancelDetail is one order of a cancellation request
type CancelDetail struct {
	ClientCode string `json:"client_code"`
	OrderNo    string `json:"order_no"`
	Remarks    string `json:"remarks"`
}

// CancellationRequest is the cancellation/ORDER_CAN payload
type CancellationRequest struct {
	CanData []CancelDetail `json:"can_data"`
}

// OrderStatusReportRequest is the reports/ORDER_STATUS payload
type OrderStatusReportRequest struct {
	FromDate     string `json:"from_date"`
	ToDate       string `json:"to_date"`
	TransType    string `json:"trans_type"`
	OrderType    string `json:"order_type"`
	SubOrderType string `json:"sub_order_type"`
}

// UCCRegDetail is one client of a UCC registration request
type UCCRegDetail struct {
	ClientCode              string `json:"client_code"`
	PrimaryHolderFirstName  string `json:"primary_holder_first_name"`
	PrimaryHolderMiddleName string `json:"primary_holder_middle_name"`
	PrimaryHolderLastName   string `json:"primary_holder_last_name"`
	TaxStatus               string `json:"tax_status"`
	Gender                  string `json:"gender"`
	PrimaryHolderDOB        string `json:"primary_holder_dob_incorporation"`
	OccupationCode          string `json:"occupation_code"`
	HoldingNature           string `json:"holding_nature"`
	PrimaryHolderPANExempt  string `json:"primary_holder_pan_exempt"`
	PrimaryHolderPAN        string `json:"primary_holder_pan"`
	ClientType              string `json:"client_type"`
	DefaultDP               string `json:"default_dp"`
	CDSLDPID                string `json:"cdsl_dpid"`
	CDSLCltID               string `json:"cdslcltid"`
	AccountType1            string `json:"account_type_1"`
	AccountNo1              string `json:"account_no_1"`
	IFSCCode1               string `json:"ifsc_code_1"`
	DefaultBankFlag1        string `json:"default_bank_flag_1"`
	ChequeName              string `json:"cheque_name"`
	DivPayMode              string `json:"div_pay_mode"`
	CommunicationMode       string `json:"communication_mode"`
	Email                   string `json:"email"`
	MobileDeclarationFlag   string `json:"mobile_declaration_flag"`
	EmailDeclarationFlag    string `json:"email_declaration_flag"`
	Address1                string `json:"address_1"`
	City                    string `json:"city"`
	State                   string `json:"state"`
	Pincode                 string `json:"pincode"`
	Country                 string `json:"country"`
	ResiPhone               string `json:"resi_phone"`
	IndianMobileNo          string `json:"indian_mobile_no"`
	PaperlessFlag           string `json:"paperless_flag"`
	NominationOpt           string `json:"nomination_opt"`
	PrimaryHolderKYCType    string `json:"primary_holder_kyc_type"`
	PrimaryHolderCKYCNumber string `json:"primary_holder_ckyc_number"`
	AadhaarUpdated          string `json:"aadhaar_updated"`
}

// UCCRegistrationRequest is the registration/CLIENTCOMMON payload
type UCCRegistrationRequest struct {
	RegDetails []UCCRegDetail `json:"reg_details"`
}

// FATCAImage is the fileupload/FATCAIMG payload
type FATCAImage struct {
	FileName string `json:"file_name"`
	PANNo    string `json:"pan_no"`
	FileData string `json:"file_data"`
}

// AOFImage is the fileupload/AOFIMG payload
type AOFImage struct {
	ClientCode   string `json:"client_code"`
	FileName     string `json:"file_name"`
	DocumentType string `json:"document_type"`
	FileData     string `json:"file_data"`
}

// FATCAReportRequest is the reports/FATCA_REPORT payload. Dates are
// DD-MM-YYYY.
type FATCAReportRequest struct {
	PANPKRNNo string `json:"pan_pkrn_no"`
	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
}

// AOFReportRequest is the reports/AOF_IMAGE_UPLOAD_REPORT payload. ClientCode
// may hold several comma separated codes.
type AOFReportRequest struct {
	ClientCode string `json:"client_code"`
	FromDate   string `json:"from_date"`
	ToDate     string `json:"to_date"`
}

type masterDownloadRequest struct {
	FileType string `json:"file_type"`
}

// SubmitResponse pairs the generated order reference with the broker's
// verbatim response
type SubmitResponse struct {
	RefNumber string
	Data      json.RawMessage
}
