package order

import "errors"

// TransactionType is the broker trxn_type field
type TransactionType string

// BuySellType is the broker buy_sell_type field
type BuySellType string

// Transaction and buy sell types accepted by the broker
const (
	Purchase   TransactionType = "P"
	Redemption TransactionType = "R"

	Fresh      BuySellType = "FRESH"
	Additional BuySellType = "ADDITIONAL"

	// MaxCancellations is the largest batch the broker accepts in a single
	// cancellation request
	MaxCancellations = 50
	// MaxStatusWindowDays is the widest order status report window
	MaxStatusWindowDays = 7
	// ReportFilterAll is the default trans_type, order_type and
	// sub_order_type filter
	ReportFilterAll = "ALL"
)

// Submission errors
var (
	ErrSubmissionIsNil         = errors.New("order submission is nil")
	ErrSchemeCodeNotSet        = errors.New("scheme code not set")
	ErrClientCodeNotSet        = errors.New("client code not set")
	ErrAmountIsInvalid         = errors.New("order amount must be greater than zero")
	ErrTransactionTypeInvalid  = errors.New("transaction type is invalid")
	ErrBuySellTypeInvalid      = errors.New("buy sell type is invalid")
	ErrNoCancellations         = errors.New("no orders to cancel")
	ErrTooManyCancellations    = errors.New("maximum 50 orders allowed in a single cancellation request")
	ErrStatusRequestIsNil      = errors.New("order status request is nil")
	ErrDateRangeNotSet         = errors.New("fromDate and toDate are required")
	ErrStatusWindowExceeded    = errors.New("date range cannot exceed 7 days")
	errMinimumAmountNotReached = errors.New("order amount is below the scheme minimum")
)
