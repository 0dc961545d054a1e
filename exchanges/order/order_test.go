package order

import (
	"fmt"
	"testing"

	"github.com/mfdesk/mfgateway/exchanges/validate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitValidate(t *testing.T) {
	t.Parallel()
	var s *Submit
	require.ErrorIs(t, s.Validate(), ErrSubmissionIsNil)

	s = &Submit{ClientCode: "C1", Amount: decimal.NewFromInt(5000)}
	require.ErrorIs(t, s.Validate(), ErrSchemeCodeNotSet)
	s.SchemeCode = "SCHEMECODE1"
	require.NoError(t, s.Validate())

	s.ClientCode = ""
	require.ErrorIs(t, s.Validate(), ErrClientCodeNotSet)
	s.ClientCode = "C1"

	s.Amount = decimal.Zero
	require.ErrorIs(t, s.Validate(), ErrAmountIsInvalid)
	s.Amount = decimal.NewFromInt(-1)
	require.ErrorIs(t, s.Validate(), ErrAmountIsInvalid)
	s.Amount = decimal.NewFromInt(500)

	s.TransactionType = "X"
	require.ErrorIs(t, s.Validate(), ErrTransactionTypeInvalid)
	s.TransactionType = Redemption
	s.BuySellType = "SOMETIMES"
	require.ErrorIs(t, s.Validate(), ErrBuySellTypeInvalid)
	s.BuySellType = Additional
	require.NoError(t, s.Validate())

	err := s.Validate(s.MinimumAmount(decimal.NewFromInt(1000)))
	require.ErrorIs(t, err, errMinimumAmountNotReached)
	assert.Equal(t, []string{"amount"}, validate.Fields(err))
	require.NoError(t, s.Validate(s.MinimumAmount(decimal.NewFromInt(500))))
}

func TestValidateBatch(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, ValidateBatch(nil), ErrNoCancellations)

	good := Cancel{ClientCode: "TEST12345", OrderNo: "ORD12345678", Remarks: "pricing error"}
	require.NoError(t, ValidateBatch([]Cancel{good}))

	batch := make([]Cancel, MaxCancellations)
	for i := range batch {
		batch[i] = Cancel{ClientCode: "C", OrderNo: fmt.Sprintf("ORD%d", i), Remarks: "r"}
	}
	require.NoError(t, ValidateBatch(batch))
	require.ErrorIs(t, ValidateBatch(append(batch, good)), ErrTooManyCancellations)

	missing := Cancel{ClientCode: "TEST12345", Remarks: "r"}
	err := ValidateBatch([]Cancel{good, missing})
	require.ErrorIs(t, err, validate.ErrRequired)
	assert.Equal(t, []string{"order_no"}, validate.Fields(err))
	assert.Contains(t, err.Error(), "TEST12345")
	assert.Equal(t, []string{"order_no"}, missing.MissingFields())
	assert.Equal(t, []string{"client_code", "order_no", "remarks"}, (&Cancel{}).MissingFields())
	assert.Empty(t, good.MissingFields())
}

func TestStatusRequestValidate(t *testing.T) {
	t.Parallel()
	var s *StatusRequest
	require.ErrorIs(t, s.Validate(), ErrStatusRequestIsNil)

	s = &StatusRequest{FromDate: "2025-06-01"}
	require.ErrorIs(t, s.Validate(), ErrDateRangeNotSet)

	s = &StatusRequest{FromDate: "2025-06-01", ToDate: "2025-06-08", OrderType: "SIP"}
	require.NoError(t, s.Validate())
	assert.Equal(t, ReportFilterAll, s.TransType)
	assert.Equal(t, "SIP", s.OrderType)
	assert.Equal(t, ReportFilterAll, s.SubOrderType)

	s = &StatusRequest{FromDate: "2025-06-01", ToDate: "2025-06-09"}
	require.ErrorIs(t, s.Validate(), ErrStatusWindowExceeded)

	s = &StatusRequest{FromDate: "01-06-2025", ToDate: "2025-06-02"}
	require.Error(t, s.Validate())
}
