package order

import (
	"fmt"

	"github.com/mfdesk/mfgateway/common"
)

// StatusRequest defines an order status report query
type StatusRequest struct {
	FromDate     string
	ToDate       string
	TransType    string
	OrderType    string
	SubOrderType string
}

// Validate checks the report window and fills in the default filters
func (s *StatusRequest) Validate() error {
	if s == nil {
		return ErrStatusRequestIsNil
	}
	if s.FromDate == "" || s.ToDate == "" {
		return ErrDateRangeNotSet
	}
	from, err := common.ParseDate(common.ISODateLayout, "fromDate", s.FromDate)
	if err != nil {
		return err
	}
	to, err := common.ParseDate(common.ISODateLayout, "toDate", s.ToDate)
	if err != nil {
		return err
	}
	if days := common.DaysBetween(from, to); days > MaxStatusWindowDays {
		return fmt.Errorf("%w: %d days requested", ErrStatusWindowExceeded, days)
	}

	if s.TransType == "" {
		s.TransType = ReportFilterAll
	}
	if s.OrderType == "" {
		s.OrderType = ReportFilterAll
	}
	if s.SubOrderType == "" {
		s.SubOrderType = ReportFilterAll
	}
	return nil
}
