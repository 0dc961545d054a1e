package order

import (
	"fmt"

	"github.com/mfdesk/mfgateway/exchanges/validate"
)

// Cancel contains the properties required to cancel a single broker order
type Cancel struct {
	ClientCode string `json:"client_code"`
	OrderNo    string `json:"order_no"`
	Remarks    string `json:"remarks"`
}

// checks lists the required fields in wire order
func (c *Cancel) checks() []validate.Checker {
	return []validate.Checker{
		validate.Required("client_code", c.ClientCode),
		validate.Required("order_no", c.OrderNo),
		validate.Required("remarks", c.Remarks),
	}
}

// MissingFields returns the wire names of the required fields left empty
func (c *Cancel) MissingFields() []string {
	return validate.Fields(validate.All(c.checks()...))
}

// ValidateBatch checks a cancellation batch for size and that every entry has
// a client code, order number and remarks
func ValidateBatch(batch []Cancel) error {
	if len(batch) == 0 {
		return ErrNoCancellations
	}
	if len(batch) > MaxCancellations {
		return ErrTooManyCancellations
	}
	for i := range batch {
		if err := validate.First(batch[i].checks()...); err != nil {
			return fmt.Errorf("cannot cancel order %d for client %q: %w", i, batch[i].ClientCode, err)
		}
	}
	return nil
}
