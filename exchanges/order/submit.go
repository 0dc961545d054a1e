package order

import (
	"fmt"

	"github.com/mfdesk/mfgateway/exchanges/validate"
	"github.com/shopspring/decimal"
)

// Submit contains the properties of a mutual fund order sent to the broker.
// Only the scheme, client and amount are required, the rest fall back to the
// broker defaults used by the order form.
type Submit struct {
	SchemeCode      string
	ClientCode      string
	Amount          decimal.Decimal
	TransactionType TransactionType
	BuySellType     BuySellType
	FolioNo         string
	Remarks         string
	Email           string
	MobileNo        string
	MandateID       string
	// RefNumber is generated when left empty
	RefNumber string
}

// Validate checks the supplied data and returns whether or not it's valid
func (s *Submit) Validate(opt ...validate.Checker) error {
	if s == nil {
		return ErrSubmissionIsNil
	}
	if s.SchemeCode == "" {
		return ErrSchemeCodeNotSet
	}
	if s.ClientCode == "" {
		return ErrClientCodeNotSet
	}
	if !s.Amount.IsPositive() {
		return fmt.Errorf("submit validation error %w, supplied: %s",
			ErrAmountIsInvalid,
			s.Amount)
	}
	if s.TransactionType != "" && s.TransactionType != Purchase && s.TransactionType != Redemption {
		return fmt.Errorf("%w: %q", ErrTransactionTypeInvalid, s.TransactionType)
	}
	if s.BuySellType != "" && s.BuySellType != Fresh && s.BuySellType != Additional {
		return fmt.Errorf("%w: %q", ErrBuySellTypeInvalid, s.BuySellType)
	}

	return validate.First(opt...)
}

// MinimumAmount defines an option in the validator to make sure the order
// meets the scheme's minimum purchase amount
func (s *Submit) MinimumAmount(minimum decimal.Decimal) validate.Checker {
	return validate.Check(func() error {
		if s.Amount.LessThan(minimum) {
			return &validate.FieldError{
				Field: "amount",
				Err:   fmt.Errorf("%w: %s < %s", errMinimumAmountNotReached, s.Amount, minimum),
			}
		}
		return nil
	})
}
