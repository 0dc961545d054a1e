package nse

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/mfdesk/mfgateway/common"
)

// UCCRegistration is a client registration as collected by the registration
// form. Field names follow the form, not the broker.
type UCCRegistration struct {
	ClientCode             string `json:"clientCode"`
	FirstName              string `json:"firstName"`
	MiddleName             string `json:"middleName"`
	LastName               string `json:"lastName"`
	TaxStatus              string `json:"taxStatus"`
	Gender                 string `json:"gender"`
	DOB                    string `json:"dob"`
	OccupationCode         string `json:"occupationCode"`
	HoldingNature          string `json:"holdingNature"`
	PrimaryHolderPANExempt string `json:"primary_holder_pan_exempt"`
	PrimaryHolderPAN       string `json:"primary_holder_pan"`
	ClientType             string `json:"clientType"`
	DefaultDP              string `json:"default_dp"`
	CDSLDPID               string `json:"cdsl_dpid"`
	CDSLCltID              string `json:"cdslcltid"`
	AccountType1           string `json:"account_type_1"`
	AccountNo1             string `json:"account_no_1"`
	IFSCCode1              string `json:"ifsc_code_1"`
	DefaultBankFlag1       string `json:"default_bank_flag_1"`
	ChequeName             string `json:"cheque_name"`
	DivPayMode             string `json:"div_pay_mode"`
	CommunicationMode      string `json:"communicationMode"`
	Email                  string `json:"email"`
	MobileDeclarationFlag  string `json:"mobile_declaration_flag"`
	EmailDeclarationFlag   string `json:"email_declaration_flag"`
	Address1               string `json:"address1"`
	City                   string `json:"city"`
	State                  string `json:"state"`
	Pincode                string `json:"pincode"`
	Country                string `json:"country"`
	Phone                  string `json:"phone"`
	MobileNo               string `json:"mobileNo"`
	PaperlessFlag          string `json:"paperlessFlag"`
	NominationOpt          string `json:"nominationOpt"`
	PrimaryHolderKYCType   string `json:"primary_holder_kyc_type"`
	CKYCNumber             string `json:"ckycNumber"`
	AadhaarUpdated         string `json:"aadhaarUpdated"`
}

type namedField struct {
	name  string
	value string
}

func (u *UCCRegistration) requiredFields() []namedField {
	return []namedField{
		{"clientCode", u.ClientCode},
		{"firstName", u.FirstName},
		{"lastName", u.LastName},
		{"taxStatus", u.TaxStatus},
		{"gender", u.Gender},
		{"dob", u.DOB},
		{"occupationCode", u.OccupationCode},
		{"holdingNature", u.HoldingNature},
		{"email", u.Email},
		{"city", u.City},
		{"state", u.State},
		{"pincode", u.Pincode},
		{"country", u.Country},
		{"account_no_1", u.AccountNo1},
		{"ifsc_code_1", u.IFSCCode1},
		{"cheque_name", u.ChequeName},
		{"primary_holder_pan", u.PrimaryHolderPAN},
	}
}

// MissingFields returns the form names of required fields left empty, in
// form order
func (u *UCCRegistration) MissingFields() []string {
	missing := []string{}
	for _, f := range u.requiredFields() {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Validate checks that every required field is present
func (u *UCCRegistration) Validate() error {
	if u == nil {
		return errRequestIsNil
	}
	required := u.requiredFields()
	checks := make([]vala.Checker, len(required))
	for i := range required {
		checks[i] = vala.StringNotEmpty(required[i].value, required[i].name)
	}
	return vala.BeginValidation().Validate(checks...).Check()
}

// regDetail maps the form onto the broker payload, filling the defaults the
// registration form relies on
func (u *UCCRegistration) regDetail() UCCRegDetail {
	return UCCRegDetail{
		ClientCode:              u.ClientCode,
		PrimaryHolderFirstName:  u.FirstName,
		PrimaryHolderMiddleName: u.MiddleName,
		PrimaryHolderLastName:   u.LastName,
		TaxStatus:               u.TaxStatus,
		Gender:                  u.Gender,
		PrimaryHolderDOB:        u.DOB,
		OccupationCode:          u.OccupationCode,
		HoldingNature:           u.HoldingNature,
		PrimaryHolderPANExempt:  orDefault(u.PrimaryHolderPANExempt, flagNo),
		PrimaryHolderPAN:        u.PrimaryHolderPAN,
		ClientType:              orDefault(u.ClientType, "P"),
		DefaultDP:               orDefault(u.DefaultDP, "CDSL"),
		CDSLDPID:                u.CDSLDPID,
		CDSLCltID:               u.CDSLCltID,
		AccountType1:            orDefault(u.AccountType1, "SB"),
		AccountNo1:              u.AccountNo1,
		IFSCCode1:               u.IFSCCode1,
		DefaultBankFlag1:        orDefault(u.DefaultBankFlag1, flagYes),
		ChequeName:              u.ChequeName,
		DivPayMode:              orDefault(u.DivPayMode, "03"),
		CommunicationMode:       orDefault(u.CommunicationMode, "P"),
		Email:                   u.Email,
		MobileDeclarationFlag:   orDefault(u.MobileDeclarationFlag, "SE"),
		EmailDeclarationFlag:    orDefault(u.EmailDeclarationFlag, "SE"),
		Address1:                u.Address1,
		City:                    u.City,
		State:                   u.State,
		Pincode:                 u.Pincode,
		Country:                 u.Country,
		ResiPhone:               u.Phone,
		IndianMobileNo:          u.MobileNo,
		PaperlessFlag:           orDefault(u.PaperlessFlag, "Z"),
		NominationOpt:           orDefault(u.NominationOpt, flagNo),
		PrimaryHolderKYCType:    orDefault(u.PrimaryHolderKYCType, "K"),
		PrimaryHolderCKYCNumber: u.CKYCNumber,
		AadhaarUpdated:          orDefault(u.AadhaarUpdated, flagYes),
	}
}

// ValidateFATCA checks that a FATCA registration payload carries at least one
// reg_details entry naming the investor and their PAN or PEKRN
func ValidateFATCA(payload json.RawMessage) error {
	var p struct {
		RegDetails []struct {
			PAN     string `json:"pan_rp"`
			PEKRN   string `json:"pekrn"`
			InvName string `json:"inv_name"`
		} `json:"reg_details"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", errFATCAPayloadInvalid, err)
	}
	if len(p.RegDetails) == 0 {
		return errFATCAPayloadInvalid
	}
	for i := range p.RegDetails {
		err := vala.BeginValidation().Validate(
			vala.StringNotEmpty(p.RegDetails[i].InvName, "inv_name"),
			func() (bool, string) {
				return p.RegDetails[i].PAN != "" || p.RegDetails[i].PEKRN != "",
					"pan_rp or pekrn must be set"
			},
		).Check()
		if err != nil {
			return fmt.Errorf("reg_details[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks the FATCA image upload fields
func (f *FATCAImage) Validate() error {
	if f == nil {
		return errRequestIsNil
	}
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(f.FileName, "file_name"),
		vala.StringNotEmpty(f.PANNo, "pan_no"),
		vala.StringNotEmpty(f.FileData, "file_data"),
	).Check()
	if err != nil {
		return err
	}
	return checkBase64(f.FileData)
}

// Validate checks the AOF image upload fields
func (a *AOFImage) Validate() error {
	if a == nil {
		return errRequestIsNil
	}
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(a.ClientCode, "client_code"),
		vala.StringNotEmpty(a.FileName, "file_name"),
		vala.StringNotEmpty(a.DocumentType, "document_type"),
		vala.StringNotEmpty(a.FileData, "file_data"),
	).Check()
	if err != nil {
		return err
	}
	return checkBase64(a.FileData)
}

// Validate checks the report window: both dates DD-MM-YYYY, from not after to
// and at most 31 days apart
func (f *FATCAReportRequest) Validate() error {
	if f == nil {
		return errRequestIsNil
	}
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(f.FromDate, "from_date"),
		vala.StringNotEmpty(f.ToDate, "to_date"),
	).Check()
	if err != nil {
		return err
	}
	return checkReportWindow(f.FromDate, f.ToDate)
}

// Validate checks the client code list and, when no client code is supplied,
// that a report window of at most 31 days is given
func (a *AOFReportRequest) Validate() error {
	if a == nil {
		return errRequestIsNil
	}
	if a.ClientCode != "" && len(strings.Split(a.ClientCode, ",")) > MaxReportClientCodes {
		return errTooManyClientCodes
	}
	if a.ClientCode == "" {
		err := vala.BeginValidation().Validate(
			vala.StringNotEmpty(a.FromDate, "from_date"),
			vala.StringNotEmpty(a.ToDate, "to_date"),
		).Check()
		if err != nil {
			return err
		}
	}
	if a.FromDate == "" || a.ToDate == "" {
		return nil
	}
	from, to, err := parseReportDates(a.FromDate, a.ToDate)
	if err != nil {
		return err
	}
	if from.After(to) {
		return errFromAfterTo
	}
	if a.ClientCode == "" && common.DaysBetween(from, to) > MaxReportWindowDays {
		return errReportWindow
	}
	return nil
}

func checkReportWindow(fromDate, toDate string) error {
	from, to, err := parseReportDates(fromDate, toDate)
	if err != nil {
		return err
	}
	if common.DaysBetween(from, to) > MaxReportWindowDays {
		return errReportWindow
	}
	if from.After(to) {
		return errFromAfterTo
	}
	return nil
}

func parseReportDates(fromDate, toDate string) (from, to time.Time, err error) {
	from, err = common.ParseDate(common.DayFirstDateLayout, "from_date", fromDate)
	if err != nil {
		return
	}
	to, err = common.ParseDate(common.DayFirstDateLayout, "to_date", toDate)
	return
}

func checkBase64(data string) error {
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return fmt.Errorf("%w: %v", errFileDataInvalid, err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
