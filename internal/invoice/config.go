package invoice

import (
	"errors"
	"time"

	"github.com/noah-isme/quotecalc/internal/common"
)

// DocumentType selects the title and labels of the rendered document.
type DocumentType string

const (
	// TypeInvoice renders a tax invoice.
	TypeInvoice DocumentType = "invoice"
	// TypeQuote renders a quotation.
	TypeQuote DocumentType = "quote"
)

// DateLayout is the layout of every date field in Config.
const DateLayout = "2006-01-02"

const defaultTermsAndConditions = "Anything not explicitly mentioned above (e.g., extra revisions, shoot time, music, " +
	"voiceovers, B-roll, social media formatting, additional graphics, or extended video length) is not included " +
	"and will be billed separately if requested."

// Config is the user-editable document metadata.
type Config struct {
	CompanyName    string `json:"companyName" validate:"required"`
	CompanyAddress string `json:"companyAddress" validate:"required"`
	CompanyCity    string `json:"companyCity" validate:"required"`
	CompanyEmail   string `json:"companyEmail" validate:"required,email"`
	CompanyLogo    string `json:"companyLogo,omitempty"`

	DocumentType  DocumentType `json:"documentType,omitempty" validate:"omitempty,oneof=invoice quote"`
	InvoiceNumber string       `json:"invoiceNumber" validate:"required"`
	InvoiceDate   string       `json:"invoiceDate" validate:"required,datetime=2006-01-02"`
	Terms         string       `json:"terms" validate:"required"`
	DueDate       string       `json:"dueDate" validate:"required,datetime=2006-01-02"`
	PONumber      string       `json:"poNumber,omitempty"`

	ClientName           string `json:"clientName" validate:"required"`
	ClientEmail          string `json:"clientEmail,omitempty" validate:"omitempty,email"`
	ClientPhone          string `json:"clientPhone,omitempty"`
	ClientWebsite        string `json:"clientWebsite,omitempty"`
	ClientBillingAddress string `json:"clientBillingAddress,omitempty"`

	Subject            string `json:"subject,omitempty"`
	Notes              string `json:"notes,omitempty"`
	TermsAndConditions string `json:"termsAndConditions,omitempty"`
}

// DefaultConfig returns the starting configuration for a new quote issued at now.
func DefaultConfig(now time.Time) Config {
	return Config{
		DocumentType:       TypeQuote,
		InvoiceNumber:      "QT-000001",
		InvoiceDate:        now.Format(DateLayout),
		Terms:              "Due on Receipt",
		DueDate:            now.AddDate(0, 0, 30).Format(DateLayout),
		Notes:              "Looking forward for your business.",
		TermsAndConditions: defaultTermsAndConditions,
	}
}

// Validate checks the required fields a rendered document depends on.
func (c Config) Validate() error {
	return common.ValidateStruct(c)
}

// CheckDraft validates only the fields that are filled in. A saved draft may still
// lack required fields but must not carry malformed ones.
func (c Config) CheckDraft() error {
	checks := []struct {
		field, value, tag, message string
	}{
		{"companyEmail", c.CompanyEmail, "omitempty,email", "must be a valid email address"},
		{"clientEmail", c.ClientEmail, "omitempty,email", "must be a valid email address"},
		{"invoiceDate", c.InvoiceDate, "omitempty,datetime=" + DateLayout, "must be a date like " + DateLayout},
		{"dueDate", c.DueDate, "omitempty,datetime=" + DateLayout, "must be a date like " + DateLayout},
		{"documentType", string(c.DocumentType), "omitempty,oneof=invoice quote", "must be one of: invoice quote"},
	}
	var fields []common.FieldError
	for _, ch := range checks {
		if err := common.Validator().Var(ch.value, ch.tag); err != nil {
			fields = append(fields, common.FieldError{Field: ch.field, Message: ch.message})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return common.NewValidationError(errors.New("invoice config is malformed"), fields)
}

func (c Config) documentType() DocumentType {
	if c.DocumentType == TypeQuote {
		return TypeQuote
	}
	return TypeInvoice
}
