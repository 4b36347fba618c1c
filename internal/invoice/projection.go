package invoice

import (
	"fmt"
	"strconv"
	"time"

	"github.com/noah-isme/quotecalc/internal/pricing"
)

// DepositPrefix marks deposit lines that bill only the deposit share.
var DepositPrefix = fmt.Sprintf("%g%% Deposit - ", pricing.DepositMultiplier*100)

// Company identifies the issuer in the document header.
type Company struct {
	Name    string
	Address string
	City    string
	Email   string
	Logo    string
}

// InfoRow is a label/value pair in the document info block.
type InfoRow struct {
	Label string
	Value string
}

// Line is a rendered line item. Numeric fields carry the raw values, *Text fields the
// formatted strings every renderer prints.
type Line struct {
	Index         int
	Name          string
	Description   string
	PaymentType   pricing.PaymentType
	Quantity      int
	QuantityText  string
	Rate          float64
	RateText      string
	Amount        float64
	AmountText    string
	Discount      float64
	DiscountLabel string
}

// TotalsBlock holds the figures printed beneath the line items.
type TotalsBlock struct {
	SubTotal       float64
	SubTotalText   string
	Total          float64
	TotalText      string
	BalanceDue     float64
	BalanceDueText string
	InWords        string
}

// Document is the single view-model shared by the screen and print renderers.
type Document struct {
	Title      string
	Company    Company
	Info       []InfoRow
	BillTo     string
	ClientInfo []InfoRow
	Subject    string
	Lines      []Line
	Totals     TotalsBlock
	Notes      string
	Terms      string
}

// Project builds the document for rows and their totals. Lines follow the
// subscription, deposit, full bucket order and keep insertion order within a bucket.
// Rows with an unrecognised payment type do not appear.
func Project(cfg Config, rows []pricing.Row, totals pricing.Totals, money Money) Document {
	doc := Document{
		Title: "TAX INVOICE",
		Company: Company{
			Name:    cfg.CompanyName,
			Address: cfg.CompanyAddress,
			City:    cfg.CompanyCity,
			Email:   cfg.CompanyEmail,
			Logo:    cfg.CompanyLogo,
		},
		BillTo:  cfg.ClientName,
		Subject: cfg.Subject,
		Notes:   cfg.Notes,
		Terms:   cfg.TermsAndConditions,
	}

	numberLabel, dateLabel := "#", "Invoice Date"
	if cfg.documentType() == TypeQuote {
		doc.Title = "QUOTE"
		numberLabel, dateLabel = "Quote #", "Date"
	}
	doc.Info = []InfoRow{
		{Label: numberLabel, Value: cfg.InvoiceNumber},
		{Label: dateLabel, Value: displayDate(cfg.InvoiceDate)},
		{Label: "Terms", Value: cfg.Terms},
		{Label: "Due Date", Value: displayDate(cfg.DueDate)},
	}
	if cfg.PONumber != "" {
		doc.Info = append(doc.Info, InfoRow{Label: "P.O.#", Value: cfg.PONumber})
	}
	for _, row := range []InfoRow{
		{Label: "Email", Value: cfg.ClientEmail},
		{Label: "Phone", Value: cfg.ClientPhone},
		{Label: "Website", Value: cfg.ClientWebsite},
		{Label: "Billing Address", Value: cfg.ClientBillingAddress},
	} {
		if row.Value != "" {
			doc.ClientInfo = append(doc.ClientInfo, row)
		}
	}

	ordered := pricing.Partition(rows).Ordered()
	doc.Lines = make([]Line, 0, len(ordered))
	for i, row := range ordered {
		doc.Lines = append(doc.Lines, projectLine(i+1, row, money))
	}

	subTotal := totals.Subscription + totals.Deposit + totals.Full
	doc.Totals = TotalsBlock{
		SubTotal:       subTotal,
		SubTotalText:   money.Format(subTotal),
		Total:          totals.Grand,
		TotalText:      money.FormatWithCode(totals.Grand),
		BalanceDue:     totals.Grand,
		BalanceDueText: money.FormatWithCode(totals.Grand),
		InWords:        TotalInWords(totals.Grand),
	}
	return doc
}

func projectLine(index int, row pricing.Row, money Money) Line {
	amount := pricing.LineAmount(row).Display
	name := row.Name
	if row.PaymentType == pricing.Deposit && !row.ConvertToSubscription {
		name = DepositPrefix + name
	}
	line := Line{
		Index:        index,
		Name:         name,
		Description:  row.Description,
		PaymentType:  row.PaymentType,
		Quantity:     row.Quantity,
		QuantityText: FormatQuantity(row.Quantity),
		Rate:         row.Price,
		RateText:     money.Format(row.Price),
		Amount:       amount,
		AmountText:   money.Format(amount),
		Discount:     row.Discount,
	}
	if row.Discount > 0 {
		line.DiscountLabel = "Discount: " + strconv.FormatFloat(row.Discount, 'f', -1, 64) + "%"
	}
	return line
}

func displayDate(value string) string {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return value
	}
	return t.Format("02 Jan 2006")
}
