package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPaymentType is returned when a payment type label is not one of the supported values.
var ErrUnknownPaymentType = errors.New("unknown payment type")

// PaymentType describes how a line is billed.
type PaymentType string

const (
	// Subscription lines recur and bill their full discounted amount.
	Subscription PaymentType = "subscription"
	// Deposit lines bill DepositMultiplier of their amount unless converted.
	Deposit PaymentType = "deposit"
	// Full lines are one-time payments billed in full.
	Full PaymentType = "full"
)

// Valid reports whether p is one of the three supported payment types.
func (p PaymentType) Valid() bool {
	switch p {
	case Subscription, Deposit, Full:
		return true
	default:
		return false
	}
}

// ParsePaymentType normalises a label such as " Deposit " into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	p := PaymentType(strings.ToLower(strings.TrimSpace(value)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentType, value)
	}
	return p, nil
}

// MarshalText implements encoding.TextMarshaler.
func (p PaymentType) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

// UnmarshalText keeps unrecognised labels as-is so Partition can skip them.
func (p *PaymentType) UnmarshalText(data []byte) error {
	parsed, err := ParsePaymentType(string(data))
	if err != nil {
		*p = PaymentType(string(data))
		return nil
	}
	*p = parsed
	return nil
}

// Item is a catalog entry. Category is a display grouping only.
type Item struct {
	Name             string      `json:"name" validate:"required"`
	Price            float64     `json:"price" validate:"gte=0"`
	Category         string      `json:"category,omitempty"`
	PaymentType      PaymentType `json:"paymentType" validate:"oneof=subscription deposit full"`
	Description      string      `json:"description,omitempty"`
	ShortDescription string      `json:"shortDescription,omitempty"`
}

// Row is an Item placed into the active quote.
type Row struct {
	Item
	ID                    string  `json:"id"`
	Quantity              int     `json:"quantity"`
	Discount              float64 `json:"discount"`
	ConvertToSubscription bool    `json:"convertToSubscription,omitempty"`
}

// legacyRow mirrors older saved quotes that used a two-valued category plus isFullPayment.
type legacyRow struct {
	Item
	ID                    string  `json:"id"`
	Quantity              int     `json:"quantity"`
	Discount              float64 `json:"discount"`
	ConvertToSubscription bool    `json:"convertToSubscription"`
	IsFullPayment         *bool   `json:"isFullPayment"`
	LegacyDescription     string  `json:"Description"`
}

// UnmarshalJSON accepts both the canonical row shape and the legacy category/isFullPayment shape.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw legacyRow
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.PaymentType == "" {
		switch strings.ToLower(strings.TrimSpace(raw.Category)) {
		case "subscription":
			raw.PaymentType = Subscription
			raw.Category = ""
		case "oneshot", "one-shot", "one_shot":
			raw.PaymentType = Deposit
			if raw.IsFullPayment != nil && *raw.IsFullPayment {
				raw.PaymentType = Full
			}
			raw.Category = ""
		}
	}
	if raw.Description == "" {
		raw.Description = raw.LegacyDescription
	}
	*r = Row{
		Item:                  raw.Item,
		ID:                    raw.ID,
		Quantity:              raw.Quantity,
		Discount:              raw.Discount,
		ConvertToSubscription: raw.ConvertToSubscription,
	}
	return nil
}

// Amount holds the billed and pre-multiplier values of a single line.
type Amount struct {
	Display  float64 `json:"displayAmount"`
	Original float64 `json:"originalAmount"`
}

// Totals aggregates line amounts by payment type.
type Totals struct {
	Subscription    float64 `json:"subscriptionTotal"`
	Deposit         float64 `json:"depositTotal"`
	DepositOriginal float64 `json:"depositOriginalTotal"`
	Full            float64 `json:"fullTotal"`
	Grand           float64 `json:"grandTotal"`
}

// BalanceOnDelivery is the deposit remainder owed later. It is informational and never invoiced.
func (t Totals) BalanceOnDelivery() float64 {
	return t.DepositOriginal - t.Deposit
}

// Buckets is the result of Partition. Skipped holds rows with an unrecognised payment type.
type Buckets struct {
	Subscription []Row
	Deposit      []Row
	Full         []Row
	Skipped      []Row
}

// Ordered concatenates the buckets in display order: subscription, deposit, full.
func (b Buckets) Ordered() []Row {
	out := make([]Row, 0, len(b.Subscription)+len(b.Deposit)+len(b.Full))
	out = append(out, b.Subscription...)
	out = append(out, b.Deposit...)
	out = append(out, b.Full...)
	return out
}
