package quote

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/noah-isme/quotecalc/internal/pricing"
)

var (
	// ErrNotFound indicates the requested row is not part of the quote.
	ErrNotFound = errors.New("quote row not found")
	// ErrInvalidInput is returned when an edit would break a row invariant.
	ErrInvalidInput = errors.New("invalid input")
)

// Patch is a partial row edit. Nil fields are left unchanged.
type Patch struct {
	Quantity              *int     `json:"quantity,omitempty"`
	Discount              *float64 `json:"discount,omitempty"`
	ConvertToSubscription *bool    `json:"convertToSubscription,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Quantity == nil && p.Discount == nil && p.ConvertToSubscription == nil
}

func (p Patch) validate(row pricing.Row) error {
	if p.Quantity != nil && *p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be at least 0", ErrInvalidInput)
	}
	if p.Discount != nil {
		d := *p.Discount
		if math.IsNaN(d) || d < 0 || d > 100 {
			return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidInput)
		}
	}
	if p.ConvertToSubscription != nil && *p.ConvertToSubscription && row.PaymentType != pricing.Deposit {
		return fmt.Errorf("%w: only deposit rows can be converted to subscription", ErrInvalidInput)
	}
	return nil
}

// checkRow enforces the row invariants on rows that arrive whole, such as those in
// an uploaded snapshot. Unknown payment types pass and are skipped at aggregation.
func checkRow(row pricing.Row) error {
	if math.IsNaN(row.Price) || math.IsInf(row.Price, 0) || row.Price < 0 {
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidInput)
	}
	q, d, c := row.Quantity, row.Discount, row.ConvertToSubscription
	return Patch{Quantity: &q, Discount: &d, ConvertToSubscription: &c}.validate(row)
}

// Quote is the active row collection: rows keyed by id plus their insertion order.
// It is not safe for concurrent use; Service serialises access.
type Quote struct {
	rows  map[string]pricing.Row
	order []string
	newID func() string
}

// New returns an empty quote. newID defaults to random UUIDs.
func New(newID func() string) *Quote {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Quote{rows: make(map[string]pricing.Row), newID: newID}
}

// Add places item into the quote with quantity 1 and no discount.
func (q *Quote) Add(item pricing.Item) pricing.Row {
	row := pricing.Row{Item: item, ID: q.uniqueID(""), Quantity: 1}
	q.rows[row.ID] = row
	q.order = append(q.order, row.ID)
	return row
}

// Get returns the row with id.
func (q *Quote) Get(id string) (pricing.Row, bool) {
	row, ok := q.rows[id]
	return row, ok
}

// Update applies p to the row with id.
func (q *Quote) Update(id string, p Patch) (pricing.Row, error) {
	row, ok := q.rows[id]
	if !ok {
		return pricing.Row{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := p.validate(row); err != nil {
		return pricing.Row{}, err
	}
	if p.Quantity != nil {
		row.Quantity = *p.Quantity
	}
	if p.Discount != nil {
		row.Discount = *p.Discount
	}
	if p.ConvertToSubscription != nil {
		row.ConvertToSubscription = *p.ConvertToSubscription
	}
	q.rows[id] = row
	return row, nil
}

// Remove deletes the row with id.
func (q *Quote) Remove(id string) error {
	if _, ok := q.rows[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(q.rows, id)
	for i, existing := range q.order {
		if existing == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every row.
func (q *Quote) Clear() {
	q.rows = make(map[string]pricing.Row)
	q.order = nil
}

// Len reports the number of rows.
func (q *Quote) Len() int {
	return len(q.order)
}

// Rows returns a copy of the rows in insertion order.
func (q *Quote) Rows() []pricing.Row {
	out := make([]pricing.Row, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.rows[id])
	}
	return out
}

// Replace swaps the contents for rows, keeping their order. Rows without an id, or
// whose id repeats an earlier row, get a fresh one.
func (q *Quote) Replace(rows []pricing.Row) {
	q.Clear()
	for _, row := range rows {
		row.ID = q.uniqueID(row.ID)
		q.rows[row.ID] = row
		q.order = append(q.order, row.ID)
	}
}

func (q *Quote) uniqueID(candidate string) string {
	id := candidate
	for {
		if id != "" {
			if _, taken := q.rows[id]; !taken {
				return id
			}
		}
		id = q.newID()
	}
}
