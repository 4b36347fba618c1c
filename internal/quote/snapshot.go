package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/noah-isme/quotecalc/internal/invoice"
	"github.com/noah-isme/quotecalc/internal/pricing"
)

// ErrTotalsMismatch is returned when stored totals differ from a fresh aggregation of the stored rows.
var ErrTotalsMismatch = errors.New("snapshot totals do not match rows")

// Snapshot is the saved form of a quote. Totals are informational; rows and config are
// the state that gets restored.
type Snapshot struct {
	Rows          []pricing.Row  `json:"rows"`
	Totals        pricing.Totals `json:"totals"`
	InvoiceConfig invoice.Config `json:"invoiceConfig"`
}

// NewSnapshot captures rows and cfg together with their freshly aggregated totals.
func NewSnapshot(rows []pricing.Row, cfg invoice.Config) Snapshot {
	if rows == nil {
		rows = []pricing.Row{}
	}
	return Snapshot{Rows: rows, Totals: pricing.Aggregate(rows), InvoiceConfig: cfg}
}

// Encode writes the snapshot as indented JSON.
func (s Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// DecodeSnapshot reads a snapshot, accepting legacy row shapes.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode snapshot: %w", ErrInvalidInput, err)
	}
	if s.Rows == nil {
		s.Rows = []pricing.Row{}
	}
	return s, nil
}

// Verify recomputes the totals from the rows and compares them bit for bit.
func (s Snapshot) Verify() error {
	fresh := pricing.Aggregate(s.Rows)
	pairs := []struct {
		name        string
		stored, got float64
	}{
		{"subscriptionTotal", s.Totals.Subscription, fresh.Subscription},
		{"depositTotal", s.Totals.Deposit, fresh.Deposit},
		{"depositOriginalTotal", s.Totals.DepositOriginal, fresh.DepositOriginal},
		{"fullTotal", s.Totals.Full, fresh.Full},
		{"grandTotal", s.Totals.Grand, fresh.Grand},
	}
	for _, p := range pairs {
		if math.Float64bits(p.stored) != math.Float64bits(p.got) {
			return fmt.Errorf("%w: %s stored %v, computed %v", ErrTotalsMismatch, p.name, p.stored, p.got)
		}
	}
	return nil
}
