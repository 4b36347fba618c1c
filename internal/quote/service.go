package quote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/quotecalc/internal/invoice"
	"github.com/noah-isme/quotecalc/internal/obs"
	"github.com/noah-isme/quotecalc/internal/pricing"
)

// Summary is the calculator view of the quote.
type Summary struct {
	Rows              []pricing.Row  `json:"rows"`
	Totals            pricing.Totals `json:"totals"`
	BalanceOnDelivery float64        `json:"balanceOnDelivery"`
	RowCount          int            `json:"rowCount"`
	Skipped           []string       `json:"skipped,omitempty"`
}

// Service owns the active quote and its document configuration. Every mutation is
// followed by a save to Store; save failures are logged and do not undo the edit.
type Service struct {
	Store  Store
	Logger zerolog.Logger
	Money  invoice.Money
	Now    func() time.Time

	mu     sync.Mutex
	quote  *Quote
	config invoice.Config
}

// NewService returns a service with an empty quote and the default document config.
func NewService(store Store, logger zerolog.Logger) *Service {
	s := &Service{Store: store, Logger: logger, Money: invoice.DefaultMoney}
	s.quote = New(nil)
	s.config = invoice.DefaultConfig(s.now())
	return s
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) money() invoice.Money {
	if s.Money.Symbol == "" && s.Money.Code == "" {
		return invoice.DefaultMoney
	}
	return s.Money
}

func (s *Service) ensure() {
	if s.quote == nil {
		s.quote = New(nil)
		s.config = invoice.DefaultConfig(s.now())
	}
}

// Add places item into the quote.
func (s *Service) Add(ctx context.Context, item pricing.Item) (pricing.Row, error) {
	pt, err := pricing.ParsePaymentType(string(item.PaymentType))
	if err != nil {
		return pricing.Row{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	item.PaymentType = pt
	if item.Name == "" {
		return pricing.Row{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if item.Price < 0 || math.IsNaN(item.Price) {
		return pricing.Row{}, fmt.Errorf("%w: price must be a non-negative number", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	row := s.quote.Add(item)
	s.mutated(ctx, "add")
	return row, nil
}

// Update applies a patch to one row.
func (s *Service) Update(ctx context.Context, id string, p Patch) (pricing.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	row, err := s.quote.Update(id, p)
	if err != nil {
		return pricing.Row{}, err
	}
	s.mutated(ctx, "update")
	return row, nil
}

// Remove deletes one row.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	if err := s.quote.Remove(id); err != nil {
		return err
	}
	s.mutated(ctx, "remove")
	return nil
}

// Clear removes every row and keeps the document config.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	s.quote.Clear()
	s.mutated(ctx, "clear")
}

// Rows returns the rows in insertion order.
func (s *Service) Rows() []pricing.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	return s.quote.Rows()
}

// Summary recomputes the totals from the current rows.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	rows := s.quote.Rows()
	totals, skipped := s.aggregate(rows)
	return Summary{
		Rows:              rows,
		Totals:            totals,
		BalanceOnDelivery: totals.BalanceOnDelivery(),
		RowCount:          len(rows),
		Skipped:           skipped,
	}
}

// Config returns the document configuration.
func (s *Service) Config() invoice.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	return s.config
}

// SetConfig validates and replaces the document configuration.
func (s *Service) SetConfig(ctx context.Context, cfg invoice.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	s.config = cfg
	s.persist(ctx)
	return nil
}

// Export captures the rows, totals and config.
func (s *Service) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	return s.snapshot()
}

// Import replaces the quote with snap. Rows breaking an invariant or a malformed
// config reject the whole snapshot. Stored totals that disagree with the rows are
// logged and recomputed.
func (s *Service) Import(ctx context.Context, snap Snapshot) error {
	for i, row := range snap.Rows {
		if err := checkRow(row); err != nil {
			return fmt.Errorf("row %d (%s): %w", i+1, row.Name, err)
		}
	}
	if snap.InvoiceConfig != (invoice.Config{}) {
		if err := snap.InvoiceConfig.CheckDraft(); err != nil {
			return err
		}
	}
	if err := snap.Verify(); err != nil {
		s.log(ctx).Warn().Err(err).Msg("imported totals ignored")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(snap)
	s.mutated(ctx, "import")
	return nil
}

// Load restores the saved quote. A store with nothing saved leaves the quote empty.
func (s *Service) Load(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	snap, err := s.Store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoState) {
			return nil
		}
		return fmt.Errorf("load quote: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(snap)
	s.Logger.Info().Int("rows", s.quote.Len()).Msg("quote restored")
	return nil
}

// Save writes the current quote to Store.
func (s *Service) Save(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	s.mu.Lock()
	s.ensure()
	snap := s.snapshot()
	s.mu.Unlock()
	if err := s.Store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save quote: %w", err)
	}
	return nil
}

// Document projects the quote into the document rendered by the preview and print views.
func (s *Service) Document(_ context.Context) (invoice.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	rows := s.quote.Rows()
	totals, _ := s.aggregate(rows)
	return invoice.Project(s.config, rows, totals, s.money()), nil
}

func (s *Service) restore(snap Snapshot) {
	s.ensure()
	s.quote.Replace(snap.Rows)
	cfg := snap.InvoiceConfig
	if cfg == (invoice.Config{}) {
		cfg = invoice.DefaultConfig(s.now())
	}
	s.config = cfg
}

func (s *Service) snapshot() Snapshot {
	return NewSnapshot(s.quote.Rows(), s.config)
}

func (s *Service) aggregate(rows []pricing.Row) (pricing.Totals, []string) {
	obs.ObserveRecompute()
	buckets := pricing.Partition(rows)
	var skipped []string
	if len(buckets.Skipped) > 0 {
		skipped = make([]string, 0, len(buckets.Skipped))
		for _, row := range buckets.Skipped {
			skipped = append(skipped, row.ID)
			s.Logger.Warn().Str("row_id", row.ID).Str("payment_type", string(row.PaymentType)).Msg("row skipped: unknown payment type")
		}
	}
	return pricing.Aggregate(rows), skipped
}

func (s *Service) mutated(ctx context.Context, op string) {
	obs.ObserveRowMutation(op)
	s.persist(ctx)
}

func (s *Service) persist(ctx context.Context) {
	if s.Store == nil {
		return
	}
	if err := s.Store.Save(ctx, s.snapshot()); err != nil {
		s.log(ctx).Warn().Err(err).Msg("save quote failed")
	}
}

// log prefers the request-scoped logger so warnings carry the request id.
func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}
