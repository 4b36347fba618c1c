package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/quotecalc/internal/pricing"
)

// AllCategories is the category filter value that matches every item.
const AllCategories = "all"

// Catalog holds the priced items a quote can be built from.
type Catalog struct {
	mu    sync.RWMutex
	items []pricing.Item
}

// New returns a catalog over a copy of items.
func New(items []pricing.Item) *Catalog {
	c := &Catalog{}
	c.Replace(items)
	return c
}

// Replace swaps the catalog contents, e.g. after a fresh import.
func (c *Catalog) Replace(items []pricing.Item) {
	cp := make([]pricing.Item, len(items))
	copy(cp, items)
	c.mu.Lock()
	c.items = cp
	c.mu.Unlock()
}

// Items returns a copy of every item in import order.
func (c *Catalog) Items() []pricing.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := make([]pricing.Item, len(c.items))
	copy(cp, c.items)
	return cp
}

// Len reports the number of items.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Find returns the first item with the given name, ignoring case.
func (c *Catalog) Find(name string) (pricing.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if strings.EqualFold(it.Name, strings.TrimSpace(name)) {
			return it, true
		}
	}
	return pricing.Item{}, false
}

// Filter returns the items in category (or every category for "" and "all") whose
// name, category, short description or description contains query, ignoring case.
func (c *Catalog) Filter(category, query string) []pricing.Item {
	category = strings.TrimSpace(category)
	query = strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]pricing.Item, 0, len(c.items))
	for _, it := range c.items {
		if category != "" && !strings.EqualFold(category, AllCategories) && !strings.EqualFold(categoryOf(it), category) {
			continue
		}
		if query != "" && !matches(it, query) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Categories lists the distinct categories in sorted order.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{}, len(c.items))
	out := make([]string, 0)
	for _, it := range c.items {
		cat := categoryOf(it)
		if cat == "" {
			continue
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// categoryOf falls back to the payment type for catalogs without a display category column.
func categoryOf(it pricing.Item) string {
	if it.Category != "" {
		return it.Category
	}
	return string(it.PaymentType)
}

func matches(it pricing.Item, query string) bool {
	for _, field := range []string{it.Name, categoryOf(it), it.ShortDescription, it.Description} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
