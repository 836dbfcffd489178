package invoice

import "strings"

// FacetKind names the single-select categorical filters
type FacetKind string

const (
	FacetNone     FacetKind = ""
	FacetMonth    FacetKind = "month"
	FacetCategory FacetKind = "category"
	FacetStore    FacetKind = "store"
)

// Facet is one selected facet value. Facets are mutually exclusive: selecting
// a new one replaces the previous selection.
type Facet struct {
	Kind  FacetKind
	Value string
}

// UnknownMonth buckets invoices whose dated field does not parse
const UnknownMonth = "Unknown"

// MonthBucket returns the calendar month+year group of an invoice, e.g.
// "January 2024", or UnknownMonth when the date does not parse.
func MonthBucket(inv *Invoice) string {
	t, err := ParseStoredDate(inv.Dated)
	if err != nil {
		return UnknownMonth
	}
	return t.Format("January 2006")
}

// matchesQuery reports whether the store name or any item product contains
// the query, case-insensitively. An empty query matches everything.
func matchesQuery(inv *Invoice, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(inv.StoreName), query) {
		return true
	}
	for _, it := range inv.Items {
		if strings.Contains(strings.ToLower(it.Product), query) {
			return true
		}
	}
	return false
}

func matchesFacet(inv *Invoice, facet Facet) bool {
	switch facet.Kind {
	case FacetNone:
		return true
	case FacetMonth:
		return MonthBucket(inv) == facet.Value
	case FacetCategory:
		return strings.EqualFold(inv.Category, facet.Value)
	case FacetStore:
		return strings.EqualFold(inv.StoreName, facet.Value)
	}
	return true
}

// Filter selects the visible subset for a free-text query and at most one
// facet. Query and facet compose with logical AND. The result is a
// subsequence of the input: stored (newest-first) order is preserved and the
// input is never mutated.
func Filter(invoices []*Invoice, query string, facet Facet) []*Invoice {
	out := make([]*Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if matchesQuery(inv, query) && matchesFacet(inv, facet) {
			out = append(out, inv)
		}
	}
	return out
}

// FacetValues enumerates the distinct values available for one facet kind, in
// first-appearance (newest-first) order.
func FacetValues(invoices []*Invoice, kind FacetKind) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, inv := range invoices {
		var v string
		switch kind {
		case FacetMonth:
			v = MonthBucket(inv)
		case FacetCategory:
			v = inv.Category
		case FacetStore:
			v = inv.StoreName
		default:
			return values
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

// Window is the paginated "visible count" over a filtered subset. Changing
// the query or facet resets it to the initial page size.
type Window struct {
	pageSize int
	visible  int
	query    string
	facet    Facet
}

// NewWindow creates a Window showing one page
func NewWindow(pageSize int) *Window {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Window{pageSize: pageSize, visible: pageSize}
}

// Update records the active query and facet, resetting the visible count
// whenever either changes.
func (w *Window) Update(query string, facet Facet) {
	if query != w.query || facet != w.facet {
		w.query = query
		w.facet = facet
		w.visible = w.pageSize
	}
}

// More grows the window by one page
func (w *Window) More() {
	w.visible += w.pageSize
}

// Clip returns the leading visible portion of a filtered subset
func (w *Window) Clip(invoices []*Invoice) []*Invoice {
	if len(invoices) <= w.visible {
		return invoices
	}
	return invoices[:w.visible]
}
