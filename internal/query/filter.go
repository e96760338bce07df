// Package query reduces a snapshot of listings to the ordered result set shown
// to buyers.
package query

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// DateRange bounds the event date, inclusive on both ends.
type DateRange struct {
	From time.Time
	To   time.Time
}

// FilterSpec holds the buyer-supplied constraints. A zero FilterSpec matches
// every listing.
type FilterSpec struct {
	Categories []domain.Category
	MaxPrice   *decimal.Decimal
	DateRange  *DateRange
	SearchText string
}

// Apply returns the listings matching filter sorted ascending by price. Ties
// keep their input order. The input slice is not modified.
func Apply(listings []domain.Listing, filter FilterSpec) []domain.Listing {
	m := newMatcher(filter)
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if m.match(l) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Listing) int {
		return a.Price.Cmp(b.Price)
	})
	return out
}

type matcher struct {
	categories map[domain.Category]struct{}
	maxPrice   *decimal.Decimal
	from, to   time.Time
	hasRange   bool
	needle     string
}

func newMatcher(filter FilterSpec) matcher {
	m := matcher{maxPrice: filter.MaxPrice, needle: strings.ToLower(filter.SearchText)}
	if len(filter.Categories) > 0 {
		m.categories = make(map[domain.Category]struct{}, len(filter.Categories))
		for _, c := range filter.Categories {
			m.categories[c] = struct{}{}
		}
	}
	if filter.DateRange != nil {
		m.hasRange = true
		m.from, m.to = filter.DateRange.bounds()
	}
	return m
}

func (m matcher) match(l domain.Listing) bool {
	if m.categories != nil {
		if _, ok := m.categories[l.Category]; !ok {
			return false
		}
	}
	if m.maxPrice != nil && l.Price.GreaterThan(*m.maxPrice) {
		return false
	}
	if m.hasRange && (l.EventDate.Before(m.from) || l.EventDate.After(m.to)) {
		return false
	}
	if m.needle != "" && !strings.Contains(strings.ToLower(l.Title), m.needle) {
		return false
	}
	return true
}

// bounds resolves the inclusive window. A missing end means the end of the
// start day, and an end at midnight covers that whole day.
func (r DateRange) bounds() (time.Time, time.Time) {
	switch {
	case r.To.IsZero():
		return r.From, endOfDay(r.From)
	case r.To.Equal(startOfDay(r.To)):
		return r.From, endOfDay(r.To)
	default:
		return r.From, r.To
	}
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

const dateOnly = "2006-01-02"

// ParseFilter builds a FilterSpec from request query parameters:
// category (repeatable or comma separated), max_price, from, to and q.
func ParseFilter(v url.Values) (FilterSpec, error) {
	var filter FilterSpec
	for _, raw := range v["category"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, ok := domain.ParseCategory(part)
			if !ok {
				return FilterSpec{}, &domain.ValidationError{Field: "category", Reason: "unrecognized category " + part}
			}
			filter.Categories = append(filter.Categories, c)
		}
	}

	if s := strings.TrimSpace(v.Get("max_price")); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return FilterSpec{}, &domain.ValidationError{Field: "max_price", Reason: "not a decimal"}
		}
		if p.IsNegative() {
			return FilterSpec{}, &domain.ValidationError{Field: "max_price", Reason: "must not be negative"}
		}
		filter.MaxPrice = &p
	}

	from, to := strings.TrimSpace(v.Get("from")), strings.TrimSpace(v.Get("to"))
	if from != "" || to != "" {
		if from == "" {
			return FilterSpec{}, &domain.ValidationError{Field: "from", Reason: "required when to is set"}
		}
		r := &DateRange{}
		var err error
		if r.From, err = parseTime(from); err != nil {
			return FilterSpec{}, &domain.ValidationError{Field: "from", Reason: "expected RFC3339 or YYYY-MM-DD"}
		}
		if to != "" {
			if r.To, err = parseTime(to); err != nil {
				return FilterSpec{}, &domain.ValidationError{Field: "to", Reason: "expected RFC3339 or YYYY-MM-DD"}
			}
			if _, end := r.bounds(); end.Before(r.From) {
				return FilterSpec{}, &domain.ValidationError{Field: "to", Reason: "must not be before from"}
			}
		}
		filter.DateRange = r
	}

	filter.SearchText = strings.TrimSpace(v.Get("q"))
	return filter, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateOnly, s)
}
