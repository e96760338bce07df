package query

import (
	"testing"
	"time"

	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var titles = []string{"Huskers vs Iowa", "Jazz Night", "Spring Volleyball", "Symphony", "Huskers Baseball"}

func genListings(t *rapid.T) []domain.Listing {
	cats := domain.Categories()
	n := rapid.IntRange(0, 40).Draw(t, "n")
	out := make([]domain.Listing, n)
	for i := range out {
		out[i] = domain.Listing{
			ID:        int64(i + 1),
			Title:     rapid.SampledFrom(titles).Draw(t, "title"),
			Category:  rapid.SampledFrom(cats).Draw(t, "category"),
			Price:     decimal.New(rapid.Int64Range(0, 20000).Draw(t, "cents"), -2),
			EventDate: base.Add(time.Duration(rapid.IntRange(0, 24*14).Draw(t, "hours")) * time.Hour),
		}
	}
	return out
}

func genFilter(t *rapid.T) FilterSpec {
	var filter FilterSpec
	if rapid.Bool().Draw(t, "withCategories") {
		filter.Categories = rapid.SliceOfNDistinct(rapid.SampledFrom(domain.Categories()), 1, 3, rapid.ID[domain.Category]).Draw(t, "categories")
	}
	if rapid.Bool().Draw(t, "withMax") {
		p := decimal.New(rapid.Int64Range(0, 20000).Draw(t, "maxCents"), -2)
		filter.MaxPrice = &p
	}
	if rapid.Bool().Draw(t, "withRange") {
		from := base.Add(time.Duration(rapid.IntRange(0, 24*7).Draw(t, "fromHours")) * time.Hour)
		filter.DateRange = &DateRange{From: from}
		if rapid.Bool().Draw(t, "withEnd") {
			filter.DateRange.To = from.Add(time.Duration(rapid.IntRange(0, 24*7).Draw(t, "spanHours")) * time.Hour)
		}
	}
	if rapid.Bool().Draw(t, "withSearch") {
		filter.SearchText = rapid.SampledFrom([]string{"huskers", "JAZZ", "ball", "night"}).Draw(t, "search")
	}
	return filter
}

func TestProperty_ResultIsSortedSubset(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := genListings(t)
		filter := genFilter(t)
		got := Apply(in, filter)

		byID := make(map[int64]domain.Listing, len(in))
		for _, l := range in {
			byID[l.ID] = l
		}
		seen := make(map[int64]bool, len(got))
		for i, l := range got {
			if _, ok := byID[l.ID]; !ok {
				t.Fatalf("result contains listing %d not in input", l.ID)
			}
			if seen[l.ID] {
				t.Fatalf("listing %d returned twice", l.ID)
			}
			seen[l.ID] = true
			if i > 0 {
				prev := got[i-1]
				if prev.Price.GreaterThan(l.Price) {
					t.Fatalf("unsorted at %d: %s > %s", i, prev.Price, l.Price)
				}
				if prev.Price.Equal(l.Price) && prev.ID > l.ID {
					t.Fatalf("tie at %d not in input order: %d before %d", i, prev.ID, l.ID)
				}
			}
		}

		m := newMatcher(filter)
		for _, l := range in {
			if m.match(l) != seen[l.ID] {
				t.Fatalf("listing %d: match=%v but returned=%v", l.ID, m.match(l), seen[l.ID])
			}
		}
	})
}

func TestProperty_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := genListings(t)
		filter := genFilter(t)
		a, b := Apply(in, filter), Apply(in, filter)
		if len(a) != len(b) {
			t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if a[i].ID != b[i].ID {
				t.Fatalf("position %d differs: %d vs %d", i, a[i].ID, b[i].ID)
			}
		}
		for i, l := range in {
			if l.ID != int64(i+1) {
				t.Fatalf("input mutated at %d", i)
			}
		}
	})
}

func TestProperty_OpenRangeCoversRestOfStartDay(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := genListings(t)
		from := base.Add(time.Duration(rapid.IntRange(0, 24*14).Draw(t, "fromHours")) * time.Hour)
		got := Apply(in, FilterSpec{DateRange: &DateRange{From: from}})

		returned := make(map[int64]bool, len(got))
		for _, l := range got {
			returned[l.ID] = true
		}
		y, m, d := from.Date()
		for _, l := range in {
			ly, lm, ld := l.EventDate.Date()
			want := !l.EventDate.Before(from) && ly == y && lm == m && ld == d
			if returned[l.ID] != want {
				t.Fatalf("listing %d at %s with from %s: returned=%v want %v", l.ID, l.EventDate, from, returned[l.ID], want)
			}
		}
	})
}
