package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Listing struct {
	ID            int64           `json:"id"`
	OwnerIdentity string          `json:"owner_identity"`
	Title         string          `json:"title"`
	Category      Category        `json:"category"`
	Price         decimal.Decimal `json:"price"`
	EventDate     time.Time       `json:"event_date"`
	Settled       bool            `json:"settled"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewListing is the seller-supplied part of a Listing.
type NewListing struct {
	OwnerIdentity string
	Title         string
	Category      Category
	Price         decimal.Decimal
	EventDate     time.Time
}

// Validate checks every creation rule against the allowed email domains and
// the current time. It returns the first violation as a *ValidationError.
func (n NewListing) Validate(allowedDomains []string, now time.Time) error {
	if !IdentityAllowed(n.OwnerIdentity, allowedDomains) {
		return invalid("owner_identity", "must be an address on an accepted campus domain")
	}
	if strings.TrimSpace(n.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if !n.Category.Known() {
		return invalid("category", "unrecognized category "+string(n.Category))
	}
	if n.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if n.EventDate.IsZero() {
		return invalid("event_date", "is required")
	}
	if n.EventDate.Before(now) {
		return invalid("event_date", "must not be in the past")
	}
	return nil
}

// Listing builds the listing to persist. Store-assigned fields are left zero.
func (n NewListing) Listing() Listing {
	return Listing{
		OwnerIdentity: NormalizeIdentity(n.OwnerIdentity),
		Title:         strings.TrimSpace(n.Title),
		Category:      n.Category,
		Price:         n.Price,
		EventDate:     n.EventDate,
	}
}
