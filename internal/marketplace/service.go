// Package marketplace validates seller and buyer requests and coordinates the
// listing and offer stores.
package marketplace

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
	"github.com/robertarktes/campus-ticket-exchange/internal/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const offerFanOut = 8

var tracer = otel.Tracer("marketplace")

type Service struct {
	listings       ListingStore
	offers         OfferStore
	notifier       Notifier
	audit          Auditor
	logger         observability.Logger
	allowedDomains []string
	now            func() time.Time
}

type Option func(*Service)

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.audit = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithAllowedDomains(domains []string) Option {
	return func(s *Service) { s.allowedDomains = append([]string(nil), domains...) }
}

func NewService(listings ListingStore, offers OfferStore, notifier Notifier, logger observability.Logger, opts ...Option) *Service {
	s := &Service{
		listings:       listings,
		offers:         offers,
		notifier:       notifier,
		logger:         logger,
		allowedDomains: domain.DefaultAllowedDomains,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitResult is the outcome of SubmitOffer. The offer is recorded whenever
// SubmitOffer returns a nil error; NotifyErr is set when the seller could not
// be told about it.
type SubmitResult struct {
	Offer     domain.Offer
	Notified  bool
	NotifyErr error
}

func (s *Service) CreateListing(ctx context.Context, n domain.NewListing) (domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "marketplace.CreateListing")
	defer span.End()

	if err := n.Validate(s.allowedDomains, s.now()); err != nil {
		return domain.Listing{}, err
	}
	l, err := s.listings.CreateListing(ctx, n.Listing())
	if err != nil {
		span.RecordError(err)
		return domain.Listing{}, err
	}
	span.SetAttributes(attribute.Int64("listing.id", l.ID))
	observability.ListingsCreated.Inc()
	s.logger.WithField("listing_id", l.ID).Info("listing created")
	s.record(ctx, "listing.created", l.OwnerIdentity, map[string]interface{}{
		"listing_id": l.ID,
		"title":      l.Title,
		"category":   string(l.Category),
		"price":      l.Price.String(),
	})
	return l, nil
}

func (s *Service) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	return s.listings.GetListing(ctx, id)
}

func (s *Service) ListingsForOwner(ctx context.Context, identity string) ([]domain.Listing, error) {
	return s.listings.ListingsByOwner(ctx, domain.NormalizeIdentity(identity))
}

// SearchListings re-reads every listing and applies filter.
func (s *Service) SearchListings(ctx context.Context, filter query.FilterSpec) ([]domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "marketplace.SearchListings")
	defer span.End()

	all, err := s.listings.AllListings(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return query.Apply(all, filter), nil
}

// DeleteListing removes a listing and its offers. A non-empty identity must
// own the listing. A missing listing reports false.
func (s *Service) DeleteListing(ctx context.Context, id int64, identity string) (bool, error) {
	if identity != "" {
		l, err := s.listings.GetListing(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if l.OwnerIdentity != domain.NormalizeIdentity(identity) {
			return false, domain.ErrForbidden
		}
	}
	ok, err := s.listings.DeleteListing(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.logger.WithField("listing_id", id).Info("listing deleted")
	s.record(ctx, "listing.deleted", identity, map[string]interface{}{"listing_id": id})
	return true, nil
}

func (s *Service) MarkSettled(ctx context.Context, id int64, identity string, settled bool) (domain.Listing, error) {
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if identity != "" && l.OwnerIdentity != domain.NormalizeIdentity(identity) {
		return domain.Listing{}, domain.ErrForbidden
	}
	ok, err := s.listings.SetSettled(ctx, id, settled)
	if err != nil {
		return domain.Listing{}, err
	}
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	l.Settled = settled
	return l, nil
}

// SubmitOffer records a buyer's offer on an existing listing and notifies the
// seller. Validation runs before the listing lookup, and nothing is written
// when either fails.
func (s *Service) SubmitOffer(ctx context.Context, listingID int64, buyerName, buyerPhone string) (SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "marketplace.SubmitOffer")
	defer span.End()
	span.SetAttributes(attribute.Int64("listing.id", listingID))

	o, err := domain.NewOffer(listingID, buyerName, buyerPhone)
	if err != nil {
		return SubmitResult{}, err
	}
	l, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		span.RecordError(err)
		return SubmitResult{}, err
	}
	o, err = s.offers.CreateOffer(ctx, o)
	if err != nil {
		span.RecordError(err)
		return SubmitResult{}, err
	}
	observability.OffersSubmitted.Inc()

	log := s.logger.WithField("listing_id", l.ID).WithField("offer_id", o.ID)
	log.Info("offer recorded")
	s.record(ctx, "offer.submitted", o.BuyerName, map[string]interface{}{
		"listing_id": l.ID,
		"offer_id":   o.ID,
	})

	res := SubmitResult{Offer: o}
	if err := s.notifier.NotifyOffer(ctx, domain.NoticeFor(l, o)); err != nil {
		observability.NotificationFailures.Inc()
		log.Warn("seller notification failed: ", err)
		res.NotifyErr = &domain.NotificationError{Recipient: l.OwnerIdentity, Err: err}
		return res, nil
	}
	res.Notified = true
	return res, nil
}

// ListOffersForSeller returns every offer made on a listing owned by
// identity, ordered by listing id then offer id.
func (s *Service) ListOffersForSeller(ctx context.Context, identity string) ([]domain.SellerOffer, error) {
	ctx, span := tracer.Start(ctx, "marketplace.ListOffersForSeller")
	defer span.End()

	owned, err := s.listings.ListingsByOwner(ctx, domain.NormalizeIdentity(identity))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	perListing := make([][]domain.Offer, len(owned))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(offerFanOut)
	for i, l := range owned {
		i, l := i, l
		g.Go(func() error {
			offers, err := s.offers.OffersByListing(gctx, l.ID)
			if err != nil {
				return err
			}
			sort.Slice(offers, func(a, b int) bool { return offers[a].ID < offers[b].ID })
			perListing[i] = offers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := []domain.SellerOffer{}
	for i, l := range owned {
		for _, o := range perListing[i] {
			out = append(out, domain.SellerOffer{Offer: o, ListingTitle: l.Title})
		}
	}
	return out, nil
}

func (s *Service) OffersForListing(ctx context.Context, listingID int64) ([]domain.Offer, error) {
	if _, err := s.listings.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.offers.OffersByListing(ctx, listingID)
}

// WithdrawOffer deletes an offer by id without checking who asks.
func (s *Service) WithdrawOffer(ctx context.Context, offerID int64) (bool, error) {
	ok, err := s.offers.DeleteOffer(ctx, offerID)
	if err != nil || !ok {
		return ok, err
	}
	s.logger.WithField("offer_id", offerID).Info("offer withdrawn")
	s.record(ctx, "offer.withdrawn", "", map[string]interface{}{"offer_id": offerID})
	return true, nil
}

// WithdrawOfferAs deletes an offer only when identity owns the listing it
// targets. Offers whose listing is gone can no longer be claimed by anyone.
func (s *Service) WithdrawOfferAs(ctx context.Context, offerID int64, identity string) (bool, error) {
	o, err := s.offers.GetOffer(ctx, offerID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	l, err := s.listings.GetListing(ctx, o.ListingID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, domain.ErrForbidden
	}
	if err != nil {
		return false, err
	}
	if l.OwnerIdentity != domain.NormalizeIdentity(identity) {
		return false, domain.ErrForbidden
	}
	ok, err := s.offers.DeleteOffer(ctx, offerID)
	if err != nil || !ok {
		return ok, err
	}
	s.logger.WithField("offer_id", offerID).Info("offer withdrawn")
	s.record(ctx, "offer.withdrawn", identity, map[string]interface{}{"offer_id": offerID, "listing_id": l.ID})
	return true, nil
}

func (s *Service) record(ctx context.Context, action, actor string, data map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, actor, data); err != nil {
		s.logger.WithField("action", action).Warn("audit record failed: ", err)
	}
}
