package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/robertarktes/campus-ticket-exchange/internal/marketplace"
	"github.com/robertarktes/campus-ticket-exchange/internal/query"
	"github.com/shopspring/decimal"
)

// Pinger is a backend that readiness depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	svc   *marketplace.Service
	ready map[string]Pinger
}

func NewHandlers(svc *marketplace.Service, ready map[string]Pinger) *Handlers {
	return &Handlers{svc: svc, ready: ready}
}

type createListingRequest struct {
	OwnerIdentity string           `json:"owner_identity"`
	Title         string           `json:"title"`
	Category      string           `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	EventDate     string           `json:"event_date"`
}

type submitOfferRequest struct {
	ListingID  int64  `json:"listing_id"`
	BuyerName  string `json:"buyer_name"`
	BuyerPhone string `json:"buyer_phone"`
}

type submitOfferResponse struct {
	Offer       domain.Offer `json:"offer"`
	Notified    bool         `json:"notified"`
	NotifyError string       `json:"notify_error,omitempty"`
}

type settledRequest struct {
	Settled bool `json:"settled"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *Handlers) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	if req.Price == nil {
		writeError(w, r, &domain.ValidationError{Field: "price", Reason: "is required"})
		return
	}
	category, ok := domain.ParseCategory(req.Category)
	if !ok {
		category = domain.Category(req.Category)
	}
	n := domain.NewListing{
		OwnerIdentity: req.OwnerIdentity,
		Title:         req.Title,
		Category:      category,
		Price:         *req.Price,
	}
	if req.EventDate != "" {
		d, err := parseEventDate(req.EventDate)
		if err != nil {
			writeError(w, r, &domain.ValidationError{Field: "event_date", Reason: "must be RFC3339 or YYYY-MM-DD"})
			return
		}
		n.EventDate = d
	}

	l, err := h.svc.CreateListing(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handlers) SearchListings(w http.ResponseWriter, r *http.Request) {
	filter, err := query.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	listings, err := h.svc.SearchListings(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	l, err := h.svc.GetListing(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handlers) MarkSettled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req settledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	identity, ok := requiredIdentity(w, r)
	if !ok {
		return
	}
	l, err := h.svc.MarkSettled(r.Context(), id, identity, req.Settled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handlers) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	identity, ok := requiredIdentity(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteListing(r.Context(), id, identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w, deleted)
}

func (h *Handlers) OffersForListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	offers, err := h.svc.OffersForListing(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

func (h *Handlers) SellerListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.ListingsForOwner(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *Handlers) SellerOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.ListOffersForSeller(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

func (h *Handlers) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	var req submitOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	res, err := h.svc.SubmitOffer(r.Context(), req.ListingID, req.BuyerName, req.BuyerPhone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := submitOfferResponse{Offer: res.Offer, Notified: res.Notified}
	if res.NotifyErr != nil {
		resp.NotifyError = res.NotifyErr.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) WithdrawOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	identity, ok := requiredIdentity(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.WithdrawOfferAs(r.Context(), id, identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDeleted(w, deleted)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Readyz pings every dependency and reports the ones that failed.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, p := range h.ready {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, failed)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id", Field: "id"})
		return 0, false
	}
	return id, true
}

func requiredIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity := strings.TrimSpace(r.URL.Query().Get("identity"))
	if identity == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "identity is required", Field: "identity"})
		return "", false
	}
	return identity, true
}

func parseEventDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeDeleted(w http.ResponseWriter, deleted bool) {
	status := http.StatusOK
	if !deleted {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]bool{"deleted": deleted})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, domain.ErrSerializationFailure):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict, try again"})
	case errors.Is(err, domain.ErrStorage):
		loggerFrom(r.Context()).Error("storage failure: ", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
	default:
		loggerFrom(r.Context()).Error("request failed: ", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
