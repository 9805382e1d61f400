package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pricewise/plus/pkg/entitlement"
	"github.com/pricewise/plus/pkg/logger"
)

// IdentityResolver extracts the verified user identity from a request.
// The host application owns authentication (session cookie, JWT, API
// gateway header); this module only consumes the result. Returning
// entitlement.ErrUnauthenticated produces a 401.
type IdentityResolver func(r *http.Request) (uuid.UUID, error)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 20

// RouterOptions wires the module's collaborators.
type RouterOptions struct {
	Service  entitlement.Service
	Provider entitlement.BillingProvider
	Identity IdentityResolver
	Deduper  EventDeduper // optional; webhooks are processed without dedup when nil
	Log      *slog.Logger // optional
}

// Router mounts the billing HTTP surface:
//
//	GET  /status             current entitlement flags plus the raw record
//	GET  /trial-eligibility  one-time trial eligibility
//	POST /checkout           open a hosted checkout session
//	POST /portal             open a hosted billing-management session
//	POST /webhook            provider lifecycle event receiver
//
// The webhook route is unauthenticated by design; the provider signature
// is the authentication.
func Router(opts RouterOptions) chi.Router {
	if opts.Service == nil {
		panic("billing: entitlement.Service is required")
	}
	if opts.Provider == nil {
		panic("billing: entitlement.BillingProvider is required")
	}
	if opts.Identity == nil {
		panic("billing: IdentityResolver is required")
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}

	m := &module{
		svc:      opts.Service,
		provider: opts.Provider,
		identity: opts.Identity,
		deduper:  opts.Deduper,
		log:      opts.Log,
	}

	r := chi.NewRouter()
	r.Get("/status", m.handleStatus)
	r.Get("/trial-eligibility", m.handleTrialEligibility)
	r.Post("/checkout", m.handleCheckout)
	r.Post("/portal", m.handlePortal)
	r.Post("/webhook", m.handleWebhook)
	return r
}

type module struct {
	svc      entitlement.Service
	provider entitlement.BillingProvider
	identity IdentityResolver
	deduper  EventDeduper
	log      *slog.Logger
}

func (m *module) userID(r *http.Request) (uuid.UUID, error) {
	userID, err := m.identity(r)
	if err != nil {
		return uuid.Nil, errors.Join(entitlement.ErrUnauthenticated, err)
	}
	if userID == uuid.Nil {
		return uuid.Nil, entitlement.ErrUnauthenticated
	}
	return userID, nil
}

func (m *module) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := m.userID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := m.svc.Status(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, view)
}

func (m *module) handleTrialEligibility(w http.ResponseWriter, r *http.Request) {
	userID, err := m.userID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	elig, err := m.svc.TrialEligibility(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, elig)
}

type checkoutRequest struct {
	PriceID    string `json:"priceId"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

func (m *module) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, err := m.userID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Join(entitlement.ErrMalformedRequest, err))
		return
	}

	session, err := m.svc.Checkout(r.Context(), userID, entitlement.CheckoutParams{
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, session)
}

type portalRequest struct {
	ReturnURL string `json:"returnUrl"`
}

func (m *module) handlePortal(w http.ResponseWriter, r *http.Request) {
	userID, err := m.userID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req portalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Join(entitlement.ErrMalformedRequest, err))
		return
	}

	session, err := m.svc.Portal(r.Context(), userID, req.ReturnURL)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, session)
}

// handleWebhook acknowledges with 200 once the event is durably applied.
// Signature failures are 400 so the provider stops retrying a payload
// that will never verify; transient store failures are 500 so it does
// retry.
func (m *module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, errors.Join(entitlement.ErrMalformedRequest, err))
		return
	}

	event, err := m.provider.ParseWebhook(ctx, payload, r.Header.Get("Paddle-Signature"))
	if err != nil {
		m.log.WarnContext(ctx, "webhook rejected", logger.Error(err))
		respondError(w, errors.Join(entitlement.ErrInvalidEvent, err))
		return
	}

	if m.deduper != nil && event.EventID != "" {
		seen, err := m.deduper.Seen(ctx, event.EventID)
		if err != nil {
			// Dedup is best effort: ApplyEvent tolerates redelivery, so a
			// Redis outage must not drop events.
			m.log.WarnContext(ctx, "webhook dedup unavailable", logger.Error(err))
		} else if seen {
			respondData(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}
	}

	if err := m.svc.ApplyEvent(ctx, event); err != nil {
		// An out-of-order delivery the lifecycle rejects will never
		// succeed on retry; acknowledge it instead of failing forever.
		if errors.Is(err, entitlement.ErrInvalidTransition) {
			m.log.WarnContext(ctx, "discarding out-of-order webhook",
				slog.String("event", event.ProviderEvent), logger.Error(err))
			m.markDelivered(ctx, event.EventID)
			respondData(w, http.StatusOK, map[string]string{"status": "discarded"})
			return
		}
		// The event stays unmarked so the provider's retry is processed.
		respondError(w, err)
		return
	}

	m.markDelivered(ctx, event.EventID)
	respondData(w, http.StatusOK, map[string]string{"status": "applied"})
}

// markDelivered records the delivery ID only once the event's outcome is
// final. Marking before the apply would let a transient store failure
// poison the provider's retry into a "duplicate" acknowledgement.
func (m *module) markDelivered(ctx context.Context, eventID string) {
	if m.deduper == nil || eventID == "" {
		return
	}
	if err := m.deduper.Mark(ctx, eventID); err != nil {
		m.log.WarnContext(ctx, "failed to mark webhook delivery", logger.Error(err))
	}
}
