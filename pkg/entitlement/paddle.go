package entitlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements BillingProvider against Paddle's hosted
// checkout and customer portal.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
	}, nil
}

// CreateOrGetCustomer resolves the Paddle customer for a user. Matching
// by email before creating keeps the operation idempotent: retried
// checkouts and users returning after cancellation reuse their existing
// customer instead of minting duplicates.
func (p *PaddleProvider) CreateOrGetCustomer(ctx context.Context, email, name, userID string) (string, error) {
	if email == "" {
		return "", errors.New("customer email is required")
	}

	existing, err := p.client.CustomersClient.ListCustomers(ctx, &paddle.ListCustomersRequest{
		Email: []string{email},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list paddle customers: %w", err)
	}

	var customerID string
	if err := existing.Iter(ctx, func(c *paddle.Customer) (bool, error) {
		customerID = c.ID
		return false, nil
	}); err != nil {
		return "", fmt.Errorf("failed to iterate paddle customers: %w", err)
	}
	if customerID != "" {
		return customerID, nil
	}

	created, err := p.client.CustomersClient.CreateCustomer(ctx, &paddle.CreateCustomerRequest{
		Email:      email,
		Name:       paddle.PtrTo(name),
		CustomData: paddle.CustomData{"user_id": userID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create paddle customer: %w", err)
	}
	return created.ID, nil
}

// CreateCheckoutSession opens a hosted checkout transaction in Paddle.
// Trial periods are configured on the Paddle price; the requested days
// ride along in custom data so webhook processing can cross-check what
// was granted.
func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.CustomerID == "" {
		return nil, errors.New("customer ID is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomerID: paddle.PtrTo(req.CustomerID),
		CustomData: paddle.CustomData{
			"user_id":    req.UserID,
			"trial_days": fmt.Sprintf("%d", req.TrialPeriodDays),
		},
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil || *transaction.Checkout.URL == "" {
		return nil, errors.New("no checkout URL returned from paddle")
	}

	return &CheckoutSession{
		SessionID: transaction.ID,
		URL:       *transaction.Checkout.URL,
	}, nil
}

// CreatePortalSession opens Paddle's customer portal. Paddle manages the
// return navigation itself, so returnURL is accepted for the interface
// contract but not forwarded.
func (p *PaddleProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	if customerID == "" {
		return nil, errors.New("customer ID is required")
	}

	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: customerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle customer portal session: %w", err)
	}

	if session.URLs.General.Overview == "" {
		return nil, errors.New("no portal URL returned from paddle")
	}
	return &PortalSession{URL: session.URLs.General.Overview}, nil
}

// ParseWebhook verifies the Paddle signature and normalizes the payload
// into a LifecycleEvent. Nothing from the payload is trusted before the
// signature check passes.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*LifecycleEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, fmt.Errorf("webhook verification error: %w", err)
	}
	if !valid {
		return nil, errors.New("webhook signature verification failed")
	}

	var paddleEvent struct {
		EventID    string         `json:"event_id"`
		EventType  string         `json:"event_type"`
		OccurredAt string         `json:"occurred_at"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	event := &LifecycleEvent{
		EventID:       paddleEvent.EventID,
		Type:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
		Raw:           paddleEvent.Data,
	}
	if t, err := time.Parse(time.RFC3339, paddleEvent.OccurredAt); err == nil {
		event.OccurredAt = t.UTC()
	}

	data := paddleEvent.Data
	if strings.HasPrefix(paddleEvent.EventType, "subscription.") {
		event.SubscriptionID, _ = data["id"].(string)
	} else {
		// Transaction events reference their subscription separately.
		event.SubscriptionID, _ = data["subscription_id"].(string)
	}
	event.Status, _ = data["status"].(string)
	event.CustomerID, _ = data["customer_id"].(string)

	if customData, ok := data["custom_data"].(map[string]any); ok {
		event.UserID, _ = customData["user_id"].(string)
	}

	if items, ok := data["items"].([]any); ok && len(items) > 0 {
		if item, ok := items[0].(map[string]any); ok {
			if price, ok := item["price"].(map[string]any); ok {
				event.PriceID, _ = price["id"].(string)
			} else {
				event.PriceID, _ = item["price_id"].(string)
			}
		}
	}

	if period, ok := data["current_billing_period"].(map[string]any); ok {
		event.CurrentPeriodStart = parsePaddleTime(period["starts_at"])
		event.CurrentPeriodEnd = parsePaddleTime(period["ends_at"])
	}

	// A scheduled cancel means the subscription stays active until the
	// period ends.
	if change, ok := data["scheduled_change"].(map[string]any); ok {
		if action, _ := change["action"].(string); action == "cancel" {
			event.CancelAtPeriodEnd = true
		}
	}

	return event, nil
}

func parsePaddleTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// mapPaddleEventType maps Paddle event names to normalized event types.
// Unmapped events keep their provider name and are ignored downstream.
func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "subscription.created":
		return EventSubscriptionCreated
	case "subscription.activated", "subscription.updated", "subscription.trialing":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionCancelled
	case "subscription.past_due", "transaction.payment_failed":
		return EventPaymentFailed
	default:
		return EventType(paddleEvent)
	}
}
