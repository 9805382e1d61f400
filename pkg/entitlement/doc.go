// Package entitlement decides whether a user is authorized for paid PLUS
// capabilities. It owns the subscription records, the one-time free-trial
// grant, checkout and billing-portal session orchestration, and the
// reconciliation of asynchronous billing-provider events into stored
// state.
//
// # Architecture
//
//   - Service: checkout, portal, status, trial eligibility, event apply
//   - EntitlementStore: record persistence; enforces the invariants
//   - BillingProvider: hosted checkout/portal abstraction (Paddle impl)
//   - Gate: fail-closed capability checks with an explicit pending state
//   - Derive: the single pure projection from record + time to flags
//
// Two invariants hold for every user at every instant: at most one stored
// record is ACTIVE, and at most one record in the whole history carries a
// trial grant. Both are enforced by the store's conditional writes
// (partial unique indexes in Postgres, one critical section in memory),
// so concurrent checkouts or a checkout racing an event delivery cannot
// both succeed. Reads take no locks and may trail the provider by its
// event-delivery latency; that staleness is bounded and accepted.
//
// # Quick start
//
//	plans := entitlement.NewInMemSource(entitlement.Plan{
//		PriceID:   "pri_plus_monthly",
//		Name:      "PLUS Monthly",
//		Price:     entitlement.Money{Amount: 499, Currency: "USD"},
//		Interval:  entitlement.BillingIntervalMonthly,
//		TrialDays: entitlement.TrialPeriodDays,
//	})
//
//	provider, err := entitlement.NewPaddleProvider(paddleCfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc, err := entitlement.NewService(ctx, plans, provider, store, users)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	session, err := svc.Checkout(ctx, userID, entitlement.CheckoutParams{
//		PriceID:    "pri_plus_monthly",
//		SuccessURL: "https://app.example.com/plus/success",
//		CancelURL:  "https://app.example.com/plus",
//	})
//
// Checkout never activates a record by itself. The provider confirms the
// session asynchronously and the webhook surface feeds the resulting
// events back through Service.ApplyEvent, which upserts records keyed by
// the provider's subscription ID. Redelivered events are no-ops;
// transitions that the subscription lifecycle does not allow are
// rejected.
//
// # Gating capabilities
//
//	gate := entitlement.NewGate(svc)
//	if gate.CanAccess(ctx, userID, entitlement.CapabilityAdFree) == entitlement.DecisionGranted {
//		// skip ads
//	}
//
// The gate resolves every capability from the same IsPlus flag and fails
// closed: errors and unresolved checks are denials, never grants.
package entitlement
