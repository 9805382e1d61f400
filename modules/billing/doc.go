// Package billing is the HTTP surface of the entitlement core: status
// and trial-eligibility reads, checkout and portal session creation, and
// the provider webhook receiver. Identity arrives through an injected
// resolver; the module performs no authentication of its own.
package billing
