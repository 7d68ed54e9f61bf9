// Package ctxrouter implements the Context Router (SPEC_FULL.md §4.M):
// fixed-priority, policy-gated selection among context providers,
// grounded on the teacher's provider fallback chain
// (internal/perception/client.go) generalized from LLM providers to
// context-augmentation providers.
package ctxrouter

// ProviderKind identifies one of the fixed context providers
// (spec.md §4.M).
type ProviderKind string

const (
	KindNativeMemory ProviderKind = "native_memory"
	KindOssVector    ProviderKind = "oss_vector"
	KindCodeGraph    ProviderKind = "code_graph"
	KindExternalMCP  ProviderKind = "external_mcp"
)

// priorityOrder is the fixed iteration order (spec.md §4.M).
var priorityOrder = []ProviderKind{KindNativeMemory, KindOssVector, KindCodeGraph, KindExternalMCP}

// ProviderHealth is a provider's tri-state health, matching
// original_source's ContextProviderHealth: Degraded is reported distinctly
// from Unavailable for diagnostics, but routing treats only Healthy as
// selectable (degraded backends are skipped the same as unavailable ones).
type ProviderHealth string

const (
	HealthHealthy     ProviderHealth = "healthy"
	HealthDegraded    ProviderHealth = "degraded"
	HealthUnavailable ProviderHealth = "unavailable"
)

// Provider is one context-augmentation backend.
type Provider interface {
	Kind() ProviderKind
	Health() ProviderHealth
}

// AugmentMode gates whether and how ExternalMCP may be used.
type AugmentMode string

const (
	AugmentDisabled    AugmentMode = "disabled"
	AugmentInternalOnly AugmentMode = "internal_only"
	AugmentEnabled     AugmentMode = "enabled"
)

// TenantMode describes the deployment's multi-tenancy posture.
type TenantMode string

const (
	TenantInternal           TenantMode = "internal"
	TenantMultiTenantHosted  TenantMode = "multi_tenant_hosted"
	TenantSingleTenant       TenantMode = "single_tenant"
)

// CredentialOrigin describes where ExternalMCP's credentials came from.
type CredentialOrigin string

const (
	CredentialUserProvided CredentialOrigin = "user_provided"
	CredentialPlatform     CredentialOrigin = "platform"
)

// Policy is the fixed rule set gating ExternalMCP (spec.md §4.M).
type Policy struct {
	AugmentMode               AugmentMode
	TenantMode                TenantMode
	AllowMultitenant          bool
	RequireCustomerCredentials bool
	CredentialOrigin          CredentialOrigin
}

// checkPolicy applies the four fixed rules, in order, returning the first
// denial reason, or "" if the provider is allowed. Only ExternalMCP is
// gated; every other provider is always policy-allowed.
func checkPolicy(kind ProviderKind, p Policy) string {
	if kind != KindExternalMCP {
		return ""
	}
	switch {
	case p.AugmentMode == AugmentDisabled:
		return "augment_disabled"
	case p.TenantMode == TenantMultiTenantHosted && !p.AllowMultitenant:
		return "augment_blocked_multi_tenant"
	case p.RequireCustomerCredentials && p.CredentialOrigin != CredentialUserProvided:
		return "augment_requires_byo_credentials"
	case p.AugmentMode == AugmentInternalOnly && p.TenantMode != TenantInternal:
		return "augment_internal_only"
	default:
		return ""
	}
}

// RoutingEvent records one routing decision for the bounded event ring.
type RoutingEvent struct {
	Selected     ProviderKind
	FallbackFrom ProviderKind
	Denied       bool
	Reason       string
	PolicyMode   AugmentMode
}

const eventRingCapacity = 256

// Router selects among the fixed-priority providers under policy and
// health gates, falling back deterministically to NativeMemory.
type Router struct {
	providers map[ProviderKind]Provider
	policy    Policy
	events    []RoutingEvent
}

// NewRouter constructs a router over the given providers and policy.
func NewRouter(providers []Provider, policy Policy) *Router {
	r := &Router{providers: make(map[ProviderKind]Provider, len(providers)), policy: policy}
	for _, p := range providers {
		r.providers[p.Kind()] = p
	}
	return r
}

// Route iterates the fixed priority list; for each candidate, policy is
// checked first, then health. The first candidate to pass both is
// selected. If none pass, NativeMemory is the deterministic fallback
// regardless of its own health (spec.md §4.M).
func (r *Router) Route() RoutingEvent {
	var lastDenyReason string
	var lastDenied ProviderKind

	for _, kind := range priorityOrder {
		provider, ok := r.providers[kind]
		if !ok {
			continue
		}
		if reason := checkPolicy(kind, r.policy); reason != "" {
			lastDenyReason, lastDenied = reason, kind
			continue
		}
		if provider.Health() != HealthHealthy {
			continue
		}
		event := RoutingEvent{Selected: kind, PolicyMode: r.policy.AugmentMode}
		r.record(event)
		return event
	}

	event := RoutingEvent{
		Selected:     KindNativeMemory,
		FallbackFrom: lastDenied,
		Denied:       lastDenyReason != "",
		Reason:       lastDenyReason,
		PolicyMode:   r.policy.AugmentMode,
	}
	r.record(event)
	return event
}

func (r *Router) record(e RoutingEvent) {
	r.events = append(r.events, e)
	if len(r.events) > eventRingCapacity {
		r.events = r.events[len(r.events)-eventRingCapacity:]
	}
}

// Events returns the bounded routing-event history, oldest first.
func (r *Router) Events() []RoutingEvent {
	out := make([]RoutingEvent, len(r.events))
	copy(out, r.events)
	return out
}
