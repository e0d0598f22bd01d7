package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/rolegate/services/rolecheck"
)

// Context key type to avoid collisions
type contextKey string

// DecisionKey is the context key for the role check decision
const DecisionKey contextKey = "role_decision"

// GetRequestIDFromContext returns the ID chi's RequestID middleware assigned,
// or "" outside the router
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetDecisionFromContext retrieves the decision that admitted the request.
// ok is false on routes without a role check.
func GetDecisionFromContext(ctx context.Context) (rolecheck.Decision, bool) {
	decision, ok := ctx.Value(DecisionKey).(rolecheck.Decision)
	return decision, ok
}

// WithDecision adds a role check decision to the context
func WithDecision(ctx context.Context, decision rolecheck.Decision) context.Context {
	return context.WithValue(ctx, DecisionKey, decision)
}
