package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/rolegate/internal/observability"
	"github.com/upb/rolegate/services"
	"github.com/upb/rolegate/services/rolecheck"
	"github.com/upb/rolegate/utils"
	"go.uber.org/zap"
)

// DecisionEvaluator evaluates a role requirement for one request.
// *rolecheck.Evaluator satisfies it.
type DecisionEvaluator interface {
	Evaluate(r *http.Request, req rolecheck.RoleRequirement, args []string) (rolecheck.Decision, error)
}

// RoleCheckMiddleware guards routes with a role requirement
type RoleCheckMiddleware struct {
	evaluator DecisionEvaluator
	metrics   *observability.AuthzMetrics
	logger    *zap.Logger
}

// NewRoleCheckMiddleware creates a new RoleCheckMiddleware. metrics may be nil.
func NewRoleCheckMiddleware(evaluator DecisionEvaluator, metrics *observability.AuthzMetrics, logger *zap.Logger) *RoleCheckMiddleware {
	return &RoleCheckMiddleware{
		evaluator: evaluator,
		metrics:   metrics,
		logger:    logger,
	}
}

// Require returns middleware admitting a request only when req is satisfied.
// Attach it per route with chi's With so route parameters are resolved before
// it runs; their values, in route order, are the positional arguments matched
// against the consumer certificate CN.
func (m *RoleCheckMiddleware) Require(req rolecheck.RoleRequirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)
			start := time.Now()

			decision, err := m.evaluator.Evaluate(r, req, RouteArgs(r))
			if err != nil {
				var domainErr *services.DomainError
				if services.IsIdentityNotFoundError(err) && errors.As(err, &domainErr) {
					m.logger.Warn("role check denied, unknown login",
						zap.String("request_id", requestID),
						zap.String("requirement", req.String()),
						zap.String("path", r.URL.Path))
					m.metrics.RecordDecision(ctx, req.String(), observability.OutcomeIdentityNotFound, time.Since(start))
					_ = utils.WriteIdentityNotFound(w, domainErr.Message, domainErr.Details)
					return
				}

				m.logger.Error("role check failed",
					zap.String("request_id", requestID),
					zap.String("requirement", req.String()),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				m.metrics.RecordDecision(ctx, req.String(), observability.OutcomeError, time.Since(start))
				_ = utils.WriteAuthorizationFailure(w)
				return
			}

			if !decision.Allowed() {
				m.logger.Info("role check denied",
					zap.String("request_id", requestID),
					zap.String("requirement", req.String()),
					zap.String("path", r.URL.Path))
				m.metrics.RecordDecision(ctx, req.String(), observability.OutcomeDenied, time.Since(start))
				_ = utils.WriteAuthorizationFailure(w)
				return
			}

			m.logger.Debug("role check passed",
				zap.String("request_id", requestID),
				zap.String("requirement", req.String()),
				zap.Bool("admin_granted", decision.AdminGranted),
				zap.Bool("consumer_granted", decision.ConsumerGranted))
			m.metrics.RecordDecision(ctx, req.String(), observability.OutcomeAllowed, time.Since(start))

			next.ServeHTTP(w, r.WithContext(WithDecision(ctx, decision)))
		})
	}
}

// RouteArgs returns the values of the matched route's parameters in route
// order. chi's mount wildcard is skipped.
func RouteArgs(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}

	args := make([]string, 0, len(rctx.URLParams.Values))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		args = append(args, rctx.URLParams.Values[i])
	}
	return args
}
