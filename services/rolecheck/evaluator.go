package rolecheck

import (
	"net/http"

	"go.uber.org/zap"
)

// AdminValidator checks administrator credentials. A non-nil error aborts
// evaluation.
type AdminValidator interface {
	Validate(r *http.Request) (bool, error)
}

// ConsumerValidator checks consumer credentials against the call's positional
// arguments.
type ConsumerValidator interface {
	Validate(r *http.Request, requireIDMatch bool, args []string) bool
}

// Evaluator combines the administrator and consumer checks
type Evaluator struct {
	admin    AdminValidator
	consumer ConsumerValidator
	logger   *zap.Logger
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(admin AdminValidator, consumer ConsumerValidator, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		admin:    admin,
		consumer: consumer,
		logger:   logger,
	}
}

// Evaluate runs the checks req asks for, admin first. An error from the admin
// check is returned as is and the consumer check is skipped.
func (e *Evaluator) Evaluate(r *http.Request, req RoleRequirement, args []string) (Decision, error) {
	var decision Decision

	if req.Admin {
		granted, err := e.admin.Validate(r)
		if err != nil {
			return Decision{}, err
		}
		decision.AdminGranted = granted
	}

	if req.checksConsumer() {
		decision.ConsumerGranted = e.consumer.Validate(r, req.ConsumerIDMatch, args)
	}

	e.logger.Debug("role check evaluated",
		zap.String("requirement", req.String()),
		zap.Bool("admin_granted", decision.AdminGranted),
		zap.Bool("consumer_granted", decision.ConsumerGranted))

	return decision, nil
}
