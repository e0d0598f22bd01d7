package rolecheck

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/rolegate/models"
	"github.com/upb/rolegate/repositories"
	"github.com/upb/rolegate/services"
	"go.uber.org/zap"
)

// UserLookup resolves administrator accounts by login.
// repositories.UserRepository satisfies it.
type UserLookup interface {
	GetByLogin(ctx context.Context, login string) (*models.User, error)
}

// BasicAuthValidator grants administrator access from HTTP Basic credentials
type BasicAuthValidator struct {
	users    UserLookup
	verifier PasswordVerifier
	logger   *zap.Logger
}

// NewBasicAuthValidator creates a new BasicAuthValidator
func NewBasicAuthValidator(users UserLookup, verifier PasswordVerifier, logger *zap.Logger) *BasicAuthValidator {
	return &BasicAuthValidator{
		users:    users,
		verifier: verifier,
		logger:   logger,
	}
}

// Validate returns false when no usable Basic credentials are present and the
// password check result otherwise. An unknown login yields an
// identity_not_found DomainError; a failing store yields an internal one.
func (v *BasicAuthValidator) Validate(r *http.Request) (bool, error) {
	creds, ok := ExtractBasicCredentials(r)
	if !ok {
		return false, nil
	}

	user, err := v.users.GetByLogin(r.Context(), creds.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, services.NewIdentityNotFoundError(creds.Username)
		}
		return false, services.WrapInternal("failed to resolve user", err)
	}

	granted := v.verifier.Verify(user.PasswordHash, creds.Password)
	v.logger.Debug("basic credentials checked",
		zap.String("login", creds.Username),
		zap.Bool("granted", granted))

	return granted, nil
}
