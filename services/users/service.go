package users

import (
	"context"
	"errors"

	"github.com/upb/rolegate/models"
	"github.com/upb/rolegate/repositories"
	"github.com/upb/rolegate/services"
	"github.com/upb/rolegate/utils"
	"go.uber.org/zap"
)

// PasswordHasher produces the stored form of a password
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// CreateUserRequest is the payload for creating an administrator
type CreateUserRequest struct {
	Login    string `json:"login" validate:"required,login,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name" validate:"max=255,printable"`
}

// UserService manages administrator accounts
type UserService struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	hasher PasswordHasher
	logger *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(users repositories.UserRepository, txMgr repositories.TransactionManager, hasher PasswordHasher, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		txMgr:  txMgr,
		hasher: hasher,
		logger: logger,
	}
}

// CreateUser validates the request, hashes the password and stores the user
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, services.NewValidationError("invalid user", err, utils.GetValidationFields(err))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, services.WrapInternal("failed to hash password", err)
	}

	user, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.User, error) {
		if _, err := s.users.GetByLogin(ctx, req.Login); err == nil {
			return nil, services.ErrDuplicateLogin
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, services.WrapInternal("failed to check login", err)
		}

		user := models.NewUser(req.Login, hash, req.Name)
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return nil, services.ErrDuplicateLogin
			}
			return nil, services.WrapInternal("failed to create user", err)
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.String("login", user.Login))
	return user, nil
}

// GetUser returns the user with the given login
func (s *UserService) GetUser(ctx context.Context, login string) (*models.User, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to get user", err)
	}
	return user, nil
}

// ListUsers returns all users ordered by login
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list users", err)
	}
	return users, nil
}

// DeleteUser removes the user with the given login
func (s *UserService) DeleteUser(ctx context.Context, login string) error {
	if err := s.users.Delete(ctx, login); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrUserNotFound
		}
		return services.WrapInternal("failed to delete user", err)
	}

	s.logger.Info("user deleted", zap.String("login", login))
	return nil
}

// EnsureBootstrapAdmin creates the configured administrator when it does not
// exist yet. An empty login disables bootstrapping.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, login, password string) (bool, error) {
	if login == "" {
		return false, nil
	}

	_, err := s.users.GetByLogin(ctx, login)
	if err == nil {
		s.logger.Debug("bootstrap admin already exists", zap.String("login", login))
		return false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return false, services.WrapInternal("failed to look up bootstrap admin", err)
	}

	if _, err := s.CreateUser(ctx, CreateUserRequest{Login: login, Password: password, Name: "Bootstrap administrator"}); err != nil {
		// Another replica won the race
		if services.IsConflictError(err) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("bootstrap admin created", zap.String("login", login))
	return true, nil
}
