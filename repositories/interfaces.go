package repositories

import (
	"context"
	"errors"

	"github.com/upb/rolegate/models"
)

var (
	// ErrNotFound is returned (wrapped) when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned (wrapped) when an insert violates a unique key
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction; repositories called
	// with it run their statements inside the transaction
	Context() context.Context
}

// UserRepository handles administrator account storage
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByLogin retrieves a user by login, ErrNotFound when absent
	GetByLogin(ctx context.Context, login string) (*models.User, error)

	// List retrieves all users ordered by login
	List(ctx context.Context) ([]*models.User, error)

	// Delete deletes a user by login
	Delete(ctx context.Context, login string) error
}

// ConsumerRepository handles consumer registrations
type ConsumerRepository interface {
	// Create registers a new consumer
	Create(ctx context.Context, consumer *models.Consumer) error

	// GetByConsumerID retrieves a consumer by certificate common name, ErrNotFound when absent
	GetByConsumerID(ctx context.Context, consumerID string) (*models.Consumer, error)

	// List retrieves all consumers ordered by consumer ID
	List(ctx context.Context) ([]*models.Consumer, error)

	// UpdateDescription replaces a consumer's description
	UpdateDescription(ctx context.Context, consumerID, description string) error

	// Delete deletes a consumer by consumer ID
	Delete(ctx context.Context, consumerID string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Consumers ConsumerRepository
}
