package postgres

import (
	"github.com/upb/rolegate/config"
	"github.com/upb/rolegate/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory owns the pool shared by the user and consumer stores
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens and pings the pool described by cfg.Database
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, logger: logger}, nil
}

func (f *RepositoryFactory) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:     NewUserRepository(f.db, f.logger),
		Consumers: NewConsumerRepository(f.db, f.logger),
	}
}

func (f *RepositoryFactory) TxManager() repositories.TransactionManager {
	return NewTxManager(f.db, f.logger)
}

func (f *RepositoryFactory) DB() *DB { return f.db }

func (f *RepositoryFactory) Close() error { return f.db.Close() }
