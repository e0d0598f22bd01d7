package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/upb/rolegate/models"
	"github.com/upb/rolegate/repositories"
	"go.uber.org/zap"
)

// ConsumerRepository implements the repositories.ConsumerRepository interface
type ConsumerRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewConsumerRepository creates a new consumer repository
func NewConsumerRepository(db *DB, logger *zap.Logger) repositories.ConsumerRepository {
	return &ConsumerRepository{
		db:     db,
		logger: logger,
	}
}

// Create registers a new consumer
func (r *ConsumerRepository) Create(ctx context.Context, consumer *models.Consumer) error {
	query := `
		INSERT INTO consumers (id, consumer_id, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	executor := conn(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		consumer.ID,
		consumer.ConsumerID,
		consumer.Description,
		consumer.CreatedAt,
		consumer.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("consumer %q: %w", consumer.ConsumerID, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	r.logger.Debug("consumer created",
		zap.String("id", consumer.ID.String()),
		zap.String("consumer_id", consumer.ConsumerID),
	)
	return nil
}

// GetByConsumerID retrieves a consumer by certificate common name
func (r *ConsumerRepository) GetByConsumerID(ctx context.Context, consumerID string) (*models.Consumer, error) {
	query := `
		SELECT id, consumer_id, description, created_at, updated_at
		FROM consumers
		WHERE consumer_id = $1
	`

	executor := conn(ctx, r.db)
	consumer := &models.Consumer{}

	err := executor.QueryRowContext(ctx, query, consumerID).Scan(
		&consumer.ID,
		&consumer.ConsumerID,
		&consumer.Description,
		&consumer.CreatedAt,
		&consumer.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("consumer %q: %w", consumerID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get consumer: %w", err)
	}

	return consumer, nil
}

// List retrieves all consumers ordered by consumer ID
func (r *ConsumerRepository) List(ctx context.Context) ([]*models.Consumer, error) {
	query := `
		SELECT id, consumer_id, description, created_at, updated_at
		FROM consumers
		ORDER BY consumer_id
	`

	executor := conn(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumers: %w", err)
	}
	defer rows.Close()

	consumers := make([]*models.Consumer, 0)
	for rows.Next() {
		consumer := &models.Consumer{}
		if err := rows.Scan(
			&consumer.ID,
			&consumer.ConsumerID,
			&consumer.Description,
			&consumer.CreatedAt,
			&consumer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan consumer: %w", err)
		}
		consumers = append(consumers, consumer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating consumers: %w", err)
	}

	return consumers, nil
}

// UpdateDescription replaces a consumer's description
func (r *ConsumerRepository) UpdateDescription(ctx context.Context, consumerID, description string) error {
	query := `
		UPDATE consumers
		SET description = $2, updated_at = $3
		WHERE consumer_id = $1
	`

	executor := conn(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, consumerID, description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update consumer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("consumer %q: %w", consumerID, repositories.ErrNotFound)
	}

	r.logger.Debug("consumer updated", zap.String("consumer_id", consumerID))
	return nil
}

// Delete deletes a consumer by consumer ID
func (r *ConsumerRepository) Delete(ctx context.Context, consumerID string) error {
	query := `DELETE FROM consumers WHERE consumer_id = $1`

	executor := conn(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, consumerID)
	if err != nil {
		return fmt.Errorf("failed to delete consumer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("consumer %q: %w", consumerID, repositories.ErrNotFound)
	}

	r.logger.Debug("consumer deleted", zap.String("consumer_id", consumerID))
	return nil
}
