package consumers

import (
	"context"
	"errors"

	"github.com/upb/rolegate/models"
	"github.com/upb/rolegate/repositories"
	"github.com/upb/rolegate/services"
	"github.com/upb/rolegate/utils"
	"go.uber.org/zap"
)

// RegisterConsumerRequest is the payload for registering a consumer. ConsumerID
// must equal the CN of the certificates the consumer will present.
type RegisterConsumerRequest struct {
	ConsumerID  string `json:"consumer_id" validate:"required,max=255,printable"`
	Description string `json:"description" validate:"max=1024"`
}

// UpdateConsumerRequest is the payload for updating a consumer
type UpdateConsumerRequest struct {
	Description string `json:"description" validate:"max=1024"`
}

// ConsumerService manages consumer registrations
type ConsumerService struct {
	consumers repositories.ConsumerRepository
	logger    *zap.Logger
}

// NewConsumerService creates a new ConsumerService instance
func NewConsumerService(consumers repositories.ConsumerRepository, logger *zap.Logger) *ConsumerService {
	return &ConsumerService{
		consumers: consumers,
		logger:    logger,
	}
}

// RegisterConsumer stores a new consumer
func (s *ConsumerService) RegisterConsumer(ctx context.Context, req RegisterConsumerRequest) (*models.Consumer, error) {
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, services.NewValidationError("invalid consumer", err, utils.GetValidationFields(err))
	}

	consumer := models.NewConsumer(req.ConsumerID, req.Description)
	if err := s.consumers.Create(ctx, consumer); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateConsumer
		}
		return nil, services.WrapInternal("failed to register consumer", err)
	}

	s.logger.Info("consumer registered", zap.String("consumer_id", consumer.ConsumerID))
	return consumer, nil
}

// GetConsumer returns the consumer with the given ID
func (s *ConsumerService) GetConsumer(ctx context.Context, consumerID string) (*models.Consumer, error) {
	consumer, err := s.consumers.GetByConsumerID(ctx, consumerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrConsumerNotFound
		}
		return nil, services.WrapInternal("failed to get consumer", err)
	}
	return consumer, nil
}

// ListConsumers returns all consumers ordered by ID
func (s *ConsumerService) ListConsumers(ctx context.Context) ([]*models.Consumer, error) {
	consumers, err := s.consumers.List(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list consumers", err)
	}
	return consumers, nil
}

// UpdateConsumer replaces the consumer's description and returns the updated record
func (s *ConsumerService) UpdateConsumer(ctx context.Context, consumerID string, req UpdateConsumerRequest) (*models.Consumer, error) {
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, services.NewValidationError("invalid consumer", err, utils.GetValidationFields(err))
	}

	if err := s.consumers.UpdateDescription(ctx, consumerID, req.Description); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrConsumerNotFound
		}
		return nil, services.WrapInternal("failed to update consumer", err)
	}

	s.logger.Info("consumer updated", zap.String("consumer_id", consumerID))
	return s.GetConsumer(ctx, consumerID)
}

// DeleteConsumer removes the consumer with the given ID
func (s *ConsumerService) DeleteConsumer(ctx context.Context, consumerID string) error {
	if err := s.consumers.Delete(ctx, consumerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrConsumerNotFound
		}
		return services.WrapInternal("failed to delete consumer", err)
	}

	s.logger.Info("consumer deleted", zap.String("consumer_id", consumerID))
	return nil
}
