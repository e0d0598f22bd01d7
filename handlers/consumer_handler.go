package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/rolegate/middleware"
	"github.com/upb/rolegate/models"
	"github.com/upb/rolegate/services/consumers"
	"github.com/upb/rolegate/utils"
	"go.uber.org/zap"
)

// ConsumerService is the subset of consumers.ConsumerService the handler needs
type ConsumerService interface {
	RegisterConsumer(ctx context.Context, req consumers.RegisterConsumerRequest) (*models.Consumer, error)
	GetConsumer(ctx context.Context, consumerID string) (*models.Consumer, error)
	ListConsumers(ctx context.Context) ([]*models.Consumer, error)
	UpdateConsumer(ctx context.Context, consumerID string, req consumers.UpdateConsumerRequest) (*models.Consumer, error)
	DeleteConsumer(ctx context.Context, consumerID string) error
}

// ConsumerHandler handles consumer registration endpoints
type ConsumerHandler struct {
	service ConsumerService
	logger  *zap.Logger
}

// NewConsumerHandler creates a new ConsumerHandler
func NewConsumerHandler(service ConsumerService, logger *zap.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListConsumers handles GET /api/v1/consumers
func (h *ConsumerHandler) HandleListConsumers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListConsumers(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, list)
}

// HandleRegisterConsumer handles POST /api/v1/consumers
func (h *ConsumerHandler) HandleRegisterConsumer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req consumers.RegisterConsumerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	consumer, err := h.service.RegisterConsumer(ctx, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("consumer registered via API",
		zap.String("request_id", requestID),
		zap.String("consumer_id", consumer.ConsumerID))

	_ = utils.WriteCreated(w, consumer)
}

// HandleGetConsumer handles GET /api/v1/consumers/{consumerID}
func (h *ConsumerHandler) HandleGetConsumer(w http.ResponseWriter, r *http.Request) {
	consumer, err := h.service.GetConsumer(r.Context(), chi.URLParam(r, "consumerID"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, consumer)
}

// HandleUpdateConsumer handles PUT /api/v1/consumers/{consumerID}
func (h *ConsumerHandler) HandleUpdateConsumer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req consumers.UpdateConsumerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	consumer, err := h.service.UpdateConsumer(ctx, chi.URLParam(r, "consumerID"), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	// The owning consumer may edit its own description
	grantedBy := "unchecked"
	if decision, ok := middleware.GetDecisionFromContext(ctx); ok {
		switch {
		case decision.AdminGranted:
			grantedBy = "admin"
		case decision.ConsumerGranted:
			grantedBy = "consumer"
		}
	}
	h.logger.Info("consumer updated via API",
		zap.String("request_id", requestID),
		zap.String("consumer_id", consumer.ConsumerID),
		zap.String("granted_by", grantedBy))

	_ = utils.WriteOK(w, consumer)
}

// HandleDeleteConsumer handles DELETE /api/v1/consumers/{consumerID}
func (h *ConsumerHandler) HandleDeleteConsumer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteConsumer(r.Context(), chi.URLParam(r, "consumerID")); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}
