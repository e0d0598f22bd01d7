package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/rolegate/services"
	"github.com/upb/rolegate/utils"
	"go.uber.org/zap"
)

// HandleServiceError writes the response for an error returned by the user
// or consumer service. Internal causes are logged and never sent.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error("unhandled error type", zap.Error(err))
		writeOrLog(logger, utils.WriteInternalServerError(w, "An unexpected error occurred"))
		return
	}

	message, details := domainErr.Message, services.GetErrorDetails(err)
	switch {
	case services.IsNotFoundError(err):
		writeOrLog(logger, utils.WriteNotFound(w, message))
	case services.IsValidationError(err):
		writeOrLog(logger, utils.WriteBadRequest(w, message, details))
	case services.IsIdentityNotFoundError(err):
		writeOrLog(logger, utils.WriteIdentityNotFound(w, message, details))
	case services.IsConflictError(err):
		writeOrLog(logger, utils.WriteConflict(w, message, details))
	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeOrLog(logger, utils.WriteInternalServerError(w, "An internal error occurred"))
		return
	default:
		logger.Error("unhandled error type", zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeOrLog(logger, utils.WriteInternalServerError(w, "An unexpected error occurred"))
		return
	}

	logger.Debug("handled service error",
		zap.String("type", string(domainErr.Type)),
		zap.String("message", domainErr.Message),
		zap.Any("details", details))
}

func writeOrLog(logger *zap.Logger, err error) {
	if err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}
