package rolecheck

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/rolegate/models"
	"github.com/upb/rolegate/repositories"
	"go.uber.org/zap"
)

// ConsumerLookup resolves consumers by certificate CN.
// repositories.ConsumerRepository satisfies it.
type ConsumerLookup interface {
	GetByConsumerID(ctx context.Context, consumerID string) (*models.Consumer, error)
}

// CertificateConsumerValidator grants consumer access from the client certificate
type CertificateConsumerValidator struct {
	source    CertificateSource
	parser    CertificateParser
	consumers ConsumerLookup
	logger    *zap.Logger
}

// NewCertificateConsumerValidator creates a new CertificateConsumerValidator
func NewCertificateConsumerValidator(source CertificateSource, parser CertificateParser, consumers ConsumerLookup, logger *zap.Logger) *CertificateConsumerValidator {
	return &CertificateConsumerValidator{
		source:    source,
		parser:    parser,
		consumers: consumers,
		logger:    logger,
	}
}

// Validate reports whether the request carries the certificate of a registered
// consumer. With requireIDMatch the CN must also equal one of args.
func (v *CertificateConsumerValidator) Validate(r *http.Request, requireIDMatch bool, args []string) bool {
	certPEM := v.source.ClientCertificate(r)
	if certPEM == nil {
		return false
	}

	cn, err := v.parser.SubjectCommonName(certPEM)
	if err != nil {
		if errors.Is(err, ErrMissingCommonName) {
			v.logger.Error("consumer CN not found in certificate, not a valid consumer certificate")
		} else {
			v.logger.Warn("unreadable client certificate", zap.Error(err))
		}
		return false
	}

	if _, err := v.consumers.GetByConsumerID(r.Context(), cn); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			v.logger.Warn("consumer does not exist", zap.String("consumer_id", cn))
		} else {
			v.logger.Error("failed to resolve consumer", zap.String("consumer_id", cn), zap.Error(err))
		}
		return false
	}

	if !requireIDMatch {
		return true
	}

	for _, arg := range args {
		if arg == cn {
			return true
		}
	}

	v.logger.Warn("certificate CN does not match the requested consumer",
		zap.String("consumer_id", cn),
		zap.Strings("args", args))
	return false
}
