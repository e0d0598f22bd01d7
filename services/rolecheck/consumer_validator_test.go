package rolecheck

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/rolegate/models"
	"github.com/upb/rolegate/repositories"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCertificateConsumerValidator_Validate(t *testing.T) {
	known := certPEM(newTestCertificate(t, "billing-service"))
	unknown := certPEM(newTestCertificate(t, "stranger"))
	noCN := certPEM(newTestCertificate(t, ""))
	consumer := models.NewConsumer("billing-service", "Billing")

	notFound := fmt.Errorf("consumer %q: %w", "stranger", repositories.ErrNotFound)

	tests := []struct {
		name           string
		cert           []byte
		requireIDMatch bool
		args           []string
		setup          func(*mockConsumerLookup)
		want           bool
	}{
		{
			name:  "no certificate",
			setup: func(*mockConsumerLookup) {},
			want:  false,
		},
		{
			name:  "certificate without CN",
			cert:  noCN,
			setup: func(*mockConsumerLookup) {},
			want:  false,
		},
		{
			name:  "unparseable certificate",
			cert:  []byte("garbage"),
			setup: func(*mockConsumerLookup) {},
			want:  false,
		},
		{
			name: "unknown consumer",
			cert: unknown,
			setup: func(m *mockConsumerLookup) {
				m.On("GetByConsumerID", mock.Anything, "stranger").Return(nil, notFound)
			},
			want: false,
		},
		{
			name: "store failure",
			cert: known,
			setup: func(m *mockConsumerLookup) {
				m.On("GetByConsumerID", mock.Anything, "billing-service").Return(nil, errors.New("timeout"))
			},
			want: false,
		},
		{
			name: "known consumer without id match",
			cert: known,
			setup: func(m *mockConsumerLookup) {
				m.On("GetByConsumerID", mock.Anything, "billing-service").Return(consumer, nil)
			},
			want: true,
		},
		{
			name:           "id match found among args",
			cert:           known,
			requireIDMatch: true,
			args:           []string{"repo-1", "billing-service"},
			setup: func(m *mockConsumerLookup) {
				m.On("GetByConsumerID", mock.Anything, "billing-service").Return(consumer, nil)
			},
			want: true,
		},
		{
			name:           "id match against another consumer",
			cert:           known,
			requireIDMatch: true,
			args:           []string{"shipping-service"},
			setup: func(m *mockConsumerLookup) {
				m.On("GetByConsumerID", mock.Anything, "billing-service").Return(consumer, nil)
			},
			want: false,
		},
		{
			name:           "id match with no args",
			cert:           known,
			requireIDMatch: true,
			setup: func(m *mockConsumerLookup) {
				m.On("GetByConsumerID", mock.Anything, "billing-service").Return(consumer, nil)
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumers := new(mockConsumerLookup)
			tt.setup(consumers)

			v := NewCertificateConsumerValidator(staticCertificate(tt.cert), NewX509SubjectParser(), consumers, zap.NewNop())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			assert.Equal(t, tt.want, v.Validate(req, tt.requireIDMatch, tt.args))
			consumers.AssertExpectations(t)
		})
	}
}

func TestCertificateConsumerValidator_MissingCNLogsError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	consumers := new(mockConsumerLookup)
	source := staticCertificate(certPEM(newTestCertificate(t, "")))
	v := NewCertificateConsumerValidator(source, NewX509SubjectParser(), consumers, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, v.Validate(req, false, nil))

	errorLogs := logs.FilterLevelExact(zap.ErrorLevel).All()
	assert.Len(t, errorLogs, 1)
	consumers.AssertNotCalled(t, "GetByConsumerID", mock.Anything, mock.Anything)
}
