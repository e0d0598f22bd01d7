package rolecheck

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

var (
	// ErrInvalidCertificate is returned when the material is not a PEM certificate
	ErrInvalidCertificate = errors.New("invalid client certificate")

	// ErrMissingCommonName is returned when the subject carries no CN
	ErrMissingCommonName = errors.New("certificate subject has no common name")
)

// CertificateParser extracts the subject identity from certificate material
type CertificateParser interface {
	SubjectCommonName(certPEM []byte) (string, error)
}

// X509SubjectParser reads the subject CN of a PEM encoded X.509 certificate
type X509SubjectParser struct{}

// NewX509SubjectParser creates a parser
func NewX509SubjectParser() *X509SubjectParser {
	return &X509SubjectParser{}
}

// SubjectCommonName returns the first certificate's subject CN
func (p *X509SubjectParser) SubjectCommonName(certPEM []byte) (string, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return "", ErrInvalidCertificate
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}

	if cert.Subject.CommonName == "" {
		return "", ErrMissingCommonName
	}

	return cert.Subject.CommonName, nil
}
