package rolecheck

import (
	"encoding/pem"
	"net/http"
	"net/url"
	"strings"
)

// BasicCredentials are the username and password from an Authorization header
type BasicCredentials struct {
	Username string
	Password string
}

// ExtractBasicCredentials reads HTTP Basic credentials. ok is false when the
// header is absent, uses another scheme, is not valid base64 or lacks a colon.
// The password is everything after the first colon. An empty username is
// returned as is and left to the user lookup.
func ExtractBasicCredentials(r *http.Request) (BasicCredentials, bool) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return BasicCredentials{}, false
	}
	return BasicCredentials{Username: username, Password: password}, true
}

// CertificateSource returns the PEM encoded client certificate presented with
// a request, or nil when there is none.
type CertificateSource interface {
	ClientCertificate(r *http.Request) []byte
}

// ClientCertificateExtractor finds the client certificate on the TLS
// connection, falling back to a header set by a TLS-terminating proxy.
type ClientCertificateExtractor struct {
	// Header carries the forwarded certificate as PEM, raw or URL-escaped.
	// Empty disables header lookup.
	Header string
}

// NewClientCertificateExtractor creates an extractor reading the given proxy header
func NewClientCertificateExtractor(header string) *ClientCertificateExtractor {
	return &ClientCertificateExtractor{Header: header}
}

// ClientCertificate implements CertificateSource
func (e *ClientCertificateExtractor) ClientCertificate(r *http.Request) []byte {
	if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
		return pem.EncodeToMemory(&pem.Block{
			Type:  "CERTIFICATE",
			Bytes: r.TLS.PeerCertificates[0].Raw,
		})
	}

	if e.Header == "" {
		return nil
	}

	value := strings.TrimSpace(r.Header.Get(e.Header))
	if value == "" {
		return nil
	}

	// nginx forwards $ssl_client_escaped_cert. Escaped PEM keeps its
	// "-----BEGIN" prefix, so only a failed decode tells the two apart.
	if block, _ := pem.Decode([]byte(value)); block == nil && strings.Contains(value, "%") {
		unescaped, err := url.QueryUnescape(value)
		if err != nil {
			return nil
		}
		value = unescaped
	}

	return []byte(value)
}
