// Package transport builds the HTTP clients the console uses to reach the
// server.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

// LoadCAPool reads a PEM encoded CA certificate.
func LoadCAPool(caPath string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	return caPool, nil
}

// NewHTTPClient returns a client that keeps cookies in jar. When caPath is
// set, server certificates must chain to that CA.
func NewHTTPClient(caPath string, jar http.CookieJar) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if caPath != "" {
		caPool, err := LoadCAPool(caPath)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = &tls.Config{
			RootCAs:    caPool,
			MinVersion: tls.VersionTLS12,
		}
	}
	return &http.Client{Transport: transport, Jar: jar, Timeout: defaultTimeout}, nil
}

// NewRestyClient wraps hc in a resty client rooted at baseURL.
func NewRestyClient(baseURL string, hc *http.Client) *resty.Client {
	return resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
}
