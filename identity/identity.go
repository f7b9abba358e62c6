// Package identity holds the certificate material and the per-session
// anti-forgery token the platform requires on every outbound call. It is
// constructed once at startup and shared by the REST and engine clients.
package identity

import (
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/insightops/odag-provisioning-backend/interfaces"
)

// Certificate files the platform exports into the certificate directory.
const (
	clientCertFile = "client.pem"
	clientKeyFile  = "client_key.pem"
	rootCertFile   = "root.pem"
)

// Wire names for the anti-forgery token and the impersonation principal.
const (
	XrfKeyParam   = "xrfkey"
	XrfKeyHeader  = "X-Qlik-Xrfkey"
	UserHeaderKey = "X-Qlik-User"
)

const xrfKeyLength = 16

const xrfKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Identity is the outbound credential set: the mutual-TLS material, the
// impersonation principal and the session anti-forgery token. The token is
// generated exactly once per Identity and never rotates.
type Identity struct {
	clientCert tls.Certificate
	rootPool   *x509.CertPool
	trustAll   bool
	userHeader string
	xrfKey     string
}

// New loads the certificate material from cfg.CertDir and mints the session
// token. Certificate problems surface as *interfaces.ConfigurationError;
// they are fatal and should abort startup.
func New(cfg interfaces.PlatformConfig) (*Identity, error) {
	certPath := filepath.Join(cfg.CertDir, clientCertFile)
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, &interfaces.ConfigurationError{Path: certPath, Err: err}
	}
	keyPath := filepath.Join(cfg.CertDir, clientKeyFile)
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &interfaces.ConfigurationError{Path: keyPath, Err: err}
	}
	clientCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, &interfaces.ConfigurationError{Path: certPath + ", " + keyPath, Err: err}
	}

	rootPath := filepath.Join(cfg.CertDir, rootCertFile)
	rootPEM, err := os.ReadFile(rootPath)
	if err != nil {
		return nil, &interfaces.ConfigurationError{Path: rootPath, Err: err}
	}
	rootPool := x509.NewCertPool()
	if !rootPool.AppendCertsFromPEM(rootPEM) {
		return nil, &interfaces.ConfigurationError{Path: rootPath, Err: errors.New("no certificates in PEM data")}
	}

	xrfKey, err := newXrfKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate anti-forgery token: %w", err)
	}

	return &Identity{
		clientCert: clientCert,
		rootPool:   rootPool,
		trustAll:   cfg.TrustAllCerts,
		userHeader: fmt.Sprintf("UserDirectory=%s; UserId=%s", cfg.UserDirectory, cfg.UserID),
		xrfKey:     xrfKey,
	}, nil
}

// newXrfKey draws 16 alphanumeric characters from crypto/rand.
func newXrfKey() (string, error) {
	buf := make([]byte, xrfKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = xrfKeyAlphabet[int(b)%len(xrfKeyAlphabet)]
	}
	return string(buf), nil
}

// TLSConfig returns a fresh client TLS configuration carrying the client
// certificate. Platform nodes often present certificates that do not match
// their public hostname, so verification is skipped when TrustAllCerts was
// set.
func (id *Identity) TLSConfig() *tls.Config {
	return &tls.Config{
		Certificates:       []tls.Certificate{id.clientCert},
		RootCAs:            id.rootPool,
		InsecureSkipVerify: id.trustAll,
	}
}

// XrfKey returns the session anti-forgery token.
func (id *Identity) XrfKey() string {
	return id.xrfKey
}

// UserHeader returns the composed impersonation header value, of the form
// "UserDirectory=<dir>; UserId=<user>".
func (id *Identity) UserHeader() string {
	return id.userHeader
}

// Headers returns the header set every outbound call carries: the
// anti-forgery token and the impersonation principal. The engine dialer
// passes these on the WebSocket handshake.
func (id *Identity) Headers() http.Header {
	h := http.Header{}
	h.Set(XrfKeyHeader, id.xrfKey)
	h.Set(UserHeaderKey, id.userHeader)
	return h
}

// Decorate stamps an outbound REST request with the anti-forgery token (as
// both query parameter and header) and the impersonation header.
func (id *Identity) Decorate(req *http.Request) {
	q := req.URL.Query()
	q.Set(XrfKeyParam, id.xrfKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set(XrfKeyHeader, id.xrfKey)
	req.Header.Set(UserHeaderKey, id.userHeader)
}

// SignURL appends the anti-forgery token as a query parameter. Used for the
// engine WebSocket URL, where there is no http.Request to decorate.
func (id *Identity) SignURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(XrfKeyParam, id.xrfKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
