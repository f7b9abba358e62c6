package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/insightops/odag-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCertDir materializes a self-signed certificate trio the way the
// platform's certificate export lays it out.
func writeCertDir(t *testing.T) string {
	t.Helper()

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-client"},
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, privateKey.Public(), privateKey)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	keyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, clientCertFile), certPEM, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, clientKeyFile), keyPEM, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, rootCertFile), certPEM, 0o600))
	return dir
}

func testConfig(t *testing.T) interfaces.PlatformConfig {
	return interfaces.PlatformConfig{
		Host:          "analytics.example.com",
		CertDir:       writeCertDir(t),
		UserDirectory: "INTERNAL",
		UserID:        "sa_api",
	}.ApplyDefaults()
}

func TestNew_TokenShape(t *testing.T) {
	id, err := New(testConfig(t))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{16}$`), id.XrfKey())
}

func TestNew_TokenStableWithinInstance(t *testing.T) {
	id, err := New(testConfig(t))
	require.NoError(t, err)

	first := id.XrfKey()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, id.XrfKey())
	}
}

func TestNew_TokenDiffersAcrossInstances(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg)
	require.NoError(t, err)
	b, err := New(cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.XrfKey(), b.XrfKey())
}

func TestNew_MissingClientCert(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.CertDir, clientCertFile)))

	_, err := New(cfg)
	require.Error(t, err)

	var confErr *interfaces.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Path, clientCertFile)
}

func TestNew_MissingClientKey(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.CertDir, clientKeyFile)))

	_, err := New(cfg)
	require.Error(t, err)

	var confErr *interfaces.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Path, clientKeyFile)
}

func TestNew_MalformedClientKey(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.CertDir, clientKeyFile), []byte("not a key"), 0o600))

	_, err := New(cfg)
	require.Error(t, err)

	var confErr *interfaces.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Path, clientKeyFile)
}

func TestNew_MalformedRootCert(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.CertDir, rootCertFile), []byte("not a certificate"), 0o600))

	_, err := New(cfg)
	require.Error(t, err)

	var confErr *interfaces.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Path, rootCertFile)
}

func TestIdentity_UserHeader(t *testing.T) {
	id, err := New(testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "UserDirectory=INTERNAL; UserId=sa_api", id.UserHeader())
}

func TestIdentity_Decorate(t *testing.T) {
	id, err := New(testConfig(t))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "https://analytics.example.com:4242/qrs/about", nil)
	require.NoError(t, err)

	id.Decorate(req)

	assert.Equal(t, id.XrfKey(), req.URL.Query().Get(XrfKeyParam))
	assert.Equal(t, id.XrfKey(), req.Header.Get(XrfKeyHeader))
	assert.Equal(t, id.UserHeader(), req.Header.Get(UserHeaderKey))
}

func TestIdentity_SignURL(t *testing.T) {
	id, err := New(testConfig(t))
	require.NoError(t, err)

	signed, err := id.SignURL("wss://analytics.example.com:4747/app/abc-123")
	require.NoError(t, err)
	assert.Equal(t, "wss://analytics.example.com:4747/app/abc-123?xrfkey="+id.XrfKey(), signed)
}

func TestIdentity_TLSConfig(t *testing.T) {
	cfg := testConfig(t)

	id, err := New(cfg)
	require.NoError(t, err)
	assert.Len(t, id.TLSConfig().Certificates, 1)
	assert.False(t, id.TLSConfig().InsecureSkipVerify)

	cfg.TrustAllCerts = true
	id, err = New(cfg)
	require.NoError(t, err)
	assert.True(t, id.TLSConfig().InsecureSkipVerify)
}
