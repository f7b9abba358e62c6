package interfaces

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default platform ports. The resource API and the engine belong to the
// platform proper; the link service is the separately deployed ODAG
// subsystem.
const (
	DefaultResourceAPIPort = 4242
	DefaultEnginePort      = 4747
	DefaultLinkServicePort = 9098
)

// DefaultRequestTimeout bounds each remote call, including the engine
// WebSocket handshake.
const DefaultRequestTimeout = 30 * time.Second

// PlatformConfig is the resolved connection record for the remote analytics
// platform. Sourcing the values (files, flags, environment) is the caller's
// concern; this record arrives complete.
//
// Retry settings are deliberately absent: no call site in this system
// retries, and carrying unread knobs invites misconfiguration.
type PlatformConfig struct {
	// Host is the platform hostname, without scheme or port.
	Host string

	// ResourceAPIPort serves the REST resource API.
	ResourceAPIPort int

	// EnginePort serves the WebSocket engine protocol.
	EnginePort int

	// LinkServicePort serves the ODAG link service.
	LinkServicePort int

	// CertDir contains client.pem, client_key.pem and root.pem exported
	// from the platform.
	CertDir string

	// UserDirectory and UserID form the impersonation principal sent on
	// every outbound call.
	UserDirectory string
	UserID        string

	// VirtualProxyPrefix optionally routes calls through a platform
	// virtual proxy. Empty means the default proxy.
	VirtualProxyPrefix string

	// RequestTimeout bounds each remote call.
	RequestTimeout time.Duration

	// TrustAllCerts disables host certificate verification. Platform nodes
	// commonly present certificates that do not match their hostname; the
	// client certificate chain still authenticates both parties.
	TrustAllCerts bool
}

// ApplyDefaults fills zero-valued ports and timeout with the platform
// defaults and returns the completed record.
func (c PlatformConfig) ApplyDefaults() PlatformConfig {
	if c.ResourceAPIPort == 0 {
		c.ResourceAPIPort = DefaultResourceAPIPort
	}
	if c.EnginePort == 0 {
		c.EnginePort = DefaultEnginePort
	}
	if c.LinkServicePort == 0 {
		c.LinkServicePort = DefaultLinkServicePort
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

// Validate checks that the fields without usable defaults are present.
func (c PlatformConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("platform host is required")
	}
	if strings.TrimSpace(c.CertDir) == "" {
		return errors.New("certificate directory is required")
	}
	if strings.TrimSpace(c.UserDirectory) == "" {
		return errors.New("impersonation user directory is required")
	}
	if strings.TrimSpace(c.UserID) == "" {
		return errors.New("impersonation user id is required")
	}
	return nil
}

// prefixPath normalizes the virtual proxy prefix into a leading-slash path
// segment, or an empty string when no prefix is configured.
func (c PlatformConfig) prefixPath() string {
	p := strings.Trim(c.VirtualProxyPrefix, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// ResourceAPIBaseURL returns the https base URL of the resource API,
// including the virtual proxy prefix when configured.
func (c PlatformConfig) ResourceAPIBaseURL() string {
	return fmt.Sprintf("https://%s:%d%s", c.Host, c.ResourceAPIPort, c.prefixPath())
}

// LinkServiceBaseURL returns the https base URL of the ODAG link service.
func (c PlatformConfig) LinkServiceBaseURL() string {
	return fmt.Sprintf("https://%s:%d%s", c.Host, c.LinkServicePort, c.prefixPath())
}

// EngineURL returns the wss URL of the engine channel for one application.
// The application id is part of the connection path.
func (c PlatformConfig) EngineURL(app AppID) string {
	return fmt.Sprintf("wss://%s:%d%s/app/%s", c.Host, c.EnginePort, c.prefixPath(), app)
}

// EngineProbeURL returns the wss URL of the app-less engine channel used for
// connectivity probes.
func (c PlatformConfig) EngineProbeURL() string {
	return fmt.Sprintf("wss://%s:%d%s/app/engineData", c.Host, c.EnginePort, c.prefixPath())
}
