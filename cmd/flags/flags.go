// Package flags holds the CLI flags and constructors shared by the server
// and client entry points.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/insightops/odag-provisioning-backend/common"
	"github.com/insightops/odag-provisioning-backend/httpserver"
	"github.com/insightops/odag-provisioning-backend/interfaces"
	"github.com/urfave/cli/v2"
)

// SetupLogger builds the process logger from the shared logging flags.
func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// PlatformConfig assembles the platform connection record from the shared
// platform flags, with defaults applied.
func PlatformConfig(cCtx *cli.Context) interfaces.PlatformConfig {
	cfg := interfaces.PlatformConfig{
		Host:               cCtx.String(HostFlag.Name),
		ResourceAPIPort:    cCtx.Int(ResourceAPIPortFlag.Name),
		EnginePort:         cCtx.Int(EnginePortFlag.Name),
		LinkServicePort:    cCtx.Int(LinkServicePortFlag.Name),
		CertDir:            cCtx.String(CertDirFlag.Name),
		UserDirectory:      cCtx.String(UserDirectoryFlag.Name),
		UserID:             cCtx.String(UserIDFlag.Name),
		VirtualProxyPrefix: cCtx.String(VirtualProxyFlag.Name),
		RequestTimeout:     time.Duration(cCtx.Int64(RequestTimeoutFlag.Name)) * time.Second,
		TrustAllCerts:      cCtx.Bool(TrustAllCertsFlag.Name),
	}
	return cfg.ApplyDefaults()
}

// ConfigureServer builds the HTTP server configuration from the shared
// server flags. The write timeout must outlast a full provisioning run,
// which issues up to five sequential platform calls.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             180 * time.Second,
	}
}

var HostFlag = &cli.StringFlag{
	Name:     "host",
	Required: true,
	Usage:    "analytics platform hostname, no scheme",
	EnvVars:  []string{"ODAG_HOST"},
}

var CertDirFlag = &cli.StringFlag{
	Name:     "cert-dir",
	Required: true,
	Usage:    "directory containing client.pem, client_key.pem and root.pem",
	EnvVars:  []string{"ODAG_CERT_DIR"},
}

var UserDirectoryFlag = &cli.StringFlag{
	Name:     "user-directory",
	Required: true,
	Usage:    "platform user directory of the impersonated principal",
	EnvVars:  []string{"ODAG_USER_DIRECTORY"},
}

var UserIDFlag = &cli.StringFlag{
	Name:     "user-id",
	Required: true,
	Usage:    "platform user id of the impersonated principal",
	EnvVars:  []string{"ODAG_USER_ID"},
}

var ResourceAPIPortFlag = &cli.IntFlag{
	Name:    "resource-api-port",
	Value:   interfaces.DefaultResourceAPIPort,
	Usage:   "resource API port",
	EnvVars: []string{"ODAG_RESOURCE_API_PORT"},
}

var EnginePortFlag = &cli.IntFlag{
	Name:    "engine-port",
	Value:   interfaces.DefaultEnginePort,
	Usage:   "engine WebSocket port",
	EnvVars: []string{"ODAG_ENGINE_PORT"},
}

var LinkServicePortFlag = &cli.IntFlag{
	Name:    "link-service-port",
	Value:   interfaces.DefaultLinkServicePort,
	Usage:   "link service port",
	EnvVars: []string{"ODAG_LINK_SERVICE_PORT"},
}

var VirtualProxyFlag = &cli.StringFlag{
	Name:    "virtual-proxy",
	Usage:   "virtual proxy prefix if the platform sits behind one",
	EnvVars: []string{"ODAG_VIRTUAL_PROXY"},
}

var RequestTimeoutFlag = &cli.Int64Flag{
	Name:    "request-timeout-seconds",
	Value:   30,
	Usage:   "per-call timeout against the platform",
	EnvVars: []string{"ODAG_REQUEST_TIMEOUT_SECONDS"},
}

var TrustAllCertsFlag = &cli.BoolFlag{
	Name:    "trust-all-certs",
	Value:   false,
	Usage:   "skip TLS verification of platform certificates, development only",
	EnvVars: []string{"ODAG_TRUST_ALL_CERTS"},
}

// PlatformFlags configure the connection to the analytics platform. Both
// entry points take all of them.
var PlatformFlags = []cli.Flag{
	HostFlag,
	CertDirFlag,
	UserDirectoryFlag,
	UserIDFlag,
	ResourceAPIPortFlag,
	EnginePortFlag,
	LinkServicePortFlag,
	VirtualProxyFlag,
	RequestTimeoutFlag,
	TrustAllCertsFlag,
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "odag-provisioning-backend",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
