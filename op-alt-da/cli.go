package altda

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mantlenetworkio/mantle-altda/op-service/eigenda"
)

const (
	EnabledFlagName           = "altda.enabled"
	DaServerAddressFlagName   = "altda.da-server"
	VerifyOnReadFlagName      = "altda.verify-on-read"
	GetTimeoutFlagName        = "altda.get-timeout"
	MaxRetriesFlagName        = "altda.max-retries"
	CelestiaRPCFlagName       = "altda.celestia-rpc"
	CelestiaAuthTokenFlagName = "altda.celestia-auth-token"
	CelestiaNamespaceFlagName = "altda.celestia-namespace"
)

// celestiaNamespaceLen is the size of a celestia namespace: a version byte and a 28 byte id.
const celestiaNamespaceLen = 29

func altDAEnvs(envprefix, v string) []string {
	return eigenda.PrefixEnvVar(envprefix, "ALTDA_"+v)
}

func CLIFlags(envPrefix string, category string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     EnabledFlagName,
			Usage:    "Enable Alt-DA mode",
			EnvVars:  altDAEnvs(envPrefix, "ENABLED"),
			Category: category,
		},
		&cli.StringFlag{
			Name:     DaServerAddressFlagName,
			Usage:    "HTTP address of a DA server serving keccak and Avail commitments",
			EnvVars:  altDAEnvs(envPrefix, "DA_SERVER"),
			Category: category,
		},
		&cli.BoolFlag{
			Name:     VerifyOnReadFlagName,
			Usage:    "Verify input data matches the commitments from the DA server",
			Value:    true,
			EnvVars:  altDAEnvs(envPrefix, "VERIFY_ON_READ"),
			Category: category,
		},
		&cli.DurationFlag{
			Name:     GetTimeoutFlagName,
			Usage:    "Timeout for get requests. 0 means no timeout",
			Value:    30 * time.Second,
			EnvVars:  altDAEnvs(envPrefix, "GET_TIMEOUT"),
			Category: category,
		},
		&cli.Uint64Flag{
			Name:     MaxRetriesFlagName,
			Usage:    "Number of retries of a failed Alt-DA request",
			Value:    5,
			EnvVars:  altDAEnvs(envPrefix, "MAX_RETRIES"),
			Category: category,
		},
		&cli.StringFlag{
			Name:     CelestiaRPCFlagName,
			Usage:    "JSON-RPC address of a celestia-node serving Celestia commitments",
			EnvVars:  altDAEnvs(envPrefix, "CELESTIA_RPC"),
			Category: category,
		},
		&cli.StringFlag{
			Name:     CelestiaAuthTokenFlagName,
			Usage:    "Auth token of the celestia-node",
			EnvVars:  altDAEnvs(envPrefix, "CELESTIA_AUTH_TOKEN"),
			Category: category,
		},
		&cli.StringFlag{
			Name:     CelestiaNamespaceFlagName,
			Usage:    "Hex encoded namespace the batcher posts Celestia blobs to",
			EnvVars:  altDAEnvs(envPrefix, "CELESTIA_NAMESPACE"),
			Category: category,
		},
	}
}

type CLIConfig struct {
	Enabled           bool
	DAServerURL       string
	VerifyOnRead      bool
	GetTimeout        time.Duration
	MaxRetries        uint64
	CelestiaRPC       string
	CelestiaAuthToken string
	CelestiaNamespace string
}

func (c CLIConfig) Check() error {
	if !c.Enabled {
		return nil
	}
	if c.DAServerURL == "" && c.CelestiaRPC == "" {
		return errors.New("alt-da enabled but no DA server or celestia rpc configured")
	}
	if c.DAServerURL != "" {
		if _, err := url.ParseRequestURI(c.DAServerURL); err != nil {
			return fmt.Errorf("invalid DA server url: %w", err)
		}
	}
	if c.CelestiaRPC != "" {
		if _, err := c.Namespace(); err != nil {
			return err
		}
	}
	return nil
}

// Namespace decodes the configured celestia namespace.
func (c CLIConfig) Namespace() ([]byte, error) {
	ns, err := hex.DecodeString(c.CelestiaNamespace)
	if err != nil {
		return nil, fmt.Errorf("invalid celestia namespace: %w", err)
	}
	if len(ns) != celestiaNamespaceLen {
		return nil, fmt.Errorf("invalid celestia namespace: expected %d bytes, got %d", celestiaNamespaceLen, len(ns))
	}
	return ns, nil
}

// NewDAClient returns the generic DA server client, or nil if none is configured.
func (c CLIConfig) NewDAClient(m Metricer) *DAClient {
	if c.DAServerURL == "" {
		return nil
	}
	return NewDAClient(c.DAServerURL, c.VerifyOnRead, c.GetTimeout, m)
}

func ReadCLIConfig(c *cli.Context) CLIConfig {
	return CLIConfig{
		Enabled:           c.Bool(EnabledFlagName),
		DAServerURL:       c.String(DaServerAddressFlagName),
		VerifyOnRead:      c.Bool(VerifyOnReadFlagName),
		GetTimeout:        c.Duration(GetTimeoutFlagName),
		MaxRetries:        c.Uint64(MaxRetriesFlagName),
		CelestiaRPC:       c.String(CelestiaRPCFlagName),
		CelestiaAuthToken: c.String(CelestiaAuthTokenFlagName),
		CelestiaNamespace: c.String(CelestiaNamespaceFlagName),
	}
}
