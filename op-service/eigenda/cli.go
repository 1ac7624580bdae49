package eigenda

import (
	"time"

	"github.com/urfave/cli/v2"
)

const (
	ProxyUrlFlagName            = "eigenda-proxy-url"
	DisperserUrlFlagName        = "eigenda-disperser-url"
	RetrieveBlobTimeoutFlagName = "eigenda-retrieve-blob-timeout"
)

func PrefixEnvVar(prefix, suffix string) []string {
	return []string{prefix + "_" + suffix}
}

type CLIConfig struct {
	ProxyUrl            string
	DisperserUrl        string
	RetrieveBlobTimeout time.Duration
}

func (m CLIConfig) Check() error {
	return m.Config().Check()
}

func (m CLIConfig) Config() Config {
	return Config{
		ProxyUrl:            m.ProxyUrl,
		DisperserUrl:        m.DisperserUrl,
		RetrieveBlobTimeout: m.RetrieveBlobTimeout,
	}
}

// ReadCLIConfig parses the CLIConfig from the provided flags or environment variables.
func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	return CLIConfig{
		ProxyUrl:            ctx.String(ProxyUrlFlagName),
		DisperserUrl:        ctx.String(DisperserUrlFlagName),
		RetrieveBlobTimeout: ctx.Duration(RetrieveBlobTimeoutFlagName),
	}
}

func CLIFlags(envPrefix string, category string) []cli.Flag {
	prefixEnvVars := func(name string) []string {
		return PrefixEnvVar(envPrefix, name)
	}
	return []cli.Flag{
		&cli.StringFlag{
			Name:     ProxyUrlFlagName,
			Usage:    "HTTP endpoint of the EigenDA proxy",
			EnvVars:  prefixEnvVars("EIGENDA_PROXY_URL"),
			Category: category,
		},
		&cli.StringFlag{
			Name:     DisperserUrlFlagName,
			Usage:    "gRPC endpoint of the EigenDA disperser, used as a fallback for V1 certificates",
			EnvVars:  prefixEnvVars("EIGENDA_DISPERSER_URL"),
			Category: category,
		},
		&cli.DurationFlag{
			Name:     RetrieveBlobTimeoutFlagName,
			Usage:    "Timeout for retrieving a blob from EigenDA",
			Value:    2 * time.Minute,
			EnvVars:  prefixEnvVars("EIGENDA_RETRIEVE_BLOB_TIMEOUT"),
			Category: category,
		},
	}
}
