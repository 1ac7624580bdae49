package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"
)

const (
	LevelFlagName  = "log.level"
	FormatFlagName = "log.format"
	ColorFlagName  = "log.color"
)

// FormatType defines a type of log format.
type FormatType string

const (
	FormatText     FormatType = "text"
	FormatTerminal FormatType = "terminal"
	FormatLogFmt   FormatType = "logfmt"
	FormatJSON     FormatType = "json"
)

var formatTypes = []FormatType{FormatText, FormatTerminal, FormatLogFmt, FormatJSON}

// String returns the string representation of the log format.
func (ft FormatType) String() string {
	return string(ft)
}

// Set is used to set the value of a FormatType from a string, for flag parsing.
func (ft *FormatType) Set(value string) error {
	for _, t := range formatTypes {
		if string(t) == value {
			*ft = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized log format: %q", value)
}

// Color reports whether the format supports colored output.
func (ft FormatType) Color() bool {
	return ft == FormatText || ft == FormatTerminal
}

// LevelFromString parses a log level name, accepting the geth names as well as "crit".
func LevelFromString(lvlString string) (slog.Level, error) {
	lvlString = strings.ToLower(lvlString)
	switch lvlString {
	case "trace", "trce":
		return log.LevelTrace, nil
	case "debug", "dbug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error", "eror":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelDebug, fmt.Errorf("unknown level: %v", lvlString)
	}
}

type CLIConfig struct {
	Level  slog.Level
	Color  bool
	Format FormatType
}

// DefaultCLIConfig creates a default log configuration.
// Color defaults to true if terminal is detected.
func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		Level:  log.LevelInfo,
		Format: FormatText,
		Color:  isTerminal(os.Stdout),
	}
}

func (cfg CLIConfig) Check() error {
	for _, t := range formatTypes {
		if t == cfg.Format {
			return nil
		}
	}
	return fmt.Errorf("unrecognized log format: %q", cfg.Format)
}

// NewLogHandler creates a new configured handler, writing to wr.
func NewLogHandler(wr io.Writer, cfg CLIConfig) slog.Handler {
	switch cfg.Format {
	case FormatJSON:
		return JSONMsHandlerWithLevel(wr, cfg.Level)
	case FormatLogFmt:
		return LogfmtMsHandlerWithLevel(wr, cfg.Level)
	default:
		return log.NewTerminalHandlerWithLevel(wr, cfg.Level, cfg.Color && cfg.Format.Color())
	}
}

// NewLogger creates a new configured logger, writing to wr.
func NewLogger(wr io.Writer, cfg CLIConfig) log.Logger {
	return log.NewLogger(NewLogHandler(wr, cfg))
}

// SetGlobalLogHandler sets the log handler of the root logger.
func SetGlobalLogHandler(h slog.Handler) {
	log.SetDefault(log.NewLogger(h))
}

func CLIFlags(envPrefix string) []cli.Flag {
	return CLIFlagsWithCategory(envPrefix, "")
}

func CLIFlagsWithCategory(envPrefix string, category string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     LevelFlagName,
			Usage:    "The lowest log level that will be output",
			Value:    "info",
			EnvVars:  []string{envPrefix + "_LOG_LEVEL"},
			Category: category,
		},
		&cli.StringFlag{
			Name:     FormatFlagName,
			Usage:    "Format the log output. Supported formats: 'text', 'terminal', 'logfmt', 'json'",
			Value:    FormatText.String(),
			EnvVars:  []string{envPrefix + "_LOG_FORMAT"},
			Category: category,
		},
		&cli.BoolFlag{
			Name:     ColorFlagName,
			Usage:    "Color the log output if in terminal mode",
			EnvVars:  []string{envPrefix + "_LOG_COLOR"},
			Category: category,
		},
	}
}

// ReadCLIConfig reads the logger configuration from the flags of the given cli context.
func ReadCLIConfig(ctx *cli.Context) (CLIConfig, error) {
	cfg := DefaultCLIConfig()
	lvl, err := LevelFromString(ctx.String(LevelFlagName))
	if err != nil {
		return cfg, err
	}
	cfg.Level = lvl
	if err := cfg.Format.Set(ctx.String(FormatFlagName)); err != nil {
		return cfg, err
	}
	if ctx.IsSet(ColorFlagName) {
		cfg.Color = ctx.Bool(ColorFlagName)
	}
	return cfg, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
