package log

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"time"

	"github.com/holiman/uint256"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
)

const timeFormatMs = "2006-01-02T15:04:05.000-0700"

// JSONMsHandlerWithLevel writes JSON records with millisecond timestamps and geth level names.
func JSONMsHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: msReplacer{logfmt: false}.replace,
		Level:       level,
	})
}

// LogfmtMsHandlerWithLevel writes logfmt records with millisecond timestamps and geth level names.
func LogfmtMsHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: msReplacer{logfmt: true}.replace,
		Level:       level,
	})
}

// msReplacer renders the values derivation logs a lot of: big numbers in decimal,
// byte strings such as commitments and certificates in hex, and Stringers through String.
type msReplacer struct {
	logfmt bool
}

func (r msReplacer) replace(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() != slog.KindTime {
			return attr
		}
		if r.logfmt {
			return slog.String("t", attr.Value.Time().Format(timeFormatMs))
		}
		return slog.Attr{Key: "t", Value: attr.Value}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", log.LevelString(l))
		}
		return attr
	}

	switch v := attr.Value.Any().(type) {
	case time.Time:
		if r.logfmt {
			attr.Value = slog.StringValue(v.Format(timeFormatMs))
		}
	case *big.Int:
		attr.Value = nilOr(v == nil, v.String)
	case *uint256.Int:
		attr.Value = nilOr(v == nil, v.Dec)
	case []byte:
		attr.Value = slog.StringValue(hexutil.Encode(v))
	case fmt.Stringer:
		isNil := v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil())
		attr.Value = nilOr(isNil, v.String)
	}
	return attr
}

func nilOr(isNil bool, str func() string) slog.Value {
	if isNil {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(str())
}
