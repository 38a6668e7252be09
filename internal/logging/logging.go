// Package logging builds the zap logger used for diagnostics.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidLevel and ErrInvalidFormat are returned for unknown settings.
var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// Options select the level, encoding and destination of the logger.
type Options struct {
	Level  string    // "debug", "info", "warn", "error", "none"; empty = "info"
	Format string    // "console" or "json"; empty = "console"
	Out    io.Writer // usually stderr
	Color  bool      // colorize console levels
	Name   string    // logger name, e.g. the program name
}

// New returns a configured logger. Level "none" returns a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	if strings.EqualFold(opts.Level, "none") {
		return zap.NewNop(), nil
	}

	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		if opts.Color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
			ec.TimeKey = zapcore.OmitKey
		} else {
			ec.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		enc = consoleEnc{zapcore.NewConsoleEncoder(ec)}
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	default:
		return nil, fmt.Errorf("%w: %q (must be console or json)", ErrInvalidFormat, opts.Format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(opts.Out)), level)
	log := zap.New(core)
	if opts.Name != "" {
		log = log.Named(opts.Name)
	}
	return log, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return level, nil
}

// consoleEnc prints errors without their verbose form (stack traces from
// wrapped errors) to keep console lines readable.
type consoleEnc struct {
	zapcore.Encoder
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		out = append(out, f)
	}
	return c.Encoder.EncodeEntry(ent, out)
}
