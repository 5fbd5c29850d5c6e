// Package logger builds the structured JSON zap logger used across the service.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	level       zapcore.Level
	development bool
	fields      map[string]any
	writer      io.Writer
	loc         *time.Location
}

// Option configures New.
type Option func(*options)

// WithLevel sets the minimum level from its name ("debug", "info", "warn", "error").
// Unknown names fall back to info.
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = ParseLevel(level)
	}
}

// WithDevelopment enables zap's development mode (DPanic panics, stack traces on warn).
func WithDevelopment(dev bool) Option {
	return func(o *options) {
		o.development = dev
	}
}

// WithFields attaches fields to every log line.
func WithFields(fields map[string]any) Option {
	return func(o *options) {
		for k, v := range fields {
			if k == "" {
				continue
			}
			o.fields[k] = v
		}
	}
}

// WithWriter sends log lines to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithLocation renders the ts field in loc.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// ParseLevel converts a level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// New returns a JSON logger writing one object per line with ts, level, msg and caller.
func New(opts ...Option) *zap.Logger {
	o := &options{
		level:  zapcore.InfoLevel,
		fields: map[string]any{},
		writer: os.Stdout,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(o)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.MessageKey = "msg"
	enc.LevelKey = "level"
	loc := o.loc
	enc.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(t.In(loc).Format(time.RFC3339Nano))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(o.writer), zap.NewAtomicLevelAt(o.level))

	zopts := []zap.Option{zap.AddCaller()}
	if o.development {
		zopts = append(zopts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}
	if len(o.fields) > 0 {
		fs := make([]zap.Field, 0, len(o.fields))
		for k, v := range o.fields {
			fs = append(fs, zap.Any(k, v))
		}
		zopts = append(zopts, zap.Fields(fs...))
	}
	return zap.New(core, zopts...)
}
