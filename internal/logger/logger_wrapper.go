package logger

import (
	"sync"
	"time"

	"github.com/leandrodaf/playback/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of Uber's zap.
type ZapLogger struct {
	mu     sync.RWMutex
	logger *zap.Logger
	level  zap.AtomicLevel
	config zap.Config
}

// NewZapLogger creates a logger with zap's production (JSON) configuration.
func NewZapLogger() contracts.Logger {
	return newFromConfig(zap.NewProductionConfig())
}

// NewStandardLogger creates a human-readable console logger.
func NewStandardLogger() contracts.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Development = false
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return newFromConfig(cfg)
}

// NewZapLoggerFromCore wraps an existing zap core. Level filtering is still
// applied by the wrapper, so SetLevel keeps working.
func NewZapLoggerFromCore(core zapcore.Core) contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &ZapLogger{
		logger: zap.New(&levelCore{Core: core, level: level}, zap.AddCaller(), zap.AddCallerSkip(1)),
		level:  level,
	}
}

func newFromConfig(cfg zap.Config) *ZapLogger {
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	z := &ZapLogger{level: cfg.Level, config: cfg}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	z.logger = l
	return z
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.current().Info(msg, toZapFields(fields)...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.current().Error(msg, toZapFields(fields)...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.current().Debug(msg, toZapFields(fields)...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.current().Warn(msg, toZapFields(fields)...)
}

// Fatal logs a message at the FATAL level and terminates the application with exit code 1.
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.current().Fatal(msg, toZapFields(fields)...)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination redirects output to the console (stderr) or to a file.
// Loggers built with NewZapLoggerFromCore keep their core.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.config.Encoding == "" {
		return
	}

	cfg := z.config
	switch dest {
	case contracts.FileLog:
		if len(filePath) == 0 || filePath[0] == "" {
			return
		}
		cfg.OutputPaths = []string{filePath[0]}
		cfg.ErrorOutputPaths = []string{filePath[0]}
	default:
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z.logger.Error("cannot change log destination", zap.Error(err))
		return
	}
	_ = z.logger.Sync()
	z.logger = l
	z.config = cfg
}

func (z *ZapLogger) current() *zap.Logger {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.logger
}

// toZapLevel maps contract levels, whose ordinals do not follow severity, to zap levels.
func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

// levelCore gates an arbitrary core behind the wrapper's atomic level.
type levelCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *levelCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l) && c.Core.Enabled(l)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), level: c.level}
}

func (c *levelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(*zapField); ok && f.key != "" {
			out = append(out, f.zap())
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	key   string
	value interface{}
}

func (f *zapField) zap() zap.Field {
	switch v := f.value.(type) {
	case error:
		return zap.NamedError(f.key, v)
	case time.Duration:
		return zap.Duration(f.key, v)
	}
	return zap.Any(f.key, f.value)
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) String(key string, val string) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Duration(key string, val time.Duration) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return &zapField{key, val}
}
