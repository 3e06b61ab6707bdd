package instrument

import (
	"os"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dataspace-connector/internal/config"
)

// Monitor is the leveled logging sink handed to every component. Calls are
// fire-and-forget: they return nothing and must not block the caller.
type Monitor interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warning(msg string, keysAndValues ...any)
	Severe(msg string, keysAndValues ...any)
}

// ZapMonitor writes through a buffered syncer that is flushed on a timer, so
// a slow stderr never stalls a request.
type ZapMonitor struct {
	log    *zap.SugaredLogger
	buffer *zapcore.BufferedWriteSyncer
}

// NewMonitor builds a JSON (or, in development, console) monitor from cfg.
func NewMonitor(cfg config.LogConfig) (*ZapMonitor, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", cfg.Level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	buffer := &zapcore.BufferedWriteSyncer{
		WS:            zapcore.Lock(os.Stderr),
		Size:          cfg.BufferSize,
		FlushInterval: time.Duration(cfg.FlushIntervalMs) * time.Millisecond,
	}
	core := zapcore.NewCore(encoder, buffer, zap.NewAtomicLevelAt(level))
	return &ZapMonitor{log: zap.New(core).Sugar(), buffer: buffer}, nil
}

// FromLogger wraps an existing zap logger, e.g. one built on an observer core in tests.
func FromLogger(l *zap.Logger) *ZapMonitor {
	return &ZapMonitor{log: l.Sugar()}
}

func (m *ZapMonitor) Debug(msg string, kv ...any)   { m.log.Debugw(msg, kv...) }
func (m *ZapMonitor) Info(msg string, kv ...any)    { m.log.Infow(msg, kv...) }
func (m *ZapMonitor) Warning(msg string, kv ...any) { m.log.Warnw(msg, kv...) }
func (m *ZapMonitor) Severe(msg string, kv ...any)  { m.log.Errorw(msg, kv...) }

// Named returns a monitor whose entries carry the given component name.
func (m *ZapMonitor) Named(name string) *ZapMonitor {
	return &ZapMonitor{log: m.log.Named(name), buffer: m.buffer}
}

// Close flushes buffered entries and stops the flush timer. Terminals and
// pipes reject fsync, which is not a failure to write.
func (m *ZapMonitor) Close() error {
	_ = m.log.Sync()
	if m.buffer == nil {
		return nil
	}
	err := m.buffer.Stop()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
