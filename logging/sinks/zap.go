package sinks

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/al007ex/moomoo-clone/logging"
)

// ZapSink forwards events to a zap logger, mapping severities onto levels.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink builds a production (JSON) or development (console) zap logger.
func NewZapSink(cfg logging.ZapConfig) (*ZapSink, error) {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "build zap logger")
	}
	return &ZapSink{logger: logger}, nil
}

// WrapZap adapts an existing logger.
func WrapZap(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Write(event logging.Event) error {
	fields := make([]zap.Field, 0, 6+len(event.Extra))
	fields = append(fields,
		zap.Uint64("tick", event.Tick),
		zap.String("category", event.Category),
		zap.String("actor", entityLabel(event.Actor)),
		zap.Time("time", event.Time),
	)
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	if event.TraceID != "" {
		fields = append(fields, zap.String("traceId", event.TraceID))
	}
	for k, v := range event.Extra {
		fields = append(fields, zap.Any(k, v))
	}

	msg := string(event.Type)
	switch event.Severity {
	case logging.SeverityDebug:
		s.logger.Debug(msg, fields...)
	case logging.SeverityWarn:
		s.logger.Warn(msg, fields...)
	case logging.SeverityError:
		s.logger.Error(msg, fields...)
	default:
		s.logger.Info(msg, fields...)
	}
	return nil
}

func (s *ZapSink) Close(context.Context) error {
	// Sync on stderr/stdout returns EINVAL on some platforms; nothing to recover.
	_ = s.logger.Sync()
	return nil
}
