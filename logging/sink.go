package logging

import (
	"go.uber.org/zap/zapcore"
)

// Sink receives log entries as a level, a message and structured data.
type Sink interface {
	Log(level zapcore.Level, message string, data map[string]any)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(level zapcore.Level, message string, data map[string]any)

func (f SinkFunc) Log(level zapcore.Level, message string, data map[string]any) {
	f(level, message, data)
}

type sinkCore struct {
	zapcore.LevelEnabler
	sink   Sink
	fields []zapcore.Field
}

// NewSinkCore adapts sink to a zapcore.Core so it can sit under a zap
// logger, alone or teed with other cores.
func NewSinkCore(sink Sink, enab zapcore.LevelEnabler) zapcore.Core {
	return &sinkCore{LevelEnabler: enab, sink: sink}
}

func (c *sinkCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &sinkCore{
		LevelEnabler: c.LevelEnabler,
		sink:         c.sink,
		fields:       make([]zapcore.Field, 0, len(c.fields)+len(fields)),
	}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *sinkCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *sinkCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	if ent.LoggerName != "" {
		enc.Fields["logger"] = ent.LoggerName
	}

	c.sink.Log(ent.Level, ent.Message, enc.Fields)
	return nil
}

func (c *sinkCore) Sync() error {
	return nil
}
