package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const instrumentationName = "github.com/goliatone/go-formfields/cmd/formfields-demo"

// newLogger writes JSON logs to a rotated file when path is set, and to
// stderr otherwise.
func newLogger(path, level string) (*zap.Logger, func(), error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("logger: %w", err)
		}
		lvl = parsed
	}

	if path == "" {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.OutputPaths = []string{"stderr"}
		logger, err := cfg.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("logger: %w", err)
		}
		return logger, func() { _ = logger.Sync() }, nil
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    15,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(file),
		lvl,
	)
	logger := zap.New(core)
	return logger, func() {
		_ = logger.Sync()
		_ = file.Close()
	}, nil
}

// newTracer exports spans to w when enabled, and returns a no-op tracer
// otherwise.
func newTracer(enabled bool, w io.Writer) (trace.Tracer, func(context.Context) error, error) {
	if !enabled {
		return trace.NewNoopTracerProvider().Tracer(instrumentationName), func(context.Context) error { return nil }, nil
	}
	if w == nil {
		w = os.Stderr
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("tracer: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	otel.SetTracerProvider(tp)
	return tp.Tracer(instrumentationName), tp.Shutdown, nil
}
