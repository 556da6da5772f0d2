package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgkafka "AgriIntel/pkg/kafka"
	applogger "AgriIntel/pkg/logger"
)

// HTTPServer is the part of pkg/http.Server the app drives.
type HTTPServer interface {
	Start() error
	Stop(ctx context.Context) error
}

// Consumer is the part of pkg/kafka.Consumer the app drives.
type Consumer interface {
	RegisterHandler(h pkgkafka.MessageHandler)
	Start() error
	Stop(ctx context.Context) error
}

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the application lifecycle.
type App struct {
	l               *applogger.Logger
	http            HTTPServer
	consumer        Consumer
	ingest          pkgkafka.MessageHandler
	shutdownTimeout time.Duration
	closers         []closer
}

// New creates an App. consumer and ingest may be nil when Kafka is disabled.
func New(l *applogger.Logger, http HTTPServer, consumer Consumer, ingest pkgkafka.MessageHandler, shutdownTimeout time.Duration) *App {
	if l == nil {
		l = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{l: l, http: http, consumer: consumer, ingest: ingest, shutdownTimeout: shutdownTimeout}
}

// OnShutdown registers fn to run after servers stop. Closers run in reverse order.
func (a *App) OnShutdown(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.consumer != nil && a.ingest != nil {
		a.consumer.RegisterHandler(a.ingest)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			a.consumer = nil
		} else {
			a.l.Info("kafka consumer started", applogger.String("topic", a.ingest.Topic()))
		}
	}

	if err := a.http.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	a.shutdown()
	return nil
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.http.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.l.Warn("close error", applogger.String("component", c.name), applogger.Error(err))
		}
	}
	a.l.Info("shutdown complete")
}
