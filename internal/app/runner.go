package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"service-fulfillment/internal/logx"
	"service-fulfillment/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// Runner runs the HTTP servers and the order consumer until the context ends.
type Runner struct {
	runFn     func(*dig.Container) error
	logFatalf func(string, ...interface{})
}

// NewRunner returns a new Runner
func NewRunner() *Runner {
	return &Runner{runFn: run, logFatalf: log.Fatalf}
}

// MustRun starts everything in the container and blocks until shutdown.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}
	logger := containerLogger(container)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Info("startup aborted: startup timeout exceeded")
	default:
		r.logFatalf("run error: %v", err)
	}
}

func containerLogger(container *dig.Container) logx.Logger {
	var logger logx.Logger = logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })
	return logger
}

type runIn struct {
	dig.In

	Ctx      context.Context
	Logger   logx.Logger
	Server   *http.Server
	Debug    *http.Server    `name:"debug_server" optional:"true"`
	Consumer *kafka.Consumer `optional:"true"`
}

func run(container *dig.Container) error {
	return container.Invoke(serve)
}

func serve(in runIn) error {
	g, ctx := errgroup.WithContext(in.Ctx)

	g.Go(listen(in.Server, in.Logger, "http"))
	if in.Debug != nil {
		g.Go(listen(in.Debug, in.Logger, "debug"))
	}
	if in.Consumer != nil {
		g.Go(func() error {
			in.Logger.Info("kafka consumer started")
			return in.Consumer.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		in.Logger.Info("shutting down service-fulfillment")
		gracefulShutdown(in.Server, in.Logger, shutdownTimeout)
		if in.Debug != nil {
			gracefulShutdown(in.Debug, in.Logger, shutdownTimeout)
		}
		if in.Consumer != nil {
			if err := in.Consumer.Close(); err != nil {
				in.Logger.Error("kafka close error", logx.Err(err))
			}
		}
		return nil
	})

	return g.Wait()
}

func listen(srv *http.Server, logger logx.Logger, name string) func() error {
	return func() error {
		logger.Info("listening", logx.String("server", name), logx.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s listen: %w", name, err)
		}
		return nil
	}
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Err(err))
	}
}
