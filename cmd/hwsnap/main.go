package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/hwsnap/internal/config"
	"github.com/Dicklesworthstone/hwsnap/internal/logging"
	"github.com/Dicklesworthstone/hwsnap/internal/monitor"
	"github.com/Dicklesworthstone/hwsnap/internal/server"
	"github.com/Dicklesworthstone/hwsnap/internal/ui"
)

func main() {
	cfg, err := config.FromFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "hwsnap:", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "hwsnap:", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	tui := !cfg.JSON && !cfg.Serve && !cfg.Dump
	log := zap.NewNop()
	if !tui || cfg.Log.File != "" {
		l, err := logging.New(cfg.Log.Level, cfg.Log.Encoding, cfg.Log.File)
		if err != nil {
			return err
		}
		log = l
	}
	defer log.Sync()

	if cfg.JSON || cfg.Dump {
		// One-shot output must include GPU readings.
		cfg.AsyncGPU = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := monitor.Open(cfg, log)
	defer m.Close()

	switch {
	case cfg.Dump:
		return m.Dump(ctx, os.Stdout)
	case cfg.JSON:
		if err := m.PollWithBaseline(ctx, cfg.Interval); err != nil {
			return err
		}
		doc, err := m.AllSnapshot()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(doc))
		return err
	case cfg.Serve:
		return serve(ctx, cfg, m, log)
	}

	if err := m.StartBackgroundRefresh(intervalMs(cfg.Interval)); err != nil {
		return err
	}
	return ui.RunTUI(m)
}

func serve(ctx context.Context, cfg config.Config, m *monitor.Monitor, log *zap.Logger) error {
	if err := m.StartBackgroundRefresh(intervalMs(cfg.Interval)); err != nil {
		return err
	}
	log.Info("starting hwsnap", zap.Duration("interval", cfg.Interval), zap.Bool("async_gpu", cfg.AsyncGPU))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(m, log).Run(ctx, cfg.Listen)
	})
	g.Go(func() error {
		<-ctx.Done()
		return m.StopBackgroundRefresh()
	})
	return g.Wait()
}

func intervalMs(d time.Duration) int {
	return int(d / time.Millisecond)
}
