// Package monitor is the control surface over one sensor source: it owns
// the source, the aggregate store and the sampler for their whole lifetime.
package monitor

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/hwsnap/internal/classify"
	"github.com/Dicklesworthstone/hwsnap/internal/config"
	"github.com/Dicklesworthstone/hwsnap/internal/diag"
	"github.com/Dicklesworthstone/hwsnap/internal/sampler"
	"github.com/Dicklesworthstone/hwsnap/internal/snapshot"
	"github.com/Dicklesworthstone/hwsnap/internal/source"
	"github.com/Dicklesworthstone/hwsnap/internal/store"
)

var ErrClosed = errors.New("monitor closed")

// Options tune New. Zero values are usable.
type Options struct {
	Clock clockwork.Clock
	// Registry receives the diagnostic counters. A private registry is
	// created when nil.
	Registry *prometheus.Registry
}

// Monitor polls a source and serves snapshots of the result. All methods
// are safe for concurrent use.
type Monitor struct {
	log      *zap.Logger
	src      source.Source
	store    *store.Store
	sampler  *sampler.Sampler
	encoder  *snapshot.Encoder
	registry *prometheus.Registry
	clock    clockwork.Clock

	mu     sync.RWMutex
	closed bool
}

// Open builds a monitor over the local host.
func Open(cfg config.Config, log *zap.Logger) *Monitor {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	clk := clockwork.NewRealClock()
	host := source.OpenHost(source.HostOptions{
		EnableGPU:     cfg.Categories.GPU,
		EnableBattery: cfg.Categories.Battery,
		EnableThermal: cfg.Categories.Other,
	}, log, clk)
	return New(host, cfg, log, Options{Clock: clk, Registry: reg})
}

// New builds a monitor over src. The monitor owns src and closes it.
func New(src source.Source, cfg config.Config, log *zap.Logger, opts Options) *Monitor {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	st := store.New()
	return &Monitor{
		log:   log.Named("monitor"),
		src:   src,
		store: st,
		sampler: sampler.New(src, classify.NewTable(cfg.Categories.Enabled), st, log, sampler.Options{
			AsyncGPU: cfg.AsyncGPU,
			Clock:    opts.Clock,
			Metrics:  diag.New(opts.Registry),
		}),
		encoder:  snapshot.NewEncoder(cfg.Indent),
		registry: opts.Registry,
		clock:    opts.Clock,
	}
}

// Close stops the background loop, waits for GPU refreshes and closes the
// source. Every later call returns ErrClosed.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true

	if err := m.sampler.Stop(); err != nil && !errors.Is(err, sampler.ErrNotRunning) {
		return err
	}
	m.sampler.Wait()
	return m.src.Close()
}

// StartBackgroundRefresh starts polling every intervalMs milliseconds. The
// interval is not validated.
func (m *Monitor) StartBackgroundRefresh(intervalMs int) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return m.sampler.Start(time.Duration(intervalMs) * time.Millisecond)
}

// StopBackgroundRefresh stops the loop and waits for it to exit.
func (m *Monitor) StopBackgroundRefresh() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return m.sampler.Stop()
}

// Running reports whether the background loop is alive.
func (m *Monitor) Running() bool {
	return m.sampler.Running()
}

// LoopErr returns the failure that stopped the background loop, if any.
func (m *Monitor) LoopErr() error {
	return m.sampler.LoopErr()
}

func (m *Monitor) PollOnce(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return m.sampler.PollOnce(ctx)
}

// PollWithBaseline polls, waits for interval and polls again. Rates and
// loads are computed from the difference between two backend samples, so a
// single poll on a fresh source reports none of them.
func (m *Monitor) PollWithBaseline(ctx context.Context, interval time.Duration) error {
	if err := m.PollOnce(ctx); err != nil {
		return err
	}
	timer := m.clock.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
	}
	return m.PollOnce(ctx)
}

// RefreshGPU refreshes GPU devices now and reports whether it ran.
func (m *Monitor) RefreshGPU(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	return m.sampler.RefreshGPU(ctx)
}

// Dump writes every available sensor of every device to w.
func (m *Monitor) Dump(ctx context.Context, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return m.sampler.Dump(ctx, w)
}

// Store exposes the live aggregates. Readers receive copies.
func (m *Monitor) Store() *store.Store { return m.store }

// Registry holds the diagnostic counters.
func (m *Monitor) Registry() *prometheus.Registry { return m.registry }
