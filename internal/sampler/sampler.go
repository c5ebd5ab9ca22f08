// Package sampler drives poll passes over a sensor source: it refreshes each
// device, classifies its readings and writes the result into the store,
// either on demand or from a background loop.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Dicklesworthstone/hwsnap/internal/classify"
	"github.com/Dicklesworthstone/hwsnap/internal/diag"
	"github.com/Dicklesworthstone/hwsnap/internal/model"
	"github.com/Dicklesworthstone/hwsnap/internal/source"
	"github.com/Dicklesworthstone/hwsnap/internal/store"
)

var (
	ErrAlreadyRunning = errors.New("background refresh already running")
	ErrNotRunning     = errors.New("background refresh not running")
)

// PollError reports the device whose refresh or read failed.
type PollError struct {
	Device string
	Err    error
}

func (e *PollError) Error() string { return fmt.Sprintf("poll %q: %v", e.Device, e.Err) }
func (e *PollError) Unwrap() error { return e.Err }

// Options tune a Sampler. Zero values are usable.
type Options struct {
	// AsyncGPU hands GPU devices to a separate goroutine instead of
	// refreshing them inside the poll.
	AsyncGPU bool
	Clock    clockwork.Clock
	Metrics  *diag.Metrics
}

// Sampler is the poll orchestrator.
type Sampler struct {
	src      source.Source
	table    *classify.Table
	store    *store.Store
	log      *zap.Logger
	clock    clockwork.Clock
	metrics  *diag.Metrics
	asyncGPU bool
	dropLog  *rate.Limiter

	pollMu sync.Mutex

	// gpuSem admits one GPU refresh at a time; later attempts are skipped.
	gpuSem *semaphore.Weighted
	gpuWG  sync.WaitGroup

	loopMu  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	loopErr error
}

// New returns a sampler writing into st.
func New(src source.Source, table *classify.Table, st *store.Store, log *zap.Logger, opts Options) *Sampler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = diag.New(nil)
	}
	return &Sampler{
		src:      src,
		table:    table,
		store:    st,
		log:      log.Named("sampler"),
		clock:    opts.Clock,
		metrics:  opts.Metrics,
		asyncGPU: opts.AsyncGPU,
		dropLog:  rate.NewLimiter(rate.Every(time.Minute), 10),
		gpuSem:   semaphore.NewWeighted(1),
	}
}

// PollOnce runs one full pass over every enumerated device. The first
// backend failure aborts the pass and is returned.
func (s *Sampler) PollOnce(ctx context.Context) error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	start := s.clock.Now()
	err := s.poll(ctx)
	s.metrics.PollDuration.Observe(s.clock.Now().Sub(start).Seconds())
	if err != nil {
		s.metrics.PollFailures.Inc()
		return err
	}
	s.metrics.Polls.Inc()
	return nil
}

func (s *Sampler) poll(ctx context.Context) error {
	devices, err := s.src.Devices(ctx)
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}

	var gpus []source.Device
	for _, d := range devices {
		family := s.table.Family(d.Category())
		if family == classify.FamilyGPU {
			gpus = append(gpus, d)
			continue
		}
		if err := s.pollDevice(ctx, d, family); err != nil {
			return err
		}
	}

	if len(gpus) == 0 {
		return nil
	}
	if s.asyncGPU {
		s.startGPURefresh(gpus)
		return nil
	}
	_, err = s.refreshGPUs(ctx, gpus)
	return err
}

// RefreshGPU refreshes and classifies every GPU device now. It returns
// false without touching the source when another GPU refresh is in flight.
func (s *Sampler) RefreshGPU(ctx context.Context) (bool, error) {
	devices, err := s.src.Devices(ctx)
	if err != nil {
		return false, fmt.Errorf("enumerate devices: %w", err)
	}
	var gpus []source.Device
	for _, d := range devices {
		if s.table.Family(d.Category()) == classify.FamilyGPU {
			gpus = append(gpus, d)
		}
	}
	return s.refreshGPUs(ctx, gpus)
}

func (s *Sampler) refreshGPUs(ctx context.Context, gpus []source.Device) (bool, error) {
	if !s.gpuSem.TryAcquire(1) {
		s.metrics.GPUSkips.Inc()
		s.log.Debug("gpu refresh already in flight, skipping")
		return false, nil
	}
	defer s.gpuSem.Release(1)
	return true, s.classifyGPUs(ctx, gpus)
}

// startGPURefresh launches the asynchronous GPU task unless one is running.
func (s *Sampler) startGPURefresh(gpus []source.Device) {
	if !s.gpuSem.TryAcquire(1) {
		s.metrics.GPUSkips.Inc()
		s.log.Debug("gpu refresh already in flight, skipping")
		return
	}
	s.gpuWG.Add(1)
	go func() {
		defer s.gpuWG.Done()
		defer s.gpuSem.Release(1)
		if err := s.safeClassifyGPUs(gpus); err != nil {
			s.metrics.PollFailures.Inc()
			s.log.Error("async gpu refresh failed", zap.Error(err))
		}
	}()
}

// safeClassifyGPUs keeps a panicking GPU backend from taking the process
// down with the goroutine.
func (s *Sampler) safeClassifyGPUs(gpus []source.Device) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gpu refresh panicked: %v", r)
		}
	}()
	return s.classifyGPUs(context.Background(), gpus)
}

func (s *Sampler) classifyGPUs(ctx context.Context, gpus []source.Device) error {
	for _, d := range gpus {
		if err := s.pollDevice(ctx, d, classify.FamilyGPU); err != nil {
			return err
		}
	}
	return nil
}

// pollDevice refreshes d and its subtree, then classifies d's own sensors
// into the aggregate of family.
func (s *Sampler) pollDevice(ctx context.Context, d source.Device, family classify.Family) error {
	if err := source.RefreshTree(ctx, s.src, d); err != nil {
		return &PollError{Device: d.Name(), Err: err}
	}
	readings, err := s.read(d)
	if err != nil {
		return &PollError{Device: d.Name(), Err: err}
	}
	category := d.Category().String()

	switch family {
	case classify.FamilyCPU:
		s.store.UpdateCPU(func(agg *model.CPU) {
			agg.Name = d.Name()
			for _, r := range readings {
				if !classify.CPU(agg, r) {
					s.drop(category, diag.ReasonUnknownLabel, r)
				}
			}
			classify.DeriveCounts(agg)
		})
	case classify.FamilyGPU:
		sensors := make(map[string]model.GPUSensor, len(readings))
		for _, r := range readings {
			classify.GPU(sensors, r)
		}
		s.store.SetGPU(d.Name(), sensors)
	case classify.FamilyMemory:
		s.store.UpdateMemory(func(agg *model.Memory) {
			agg.Name = d.Name()
			for _, r := range readings {
				if !classify.Memory(agg, r) {
					s.drop(category, diag.ReasonUnknownLabel, r)
				}
			}
		})
	case classify.FamilyStorage:
		var rec model.StorageDevice
		for _, r := range readings {
			if !classify.Storage(&rec, r) {
				s.drop(category, diag.ReasonUnknownLabel, r)
			}
		}
		s.store.SetStorage(d.Name(), rec)
	case classify.FamilyNetwork:
		var rec model.NetworkDevice
		for _, r := range readings {
			if !classify.Network(&rec, r) {
				s.drop(category, diag.ReasonUnknownLabel, r)
			}
		}
		s.store.SetNetwork(d.Name(), rec)
	default:
		for _, r := range readings {
			s.drop(category, diag.ReasonIgnoredCategory, r)
		}
	}
	return nil
}

// read captures every available reading of d in enumeration order.
func (s *Sampler) read(d source.Device) ([]model.Reading, error) {
	sensors := d.Sensors()
	readings := make([]model.Reading, 0, len(sensors))
	for _, sensor := range sensors {
		v, ok, err := sensor.Value()
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", sensor.Name(), err)
		}
		if !ok {
			s.metrics.Dropped.WithLabelValues(d.Category().String(), diag.ReasonUnavailable).Inc()
			continue
		}
		readings = append(readings, model.Reading{Label: sensor.Name(), Kind: sensor.Kind(), Value: v})
	}
	return readings, nil
}

func (s *Sampler) drop(category, reason string, r model.Reading) {
	s.metrics.Dropped.WithLabelValues(category, reason).Inc()
	if reason == diag.ReasonUnknownLabel && s.dropLog.Allow() {
		s.log.Debug("unclassified sensor",
			zap.String("category", category),
			zap.String("label", r.Label),
			zap.Stringer("kind", r.Kind))
	}
}

// Wait blocks until asynchronous GPU refreshes have finished.
func (s *Sampler) Wait() { s.gpuWG.Wait() }
