package sampler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Start launches the background refresh loop. Each iteration runs one
// poll and then sleeps for interval. The interval is not validated: zero or
// negative values make the loop poll back to back.
func (s *Sampler) Start(interval time.Duration) error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.runningLocked() {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.loopErr = nil
	s.metrics.LoopRunning.Set(1)
	go s.loop(ctx, cancel, interval, s.done)
	s.log.Info("background refresh started", zap.Duration("interval", interval))
	return nil
}

// Stop cancels the loop and waits for it to exit. An in-flight poll is
// allowed to finish.
func (s *Sampler) Stop() error {
	s.loopMu.Lock()
	if s.done == nil {
		s.loopMu.Unlock()
		return ErrNotRunning
	}
	cancel, done := s.cancel, s.done
	s.loopMu.Unlock()

	cancel()
	<-done
	return nil
}

// Running reports whether the loop is alive.
func (s *Sampler) Running() bool {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	return s.runningLocked()
}

func (s *Sampler) runningLocked() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// LoopErr returns the failure that stopped the loop, if any.
func (s *Sampler) LoopErr() error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	return s.loopErr
}

func (s *Sampler) loop(ctx context.Context, cancel context.CancelFunc, interval time.Duration, done chan struct{}) {
	defer close(done)
	defer s.metrics.LoopRunning.Set(0)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.safePoll(context.WithoutCancel(ctx)); err != nil {
			s.log.Error("background poll failed, stopping refresh loop", zap.Error(err))
			s.loopMu.Lock()
			s.loopErr = err
			s.loopMu.Unlock()
			cancel()
			return
		}
		timer := s.clock.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
	}
}

// safePoll turns a panicking backend into a poll error.
func (s *Sampler) safePoll(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll panicked: %v", r)
		}
	}()
	return s.PollOnce(ctx)
}
