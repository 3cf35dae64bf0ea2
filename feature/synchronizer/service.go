package synchronizer

import (
	"context"
	"fmt"
	"sync"

	"docsync/core/metrics"

	"go.uber.org/zap"
)

// Runner is the part of a Synchronizer the service drives.
type Runner interface {
	Run(ctx context.Context) *RunReport
	Reset(ctx context.Context) error
}

var _ Runner = (*Synchronizer)(nil)

// Status is the service state.
type Status struct {
	Running bool       `json:"running"`
	Runs    int        `json:"runs"`
	LastRun *RunReport `json:"last_run,omitempty"`
}

// Service serializes runs and remembers the last report.
type Service struct {
	runner  Runner
	metrics *metrics.Metrics
	logger  *zap.Logger

	// base is the parent of background runs; Shutdown cancels it.
	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	closed  bool
	runs    int
	last    *RunReport
	wg      sync.WaitGroup
}

// NewService creates a Service.
func NewService(runner Runner, m *metrics.Metrics, logger *zap.Logger) *Service {
	base, cancel := context.WithCancel(context.Background())
	return &Service{runner: runner, metrics: m, logger: logger, base: base, cancel: cancel}
}

func (s *Service) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServiceClosed
	}
	if s.running {
		return ErrRunInProgress
	}
	s.running = true
	return nil
}

func (s *Service) release(report *RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if report != nil {
		s.runs++
		s.last = report
	}
}

// Run performs a run and waits for it.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	report := s.runner.Run(ctx)
	s.release(report)
	return report, nil
}

// Start performs a run in the background. The run is canceled by Shutdown.
func (s *Service) Start() error {
	if err := s.acquire(); err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		report := s.runner.Run(s.base)
		s.release(report)
	}()
	return nil
}

// Wait blocks until background runs have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown refuses new runs, cancels the background run and waits for it to
// return or for ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for background run: %w", ctx.Err())
	}
}

// Reset clears the cached credentials. It is refused during a run.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release(nil)
	return s.runner.Reset(ctx)
}

// Status returns the current state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Running: s.running, Runs: s.runs, LastRun: s.last}
}
