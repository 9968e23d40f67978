package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/sketch-gateway/models"
	"github.com/upb/sketch-gateway/repositories"
	"go.uber.org/zap"
)

// Recorder accepts dispatch logs without blocking the request path
type Recorder interface {
	Record(log *models.DispatchLog)
}

// NopRecorder drops every log. Used when no database is configured.
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(*models.DispatchLog) {}

// DispatchEvent is a queued dispatch log
type DispatchEvent struct {
	Log *models.DispatchLog
}

// AuditService persists dispatch logs asynchronously through a bounded worker pool
type AuditService struct {
	dispatchRepo repositories.DispatchRepository
	logger       *zap.Logger
	eventChan    chan *DispatchEvent
	workerCount  int
	bufferSize   int
	wg           sync.WaitGroup
	started      bool
	stopped      bool
	dropped      int64
	mu           sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(dispatchRepo repositories.DispatchRepository, logger *zap.Logger, config Config) *AuditService {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}

	return &AuditService{
		dispatchRepo: dispatchRepo,
		logger:       logger,
		eventChan:    make(chan *DispatchEvent, config.BufferSize),
		workerCount:  config.WorkerCount,
		bufferSize:   config.BufferSize,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop closes the queue and waits for pending events to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking. A full buffer drops the event.
func (s *AuditService) LogEvent(event *DispatchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.dropped++
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("operation", event.Log.Operation),
			zap.String("request_id", event.Log.RequestID))
		return fmt.Errorf("audit event buffer full")
	}
}

// Record implements Recorder
func (s *AuditService) Record(log *models.DispatchLog) {
	if err := s.LogEvent(&DispatchEvent{Log: log}); err != nil {
		s.logger.Debug("dispatch log not queued", zap.Error(err))
	}
}

// CountByPath returns how often each path served an operation in the last sinceHours
func (s *AuditService) CountByPath(ctx context.Context, operation string, sinceHours int) (map[string]int, error) {
	return s.dispatchRepo.CountByPath(ctx, operation, sinceHours)
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("operation", event.Log.Operation),
				zap.String("request_id", event.Log.RequestID))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) processEvent(event *DispatchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.dispatchRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert dispatch log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
		Dropped:       s.dropped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int   `json:"bufferSize"`
	PendingEvents int   `json:"pendingEvents"`
	WorkerCount   int   `json:"workerCount"`
	Started       bool  `json:"started"`
	Dropped       int64 `json:"dropped"`
}
