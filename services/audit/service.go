package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/coe-portal/models"
	"go.uber.org/zap"
)

// Recorder accepts audit entries. Implementations must not block the caller.
type Recorder interface {
	Record(log *models.AuditLog)
}

// Sink persists processed audit entries
type Sink interface {
	Write(ctx context.Context, log *models.AuditLog) error
}

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService handles asynchronous audit logging
type AuditService struct {
	sink        Sink
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1024,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(sink Sink, logger *zap.Logger, config Config) *AuditService {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		sink:        sink,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
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

// Stop gracefully stops the audit service
// Waits for all pending events to be processed
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.stopped = true
	// Close under the lock so LogEvent never sends on a closed channel
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent logs an event asynchronously (non-blocking)
// Returns immediately, event is processed in background
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not started")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)),
			zap.String("session_id", event.Log.SessionID))
		return fmt.Errorf("audit event buffer full")
	}
}

// Record implements Recorder. Failures are logged and dropped.
func (s *AuditService) Record(log *models.AuditLog) {
	if err := s.LogEvent(&AuditEvent{Log: log}); err != nil {
		s.logger.Debug("audit event not recorded",
			zap.String("action", string(log.Action)),
			zap.Error(err))
	}
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)),
				zap.String("session_id", event.Log.SessionID))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent processes a single audit event
func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.sink.Write(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
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
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// ZapSink writes audit entries as structured log lines
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink writing to a named child of logger
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("audit")}
}

// Write implements Sink
func (z *ZapSink) Write(_ context.Context, log *models.AuditLog) error {
	fields := []zap.Field{
		zap.String("audit_id", log.ID.String()),
		zap.String("action", string(log.Action)),
		zap.String("session_id", log.SessionID),
		zap.Time("timestamp", log.Timestamp),
	}
	if log.Email != "" {
		fields = append(fields, zap.String("email", log.Email))
	}
	if log.Role != "" {
		fields = append(fields, zap.String("role", log.Role.String()))
	}
	if log.Path != "" {
		fields = append(fields, zap.String("path", log.Path), zap.String("reason", log.Reason))
	}
	if log.RequestID != "" {
		fields = append(fields, zap.String("request_id", log.RequestID))
	}
	if log.IPAddress != "" {
		fields = append(fields, zap.String("ip_address", log.IPAddress))
	}
	if log.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", log.UserAgent))
	}

	z.logger.Info("audit event", fields...)
	return nil
}

// NopRecorder discards every entry
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(*models.AuditLog) {}

// Convenience constructors for the portal's auditable actions

// LoginSucceeded builds the entry for a successful login
func LoginSucceeded(sessionID string, user *models.User) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionLoginSucceeded, sessionID).WithUser(user)
}

// LoginFailed builds the entry for a login with an unknown email
func LoginFailed(sessionID, email string) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionLoginFailed, sessionID).WithEmail(email)
}

// Logout builds the entry for a logout; user may be nil
func Logout(sessionID string, user *models.User) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionLogout, sessionID).WithUser(user)
}

// AccessDenied builds the entry for a gate refusal
func AccessDenied(sessionID string, user *models.User, path, reason string) *models.AuditLog {
	return models.NewAuditLog(models.AuditActionAccessDenied, sessionID).
		WithUser(user).
		WithDenial(path, reason)
}
