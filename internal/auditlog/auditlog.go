// Package auditlog persists the operation log for mutating admin actions.
// Writes are best-effort: entries go through a buffered queue consumed by a
// background goroutine, and neither a full queue nor a write error ever
// reaches the request path. Failures are only visible as metrics.
package auditlog

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shutsugan-server/internal/model"
	"shutsugan-server/prometheus"
)

// Entry is one audit record before persistence.
type Entry struct {
	OperatorID   uint
	OperatorName string
	Action       string
	TargetType   string
	TargetID     string
	IP           string
	Result       string
	Details      map[string]interface{}
}

// Writer persists a single entry.
type Writer interface {
	Write(Entry) error
}

// GormWriter writes entries to the operation_logs table.
type GormWriter struct {
	DB *gorm.DB
}

func (w GormWriter) Write(e Entry) error {
	row := model.OperationLog{
		OperatorID:   e.OperatorID,
		OperatorName: e.OperatorName,
		Action:       e.Action,
		TargetType:   e.TargetType,
		TargetID:     e.TargetID,
		IP:           e.IP,
		Result:       e.Result,
	}
	if row.Result == "" {
		row.Result = "success"
	}
	if e.Details != nil {
		if raw, err := json.Marshal(e.Details); err == nil {
			row.Details = raw
		}
	}
	return w.DB.Create(&row).Error
}

// Sink is the asynchronous consumer in front of a Writer.
type Sink struct {
	ch     chan Entry
	writer Writer
	wg     sync.WaitGroup
	once   sync.Once
}

// NewSink starts the background consumer. queueSize bounds the number of
// entries that may be pending before new ones are dropped.
func NewSink(writer Writer, queueSize int) *Sink {
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &Sink{
		ch:     make(chan Entry, queueSize),
		writer: writer,
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Sink) run() {
	defer s.wg.Done()
	for e := range s.ch {
		if err := s.writer.Write(e); err != nil {
			prometheus.AuditWriteErrorCounter.Inc()
			zap.L().Warn("operation log write failed",
				zap.String("action", e.Action),
				zap.Error(err))
		}
	}
}

// Record enqueues an entry without blocking. When the queue is full the
// entry is dropped and counted.
func (s *Sink) Record(e Entry) {
	select {
	case s.ch <- e:
	default:
		prometheus.AuditDroppedCounter.Inc()
	}
}

// Close drains pending entries and stops the consumer.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.ch)
	})
	s.wg.Wait()
}

var defaultSink *Sink

// Init installs the process-wide sink used by Record.
func Init(writer Writer, queueSize int) {
	defaultSink = NewSink(writer, queueSize)
}

// Record enqueues an entry on the process-wide sink. A nil sink (tests,
// one-shot commands) makes this a no-op.
func Record(e Entry) {
	if defaultSink == nil {
		return
	}
	defaultSink.Record(e)
}

// Close flushes the process-wide sink.
func Close() {
	if defaultSink != nil {
		defaultSink.Close()
	}
}
