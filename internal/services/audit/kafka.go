package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// MessageWriter is the subset of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds the producer for the audit topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// KafkaSink publishes events from a bounded buffer on a background goroutine.
// When the buffer is full the event is dropped and logged.
type KafkaSink struct {
	writer MessageWriter
	log    *zap.Logger
	events chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewKafkaSink(writer MessageWriter, buffer int, log *zap.Logger) *KafkaSink {
	if buffer <= 0 {
		buffer = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &KafkaSink{
		writer: writer,
		log:    log,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *KafkaSink) Record(_ context.Context, ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.log.Warn("audit sink closed, event dropped", zap.String("entry_id", ev.EntryID))
		return
	}
	select {
	case s.events <- ev:
	default:
		s.log.Warn("audit buffer full, event dropped",
			zap.String("entry_id", ev.EntryID),
			zap.String("idempotency_key", ev.IdempotencyKey))
	}
}

func (s *KafkaSink) run() {
	defer close(s.done)
	for ev := range s.events {
		s.publish(ev)
	}
}

func (s *KafkaSink) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("audit event encode failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TenantID),
		Value: data,
		Time:  ev.OccurredAt,
	})
	if err != nil {
		s.log.Error("audit event publish failed",
			zap.String("entry_id", ev.EntryID),
			zap.Error(err))
	}
}

// Close stops accepting events, drains the buffer and closes the writer.
func (s *KafkaSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	<-s.done
	return s.writer.Close()
}
