package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-lease-management/shared/config"
)

// ErrQueueFull is returned when the publish queue cannot take another event
var ErrQueueFull = errors.New("audit event queue full, event dropped")

// ErrPublisherClosed is returned by Publish after Close
var ErrPublisherClosed = errors.New("audit event publisher closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends audit events to Kafka from a pool of workers so
// committing callers never wait on the broker
type KafkaPublisher struct {
	writer       messageWriter
	queue        chan Event
	workerCount  int
	writeTimeout time.Duration
	breaker      *circuitBreaker
	log          *logrus.Entry

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic
func NewKafkaPublisher(cfg *config.KafkaConfig, log *logrus.Entry) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // Events for the same row land on the same partition
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(writer, cfg.Workers, cfg.QueueSize, log)
}

func newKafkaPublisher(writer messageWriter, workers, queueSize int, log *logrus.Entry) *KafkaPublisher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	kp := &KafkaPublisher{
		writer:       writer,
		queue:        make(chan Event, queueSize),
		workerCount:  workers,
		writeTimeout: 5 * time.Second,
		breaker:      newCircuitBreaker(5, 30*time.Second),
		log:          log.WithField("component", "kafka-publisher"),
	}

	for i := 0; i < kp.workerCount; i++ {
		kp.wg.Add(1)
		go kp.worker(i)
	}
	kp.log.Infof("Started %d audit event workers", kp.workerCount)

	return kp
}

// Publish queues an event without blocking
func (kp *KafkaPublisher) Publish(event Event) error {
	kp.mu.RLock()
	defer kp.mu.RUnlock()
	if kp.closed {
		return ErrPublisherClosed
	}

	select {
	case kp.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (kp *KafkaPublisher) worker(id int) {
	defer kp.wg.Done()

	for event := range kp.queue {
		if err := kp.send(event); err != nil {
			kp.log.WithError(err).WithFields(logrus.Fields{
				"worker":   id,
				"audit_id": event.AuditID,
			}).Warn("Failed to publish audit event")
		}
	}
}

func (kp *KafkaPublisher) send(event Event) error {
	msg, err := encodeMessage(event)
	if err != nil {
		return err
	}

	return kp.breaker.call(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), kp.writeTimeout)
		defer cancel()

		if err := kp.writer.WriteMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to write audit event to Kafka: %w", err)
		}
		return nil
	})
}

func encodeMessage(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal audit event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.Table + ":" + strconv.FormatUint(uint64(event.RowID), 10)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "action", Value: []byte(event.Action)},
			{Key: "table_name", Value: []byte(event.Table)},
			{Key: "uow_id", Value: []byte(event.UnitOfWork.String())},
		},
	}, nil
}

// Close stops accepting events, drains the queue and closes the writer
func (kp *KafkaPublisher) Close() error {
	kp.mu.Lock()
	if kp.closed {
		kp.mu.Unlock()
		return nil
	}
	kp.closed = true
	close(kp.queue)
	kp.mu.Unlock()

	kp.wg.Wait()

	if err := kp.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	kp.log.Info("Audit event publisher closed")
	return nil
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer reads audit events from Kafka
type KafkaConsumer struct {
	reader messageReader
	log    *logrus.Entry
}

// NewKafkaConsumer creates a consumer in the configured group
func NewKafkaConsumer(cfg *config.KafkaConfig, log *logrus.Entry) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
	return &KafkaConsumer{
		reader: reader,
		log:    log.WithField("component", "kafka-consumer"),
	}
}

// Consume hands each decoded event to handle until ctx is cancelled.
// Undecodable messages and handler errors are logged and skipped.
func (kc *KafkaConsumer) Consume(ctx context.Context, handle func(Event) error) error {
	for {
		msg, err := kc.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read audit event: %w", err)
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			kc.log.WithError(err).WithField("offset", msg.Offset).Warn("Skipping undecodable audit event")
			continue
		}

		if err := handle(event); err != nil {
			kc.log.WithError(err).WithField("audit_id", event.AuditID).Warn("Audit event handler failed")
		}
	}
}

// Close closes the Kafka reader
func (kc *KafkaConsumer) Close() error {
	if err := kc.reader.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka reader: %w", err)
	}
	return nil
}
