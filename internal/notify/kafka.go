package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"portalgate/pkg/platform/circuit"
)

const flushBatch = 100

// producer is the part of *kgo.Client the publisher needs.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher emits notifications as session events keyed by subject, so
// every event for a subject lands on the same partition in order. While the
// broker is failing, events are held in a bounded buffer and replayed once
// a publish succeeds again.
type KafkaPublisher struct {
	client  producer
	topic   string
	breaker *circuit.Breaker
	pending *backlog
	logger  *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) { p.logger = logger }
}

// WithBufferCapacity bounds how many events are held while the broker is down.
func WithBufferCapacity(n int) KafkaOption {
	return func(p *KafkaPublisher) { p.pending = newBacklog(n) }
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(p *KafkaPublisher) { p.breaker = b }
}

func withProducer(pr producer) KafkaOption {
	return func(p *KafkaPublisher) { p.client = pr }
}

// NewKafkaPublisher connects lazily to brokers; the first publish or
// EnsureTopic call surfaces connectivity errors.
func NewKafkaPublisher(brokers []string, topic string, opts ...KafkaOption) (*KafkaPublisher, error) {
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	p := &KafkaPublisher{
		topic:   topic,
		breaker: circuit.New("kafka-notifications", circuit.WithFailureThreshold(3)),
		pending: newBacklog(defaultBacklog),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		if len(brokers) == 0 {
			return nil, errors.New("kafka brokers are required")
		}
		cl, err := kgo.NewClient(
			kgo.SeedBrokers(brokers...),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
			kgo.RecordRetries(3),
		)
		if err != nil {
			return nil, fmt.Errorf("create kafka client: %w", err)
		}
		p.client = cl
	}
	return p, nil
}

func (p *KafkaPublisher) Name() string { return "kafka" }

// EnsureTopic creates the topic if the cluster does not have it yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	cl, ok := p.client.(*kgo.Client)
	if !ok {
		return nil
	}
	resp, err := kadm.NewClient(cl).CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Notify publishes n. On failure the event is buffered once the breaker has
// opened, and the error is still returned so callers can count it. While the
// circuit is open the broker is not contacted: the event is buffered and
// Notify returns at once.
func (p *KafkaPublisher) Notify(ctx context.Context, n Notification) error {
	rec, err := p.record(n)
	if err != nil {
		return err
	}
	if !p.breaker.Allow() {
		p.pending.push(n)
		return nil
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		useFallback, change := p.breaker.RecordFailure()
		if change.Opened {
			p.logger.WarnContext(ctx, "kafka circuit opened, buffering notifications", "topic", p.topic)
		}
		if useFallback {
			p.pending.push(n)
		}
		return fmt.Errorf("publish notification: %w", err)
	}

	_, change := p.breaker.RecordSuccess()
	if change.Closed {
		p.logger.InfoContext(ctx, "kafka circuit closed", "topic", p.topic, "buffered", p.pending.len())
	}
	if !p.breaker.IsOpen() {
		p.flush(ctx)
	}
	return nil
}

// Pending returns how many events wait for the broker.
func (p *KafkaPublisher) Pending() int { return p.pending.len() }

// Dropped returns how many events were discarded because the backlog was full.
func (p *KafkaPublisher) Dropped() int64 { return p.pending.droppedCount() }

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

func (p *KafkaPublisher) flush(ctx context.Context) {
	for {
		batch := p.pending.take(flushBatch)
		if len(batch) == 0 {
			return
		}
		records := make([]*kgo.Record, 0, len(batch))
		for _, n := range batch {
			rec, err := p.record(n)
			if err != nil {
				continue
			}
			records = append(records, rec)
		}
		if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
			p.pending.restore(batch)
			p.logger.WarnContext(ctx, "replaying buffered notifications failed", "error", err)
			return
		}
	}
}

func (p *KafkaPublisher) record(n Notification) (*kgo.Record, error) {
	value, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(n.SubjectID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "namespace", Value: []byte(n.Namespace)},
			{Key: "reason", Value: []byte(n.Reason)},
		},
	}, nil
}
