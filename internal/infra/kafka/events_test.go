package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, asyncProducer sarama.AsyncProducer) *EventPublisher {
	t.Helper()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "gate",
		},
		done: make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "registration-gate",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func TestPublishRegistrationSubmitted(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	submittedAt := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	event := domain.RegistrationSubmittedEvent{
		EventID:     "event-123",
		PendingID:   "pending-1",
		Name:        "Ana",
		Email:       "a@x.com",
		Phone:       "555",
		SubmittedAt: submittedAt,
	}

	if err := publisher.PublishRegistrationSubmitted(context.Background(), event); err != nil {
		t.Fatalf("PublishRegistrationSubmitted returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "gate.registration.submitted" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_id"]; got != "event-123" {
			t.Fatalf("unexpected event_id: %v", got)
		}
		if got := envelope["event_type"]; got != "registration.submitted" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not an object: %T", envelope["payload"])
		}
		if got := payload["pending_id"]; got != "pending-1" {
			t.Fatalf("unexpected pending_id: %v", got)
		}
		if got := payload["email"]; got != "a@x.com" {
			t.Fatalf("unexpected email: %v", got)
		}

		metadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("metadata not an object: %T", envelope["metadata"])
		}
		if got := metadata["service"]; got != "registration-gate" {
			t.Fatalf("unexpected service metadata: %v", got)
		}
	default:
		t.Fatalf("expected a message on the producer input channel")
	}
}

func TestPublishRegistrationResolved(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	resolvedAt := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	event := domain.RegistrationResolvedEvent{
		EventID:    "event-456",
		PendingID:  "pending-1",
		UserID:     "user-1",
		Decision:   domain.DecisionApprove,
		ResolvedAt: resolvedAt,
	}

	if err := publisher.PublishRegistrationResolved(context.Background(), event); err != nil {
		t.Fatalf("PublishRegistrationResolved returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "gate.registration.resolved" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not an object: %T", envelope["payload"])
		}
		if got := payload["decision"]; got != "approve" {
			t.Fatalf("unexpected decision: %v", got)
		}
		if got := payload["user_id"]; got != "user-1" {
			t.Fatalf("unexpected user_id: %v", got)
		}
	default:
		t.Fatalf("expected a message on the producer input channel")
	}
}

func TestPublishRespectsContextCancellation(t *testing.T) {
	// Unbuffered input simulates a saturated producer.
	asyncProducer := newFakeAsyncProducer()
	asyncProducer.input = make(chan *sarama.ProducerMessage)
	publisher := newTestPublisher(t, asyncProducer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishRegistrationSubmitted(ctx, domain.RegistrationSubmittedEvent{PendingID: "pending-1"})
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
}
