package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cookedzera/farcaster-spin/spin"
)

const defaultWorkerNum = 4

// SpinResultEvent is the payload published for every terminal spin attempt.
type SpinResultEvent struct {
	AttemptID string             `json:"attempt_id"`
	Owner     string             `json:"owner"`
	State     string             `json:"state"`
	Failure   string             `json:"failure,omitempty"`
	TxHash    string             `json:"tx_hash,omitempty"`
	Rewards   []spin.RewardGrant `json:"rewards,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Producer publishes spin results to Kafka through a small worker pool so a
// slow broker never stalls the spin flow.
type Producer struct {
	writer    *kafka.Writer
	topic     string
	logger    zerolog.Logger
	jobs      chan kafka.Message
	workerNum int
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// ProducerConfig holds configuration for the Kafka producer
type ProducerConfig struct {
	Brokers   []string
	Topic     string
	Logger    zerolog.Logger
	WorkerNum int
}

// NewProducer creates a producer. Returns nil when no brokers are
// configured; callers treat a nil producer as publication disabled.
func NewProducer(cfg ProducerConfig) *Producer {
	if len(cfg.Brokers) == 0 {
		return nil
	}

	workerNum := cfg.WorkerNum
	if workerNum <= 0 {
		workerNum = defaultWorkerNum
	}

	p := &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
		},
		topic:     cfg.Topic,
		logger:    cfg.Logger.With().Str("component", "kafka_producer").Logger(),
		jobs:      make(chan kafka.Message, 256),
		workerNum: workerNum,
	}

	for i := 0; i < workerNum; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Producer) worker() {
	defer p.wg.Done()
	for msg := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.logger.Error().Err(err).Str("key", string(msg.Key)).Msg("Failed to write message")
		}
		cancel()
	}
}

// PublishSpinResult implements spin.EventPublisher. The message is queued;
// a full queue drops the event rather than blocking the caller.
func (p *Producer) PublishSpinResult(ctx context.Context, attempt *spin.Attempt) error {
	event := SpinResultEvent{
		AttemptID: attempt.ID.String(),
		Owner:     attempt.Owner.Hex(),
		State:     attempt.State.String(),
		Rewards:   attempt.Rewards,
		Timestamp: attempt.FinishedAt,
	}
	// Attempts that failed before broadcast carry no transaction.
	if attempt.TxHash != (common.Hash{}) {
		event.TxHash = attempt.TxHash.Hex()
	}
	if attempt.Failure != spin.FailureNone {
		event.Failure = attempt.Failure.String()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal spin result event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AttemptID),
		Value: payload,
	}

	select {
	case p.jobs <- msg:
		return nil
	default:
		return fmt.Errorf("producer queue full, dropping spin result %s", event.AttemptID)
	}
}

// Close drains the queue and shuts the writer down.
func (p *Producer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		err = p.writer.Close()
	})
	return err
}
