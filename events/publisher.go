package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeMatchResult = "match.result"
	TypeStageClosed = "stage.closed"
)

// Event is the JSON envelope written to the results topic.
type Event struct {
	Type      string      `json:"type"`
	StageSlug string      `json:"stage_slug,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	TsUnixMs  int64       `json:"ts_unix_ms"`
}

type MatchResultPayload struct {
	MatchID   int  `json:"match_id"`
	GoalsHome *int `json:"goals_home"`
	GoalsAway *int `json:"goals_away"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, e Event) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher принимает список брокеров через запятую.
func NewKafkaPublisher(brokers string, topic string) *KafkaPublisher {
	addrs := make([]string, 0)
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(addrs...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, e Event) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", e.Type, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher используется, когда KAFKA_BROKERS не задан.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
