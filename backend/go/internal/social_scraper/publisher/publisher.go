package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"Orbit/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ScrapeCompletedEvent 在一次用户抓取运行结束后发布。
type ScrapeCompletedEvent struct {
	UserID     uint     `json:"userId"`
	Successful []string `json:"successful"`
	Failed     []string `json:"failed"`
	EntryCount int      `json:"entryCount"`
	ScrapedAt  string   `json:"scrapedAt"`
}

// MessageWriter 是 kafka.Writer 中本包用到的部分。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// EventPublisher 将抓取事件写入 Kafka，以用户 ID 作为消息键，保证同一用户的事件有序。
type EventPublisher struct {
	writer MessageWriter
	topic  string
	logger *logger.Logger
}

// NewEventPublisher 创建 EventPublisher。writer 通常是 database/kafka 中共享的 Writer。
func NewEventPublisher(writer MessageWriter, topic string, log *logger.Logger) *EventPublisher {
	return &EventPublisher{writer: writer, topic: topic, logger: log}
}

// Publish 发送一条抓取完成事件。
func (p *EventPublisher) Publish(ctx context.Context, event ScrapeCompletedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal scrape event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: value,
	})
	if err != nil {
		p.logger.WithErr(err, "kafka_error").WithPayload(map[string]interface{}{"topic": p.topic}).
			Error("Failed to write scrape event to Kafka")
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// NoopPublisher 在未配置 Kafka 时使用，丢弃所有事件。
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ScrapeCompletedEvent) error { return nil }
