package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"lms_backend/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// 路由键
const (
	QuizAttemptGraded    = "quiz.attempt.graded"
	SyllabusTopicUpdated = "syllabus.topic.updated"
	UserApproved         = "user.approved"
	RankingsRecomputed   = "ranking.recomputed"
)

type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close() error
}

// AMQPPublisher 发布到 topic exchange，路由键即事件类型。
// URI 为空时不连接，Publish 直接返回 nil。
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	enabled  bool
	mu       sync.Mutex
}

func NewAMQPPublisher(uri, exchange string) (*AMQPPublisher, error) {
	if uri == "" {
		logger.Log.Warn("RabbitMQ URI is empty, event publishing is disabled")
		return &AMQPPublisher{exchange: exchange}, nil
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Log.Info("Event publisher initialized", zap.String("exchange", exchange))
	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
	}, nil
}

func (p *AMQPPublisher) Enabled() bool {
	return p.enabled
}

func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if !p.enabled {
		logger.Log.Debug("Event publishing disabled, skipping event", zap.String("type", eventType))
		return nil
	}

	body, err := json.Marshal(Event{Type: eventType, OccurredAt: time.Now(), Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// amqp channel 不是并发安全的
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		eventType,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			Headers:      amqp.Table{"event_type": eventType},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			logger.Log.Warn("Error closing RabbitMQ channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}

// RecordingPublisher 事件保存在内存中，用于测试和未配置消息队列的场景
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (r *RecordingPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Type: eventType, OccurredAt: time.Now(), Payload: payload})
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

func (r *RecordingPublisher) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType 按 routing key 过滤已记录的事件
func (r *RecordingPublisher) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// PublishAsync 异步发布，不阻塞请求，失败只记日志
func PublishAsync(p Publisher, eventType string, payload interface{}) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, eventType, payload); err != nil {
			logger.Log.Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
		}
	}()
}
