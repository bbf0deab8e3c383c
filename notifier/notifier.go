// Package notifier publishes domain events (post created, like toggled)
// to a kafka topic for downstream consumers such as a notification
// service. The web app only produces; when no broker is configured the
// Noop implementation is used and nothing leaves the process.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xianrendesu-max/threts/model"
	Logger "github.com/xianrendesu-max/threts/utils/log"
)

const (
	EventPostCreated = "post_created"
	EventLikeToggled = "like_toggled"
)

// Event is the wire payload for every message on the topic.
type Event struct {
	Type      string    `json:"type"`
	UserId    string    `json:"user_id"`
	PostId    int64     `json:"post_id"`
	ParentId  *int64    `json:"parent_id,omitempty"`
	Liked     *bool     `json:"liked,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Notifier interface {
	PostCreated(ctx context.Context, post *model.Post)
	LikeToggled(ctx context.Context, userID string, postID int64, liked bool)
}

// messageWriter is the slice of kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes events to kafka. Publish failures are logged and
// dropped, a broker outage must not fail the user's request.
type Producer struct {
	writer messageWriter
}

func NewProducer(brokerURL, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{brokerURL},
		Topic:   topic,
	})
	return &Producer{writer: writer}
}

func (p *Producer) publish(ctx context.Context, key string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		Logger.Log.Errorf("encode %s event: %v", event.Type, err)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		Logger.Log.Errorf("publish %s event: %v", event.Type, err)
	}
}

func (p *Producer) PostCreated(ctx context.Context, post *model.Post) {
	p.publish(ctx, fmt.Sprintf("post_%d", post.Id), Event{
		Type:      EventPostCreated,
		UserId:    post.UserId,
		PostId:    post.Id,
		ParentId:  post.ParentId,
		CreatedAt: time.Now(),
	})
}

func (p *Producer) LikeToggled(ctx context.Context, userID string, postID int64, liked bool) {
	p.publish(ctx, fmt.Sprintf("post_%d", postID), Event{
		Type:      EventLikeToggled,
		UserId:    userID,
		PostId:    postID,
		Liked:     &liked,
		CreatedAt: time.Now(),
	})
}

func (p *Producer) Close() {
	p.writer.Close()
}

// Noop discards every event.
type Noop struct{}

func (Noop) PostCreated(context.Context, *model.Post) {}

func (Noop) LikeToggled(context.Context, string, int64, bool) {}
