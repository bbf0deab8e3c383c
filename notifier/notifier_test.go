package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xianrendesu-max/threts/model"
)

type capturingWriter struct {
	messages []kafka.Message
	fail     bool
}

func (w *capturingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.fail {
		return errors.New("broker down")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *capturingWriter) Close() error { return nil }

func TestPostCreatedEvent(t *testing.T) {
	w := &capturingWriter{}
	p := &Producer{writer: w}

	parent := int64(4)
	p.PostCreated(context.Background(), &model.Post{
		Id:       7,
		UserId:   "uid-1",
		ParentId: &parent,
	})

	require.Len(t, w.messages, 1)
	assert.Equal(t, "post_7", string(w.messages[0].Key))

	var event Event
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, EventPostCreated, event.Type)
	assert.Equal(t, "uid-1", event.UserId)
	assert.Equal(t, int64(7), event.PostId)
	require.NotNil(t, event.ParentId)
	assert.Equal(t, int64(4), *event.ParentId)
	assert.Nil(t, event.Liked)
}

func TestLikeToggledEvent(t *testing.T) {
	w := &capturingWriter{}
	p := &Producer{writer: w}

	p.LikeToggled(context.Background(), "uid-1", 7, true)
	p.LikeToggled(context.Background(), "uid-1", 7, false)

	require.Len(t, w.messages, 2)

	var event Event
	require.NoError(t, json.Unmarshal(w.messages[1].Value, &event))
	assert.Equal(t, EventLikeToggled, event.Type)
	require.NotNil(t, event.Liked)
	assert.False(t, *event.Liked)
	assert.Nil(t, event.ParentId)
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	p := &Producer{writer: &capturingWriter{fail: true}}

	// A broker outage must not propagate into the request path.
	p.PostCreated(context.Background(), &model.Post{Id: 1, UserId: "uid-1"})
	p.LikeToggled(context.Background(), "uid-1", 1, true)
}
