package rabbitmq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	published []sent
	err       error
	closed    bool
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, sent{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: "plantapp", routingKey: "image.labeled"}

	require.NoError(t, p.Publish(map[string]string{"request_id": "abc"}))
	require.NoError(t, p.Publish(map[string]int{"n": 1}))

	require.Len(t, ch.published, 2)
	for _, s := range ch.published {
		assert.Equal(t, "plantapp", s.exchange)
		assert.Equal(t, "image.labeled", s.key)
	}
	assert.JSONEq(t, `{"request_id":"abc"}`, string(ch.published[0].msg.Body))
	assert.JSONEq(t, `{"n":1}`, string(ch.published[1].msg.Body))
}

func TestPublishError(t *testing.T) {
	p := &Publisher{channel: &fakeChannel{err: errors.New("channel closed")}, exchange: "x", routingKey: "k"}

	err := p.Publish("hello")
	assert.ErrorContains(t, err, "channel closed")
}

func TestNewPublishing(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	msg, err := newPublishing(struct {
		Labels []string `json:"labels"`
	}{[]string{"Plant"}}, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, now, msg.Timestamp)
	var decoded map[string][]string
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, []string{"Plant"}, decoded["labels"])

	_, err = newPublishing(make(chan int), now)
	assert.Error(t, err)
}

type event struct {
	ID string `json:"id"`
}

func (e event) MessageID() string { return e.ID }

func TestNewPublishingMessageID(t *testing.T) {
	msg, err := newPublishing(event{ID: "req-1"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "req-1", msg.MessageId)
	assert.Equal(t, "plantapp", msg.AppId)

	msg, err = newPublishing(map[string]string{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, msg.MessageId)
}

func TestCloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch}

	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
