package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfirm struct {
	ack bool
	err error
}

func (c fakeConfirm) WaitContext(ctx context.Context) (bool, error) {
	return c.ack, c.err
}

type sentMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent    []sentMessage
	errs    []error
	confirm fakeConfirm
}

func (c *fakeChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	c.sent = append(c.sent, sentMessage{exchange: exchange, key: key, msg: msg})
	return c.confirm, nil
}

func newTestRabbit(channels ...*fakeChannel) (*RabbitMQ, *int) {
	opened := 0
	r := &RabbitMQ{config: RabbitMQConfig{Exchange: "indicator.events"}}
	r.open = func() (publishChannel, error) {
		if opened >= len(channels) {
			return nil, errors.New("connection refused")
		}
		ch := channels[opened]
		opened++
		return ch, nil
	}
	return r, &opened
}

func TestPublishSendsPersistentJSON(t *testing.T) {
	ch := &fakeChannel{confirm: fakeConfirm{ack: true}}
	r, opened := newTestRabbit(ch)

	err := r.Publish(context.Background(), "indicator.mark_read.committed", map[string]string{"kind": "mark_read"})
	require.NoError(t, err)
	assert.Equal(t, 1, *opened)

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "indicator.events", sent.exchange)
	assert.Equal(t, "indicator.mark_read.committed", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.NotEmpty(t, sent.msg.MessageId)

	var body map[string]string
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, "mark_read", body["kind"])

	// канал переиспользуется
	require.NoError(t, r.Publish(context.Background(), "indicator.session_mounted", map[string]string{}))
	assert.Equal(t, 1, *opened)
	assert.Len(t, ch.sent, 2)
}

func TestPublishNacked(t *testing.T) {
	r, _ := newTestRabbit(&fakeChannel{confirm: fakeConfirm{ack: false}})

	err := r.Publish(context.Background(), "indicator.mark_read.pending", map[string]string{})
	assert.ErrorIs(t, err, ErrPublishNacked)
}

func TestPublishConfirmError(t *testing.T) {
	r, _ := newTestRabbit(&fakeChannel{confirm: fakeConfirm{err: context.DeadlineExceeded}})

	err := r.Publish(context.Background(), "indicator.mark_read.pending", map[string]string{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "indicator.mark_read.pending")
}

func TestPublishReopensClosedChannel(t *testing.T) {
	closed := &fakeChannel{errs: []error{amqp.ErrClosed}}
	fresh := &fakeChannel{confirm: fakeConfirm{ack: true}}
	r, opened := newTestRabbit(closed, fresh)

	require.NoError(t, r.Publish(context.Background(), "indicator.mark_all_read.committed", map[string]int{"n": 1}))
	assert.Equal(t, 2, *opened)
	assert.Empty(t, closed.sent)
	assert.Len(t, fresh.sent, 1)
}

func TestPublishReopenFails(t *testing.T) {
	r, opened := newTestRabbit(&fakeChannel{errs: []error{amqp.ErrClosed}})

	err := r.Publish(context.Background(), "indicator.mark_read.committed", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, *opened)
}

func TestPublishOtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("frame too large")
	r, opened := newTestRabbit(&fakeChannel{errs: []error{boom}})

	err := r.Publish(context.Background(), "indicator.mark_read.committed", map[string]string{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, *opened)
}

func TestPublishRejectsUnmarshalableMessage(t *testing.T) {
	r, opened := newTestRabbit(&fakeChannel{})

	err := r.Publish(context.Background(), "indicator.mark_read.committed", make(chan int))
	assert.Error(t, err)
	assert.Equal(t, 0, *opened)
}

func TestHealthCheckWithoutConnection(t *testing.T) {
	r, _ := newTestRabbit()
	assert.Error(t, r.HealthCheck())
	assert.NoError(t, r.Close())
}
