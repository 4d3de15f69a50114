package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingAck struct {
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (r *recordingAck) Ack(tag uint64, _ bool) error {
	r.acked = append(r.acked, tag)
	return nil
}

func (r *recordingAck) Nack(tag uint64, _ bool, requeue bool) error {
	r.nacked = append(r.nacked, tag)
	r.requeue = append(r.requeue, requeue)
	return nil
}

func (r *recordingAck) Reject(tag uint64, requeue bool) error {
	return r.Nack(tag, false, requeue)
}

func TestHandle_AcksOnSuccess(t *testing.T) {
	ack := &recordingAck{}
	c := &Client{logger: zap.NewNop()}

	c.handle(amqp.Delivery{Acknowledger: ack, DeliveryTag: 7}, func(amqp.Delivery) error { return nil })

	assert.Equal(t, []uint64{7}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestHandle_RequeuesOnlyOnce(t *testing.T) {
	ack := &recordingAck{}
	c := &Client{logger: zap.NewNop()}
	failing := func(amqp.Delivery) error { return errors.New("bad payload") }

	c.handle(amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, failing)
	c.handle(amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Redelivered: true}, failing)

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{1, 2}, ack.nacked)
	assert.Equal(t, []bool{true, false}, ack.requeue)
}

func TestPublish_WithoutChannel(t *testing.T) {
	c := &Client{logger: zap.NewNop()}
	assert.Error(t, c.Publish(context.Background(), "image.uploaded", []byte("{}")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Publish(ctx, "image.uploaded", nil), context.Canceled)
}
