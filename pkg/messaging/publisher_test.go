package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/latchjack/burger/pkg/burger"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingTransport struct {
	keys []string
	msgs []amqp091.Publishing
	err  error
}

func (r *recordingTransport) Publish(_ context.Context, key string, msg amqp091.Publishing) error {
	if r.err != nil {
		return r.err
	}
	r.keys = append(r.keys, key)
	r.msgs = append(r.msgs, msg)
	return nil
}

func TestPublishOrderPlaced(t *testing.T) {
	transport := &recordingTransport{}
	p := NewPublisher(transport, zaptest.NewLogger(t))

	placed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	event := OrderPlaced{
		OrderID:        "order-1",
		UserID:         "user-1",
		Ingredients:    burger.Ingredients{burger.Salad: 1},
		Price:          decimal.RequireFromString("4.5"),
		DeliveryMethod: burger.DeliveryFastest,
		PlacedAt:       placed,
	}
	require.NoError(t, p.PublishOrderPlaced(context.Background(), event))

	require.Len(t, transport.msgs, 1)
	assert.Equal(t, RoutingKeyOrderPlaced, transport.keys[0])
	msg := transport.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, "order-1", msg.MessageId)

	var decoded OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, event.Ingredients, decoded.Ingredients)
	assert.True(t, event.Price.Equal(decoded.Price))
	assert.True(t, placed.Equal(decoded.PlacedAt))
}

func TestPublishOrderPlacedError(t *testing.T) {
	p := NewPublisher(&recordingTransport{err: errors.New("broker gone")}, zaptest.NewLogger(t))
	err := p.PublishOrderPlaced(context.Background(), OrderPlaced{OrderID: "x"})
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishOrderPlaced(context.Background(), OrderPlaced{}))
}
