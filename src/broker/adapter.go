package broker

import (
	"context"
	"fmt"

	"xcreport/src/contracts"
)

// Codec adapts a Broker to typed payloads: values are encoded with a contracts.Codec on
// publish and decoded on receipt. Producers and consumers of a topic must agree on
// the codec.
type Codec struct {
	broker Broker
	codec  contracts.Codec
}

// WithCodec wraps b so payloads are encoded with c. A nil c means JSON.
func WithCodec(b Broker, c contracts.Codec) *Codec {
	if c == nil {
		c = contracts.JSONCodec{}
	}
	return &Codec{broker: b, codec: c}
}

// Publish encodes v and publishes it under key.
func (a *Codec) Publish(ctx context.Context, topic, key string, v any) error {
	data, err := a.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", a.codec.Name(), err)
	}
	return a.broker.Publish(ctx, topic, key, data)
}

// Decode decodes a consumed message into v.
func (a *Codec) Decode(msg Message, v any) error {
	if err := a.codec.Unmarshal(msg.Value, v); err != nil {
		return fmt.Errorf("failed to decode %s payload from %s offset %d: %w", a.codec.Name(), msg.Topic, msg.Offset, err)
	}
	return nil
}

// Subscribe passes through to the wrapped broker.
func (a *Codec) Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error) {
	return a.broker.Subscribe(ctx, topic, groupID)
}

// Broker returns the wrapped broker.
func (a *Codec) Broker() Broker {
	return a.broker
}
