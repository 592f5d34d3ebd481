package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/lindembergz/123Vendas-sub000/internal/domain"
)

// DecodeFunc turns an outbox payload back into its concrete event shape.
type DecodeFunc func(payload []byte) (domain.Event, error)

// Registry maps an event-type tag to its decoder. Unknown tags and malformed
// payloads both fail the record, never the batch.
type Registry struct {
	decoders map[string]DecodeFunc
}

// NewRegistry returns a registry preloaded with every order event type.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]DecodeFunc)}
	r.Register(domain.EventOrderCreated, decodeInto[domain.OrderCreated])
	r.Register(domain.EventOrderLinesChanged, decodeInto[domain.OrderLinesChanged])
	r.Register(domain.EventOrderLineCancelled, decodeInto[domain.OrderLineCancelled])
	r.Register(domain.EventOrderCancelled, decodeInto[domain.OrderCancelled])
	return r
}

func (r *Registry) Register(tag string, decode DecodeFunc) {
	r.decoders[tag] = decode
}

func (r *Registry) Decode(tag string, payload []byte) (domain.Event, error) {
	decode, ok := r.decoders[tag]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", tag)
	}
	ev, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", tag, err)
	}
	return ev, nil
}

func decodeInto[E domain.Event](payload []byte) (domain.Event, error) {
	var ev E
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
