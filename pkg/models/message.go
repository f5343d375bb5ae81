package models

import "time"

// MessageEnvelope is the wire format for events exchanged between the
// catalog and customization services.
type MessageEnvelope struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`  // Event data
	Metadata  Metadata               `json:"metadata"` // Pipeline metadata (trace_id, routing attributes)
}

type Metadata struct {
	TraceID    string                 `json:"trace_id,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

func (msg *MessageEnvelope) GetPayloadField(name string) (interface{}, bool) {
	if msg.Payload == nil {
		return nil, false
	}

	value, ok := msg.Payload[name]
	return value, ok
}

func (msg *MessageEnvelope) SetPayloadField(name string, value interface{}) {
	if msg.Payload == nil {
		msg.Payload = make(map[string]interface{})
	}

	msg.Payload[name] = value
}

func (msg *MessageEnvelope) SetAttribute(name string, value interface{}) {
	if msg.Metadata.Attributes == nil {
		msg.Metadata.Attributes = make(map[string]interface{})
	}

	msg.Metadata.Attributes[name] = value
}
