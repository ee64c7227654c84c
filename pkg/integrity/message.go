package integrity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbitra/pkg/core"
)

// Header is the metadata envelope of a message.
type Header struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
	From string `json:"from"`
}

// Message is a header plus an arbitrary JSON body.
// Body holds the exact serialized bytes the hash was computed over.
type Message struct {
	Header Header          `json:"header"`
	Body   json.RawMessage `json:"body"`
}

// Build serializes body and returns a message whose header carries the
// digest of those bytes.
func Build(msgType, from string, body any) (Message, error) {
	raw, err := marshalJSON(body)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode message body: %w", err)
	}
	return Message{
		Header: Header{Type: msgType, Hash: Digest(raw), From: from},
		Body:   raw,
	}, nil
}

// Verify reports whether the header hash matches the body.
func Verify(m Message) bool {
	return len(m.Body) > 0 && Digest(m.Body) == m.Header.Hash
}

// Decode unmarshals the body into v.
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s body: %w", m.Header.Type, err)
	}
	return nil
}

// Encode returns the compact wire form of the message, without framing.
func (m Message) Encode() ([]byte, error) {
	return marshalJSON(m)
}

// marshalJSON is json.Marshal without HTML escaping, so '<', '>' and '&'
// come out the way JSON.stringify writes them and a relayed body keeps the
// bytes its hash covers.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Parse decodes a wire message. Any failure wraps core.ErrInvalidMessage.
func Parse(data []byte) (Message, error) {
	var wire struct {
		Header *Header          `json:"header"`
		Body   json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(data), &wire); err != nil {
		return Message{}, fmt.Errorf("%w: %v", core.ErrInvalidMessage, err)
	}
	if wire.Header == nil {
		return Message{}, fmt.Errorf("%w: missing header", core.ErrInvalidMessage)
	}
	if len(wire.Body) == 0 {
		return Message{}, fmt.Errorf("%w: missing body", core.ErrInvalidMessage)
	}
	return Message{Header: *wire.Header, Body: wire.Body}, nil
}
