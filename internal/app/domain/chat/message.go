package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"io"
	"time"
)

var ErrInvalidMessage = errors.New("invalid message")

var validate = validator.New()

// Message - one chat event. Values are never mutated after the timestamp is assigned.
type Message struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type inbound struct {
	Sender    *string `json:"sender" validate:"required"`
	Content   *string `json:"content" validate:"required"`
	Timestamp *int64  `json:"timestamp"`
}

var inboundKeys = map[string]struct{}{
	"sender":    {},
	"content":   {},
	"timestamp": {},
}

// Parse decodes a client frame. Anything but a single JSON object with sender and content
// (and optionally an integer timestamp) is rejected with ErrInvalidMessage.
// Keys are matched exactly and may appear once.
func Parse(raw []byte) (Message, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	var in inbound
	for key, value := range fields {
		var target any
		switch key {
		case "sender":
			target = &in.Sender
		case "content":
			target = &in.Content
		case "timestamp":
			target = &in.Timestamp
		}
		if err := json.Unmarshal(value, target); err != nil {
			return Message{}, fmt.Errorf("%w: field %q: %v", ErrInvalidMessage, key, err)
		}
	}
	if err := validate.Struct(in); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	msg := Message{
		Sender:  *in.Sender,
		Content: *in.Content,
	}
	if in.Timestamp != nil {
		msg.Timestamp = *in.Timestamp
	}
	return msg, nil
}

// objectFields splits a single top-level object into its raw values.
// encoding/json folds key case and lets a repeated key win, so keys are checked here.
func objectFields(raw []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object")
	}

	fields := make(map[string]json.RawMessage, len(inboundKeys))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if _, known := inboundKeys[key]; !known {
			return nil, fmt.Errorf("unknown field %q", key)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate field %q", key)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after object")
	}
	return fields, nil
}

// WithTimestamp returns a copy stamped with now when the timestamp is unset.
func (m Message) WithTimestamp(now time.Time) Message {
	if m.Timestamp == 0 {
		m.Timestamp = now.UnixMilli()
	}
	return m
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
