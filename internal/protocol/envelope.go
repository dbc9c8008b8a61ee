package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Selectors of the room relay protocol. Every frame is a JSON array of
// [selector, ...args]; server-to-client frames use the same shape. An
// empty frame is a keep-alive and carries nothing.
const (
	SelEnterRoom          = "*enter-room*"
	SelSubscribeEnterExit = "*subscribe-client-enter-exit*"
	SelBroadcast          = "*broadcast-message*"
	SelSendMessage        = "*send-message*"
	SelClientID           = "*client-id*"
	SelClientEnter        = "*client-enter*"
	SelClientExit         = "*client-exit*"
	SelPing               = "*ping*"
)

// Envelope is a decoded relay frame: one routing selector plus payload
// arguments, all still raw.
type Envelope []json.RawMessage

// EncodeEnvelope builds a relay frame from a selector and its arguments.
func EncodeEnvelope(selector string, args ...any) ([]byte, error) {
	frame := make([]any, 0, len(args)+1)
	frame = append(frame, selector)
	frame = append(frame, args...)
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", selector, err)
	}
	return data, nil
}

// DecodeEnvelope parses a relay frame into its selector and arguments.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(env) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrMalformedEnvelope)
	}
	return env, nil
}

// Selector returns the frame's routing selector, or "" when the first
// element is not a string (a broadcast payload, for example).
func (e Envelope) Selector() string {
	if len(e) == 0 {
		return ""
	}
	var sel string
	if err := json.Unmarshal(e[0], &sel); err != nil {
		return ""
	}
	return sel
}

// Args returns the frame elements after the selector.
func (e Envelope) Args() []json.RawMessage {
	if len(e) < 2 {
		return nil
	}
	return e[1:]
}

// IntArg decodes argument i as an integer.
func (e Envelope) IntArg(i int) (int, error) {
	args := e.Args()
	if i >= len(args) {
		return 0, fmt.Errorf("%w: missing argument %d", ErrMalformedEnvelope, i)
	}
	var n int
	if err := json.Unmarshal(args[i], &n); err != nil {
		return 0, fmt.Errorf("%w: argument %d: %v", ErrMalformedEnvelope, i, err)
	}
	return n, nil
}

// StringArg decodes argument i as a string.
func (e Envelope) StringArg(i int) (string, error) {
	args := e.Args()
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", ErrMalformedEnvelope, i)
	}
	var s string
	if err := json.Unmarshal(args[i], &s); err != nil {
		return "", fmt.Errorf("%w: argument %d: %v", ErrMalformedEnvelope, i, err)
	}
	return s, nil
}

// DecodeBroadcast extracts the game event carried by a room broadcast.
// Frames arrive in more than one shape depending on the sending client,
// so each known shape is tried in a fixed priority order:
//
//  1. a single-element array whose sole member is a JSON-encoded event
//  2. a [selector, ...args] array where one of the args is the event,
//     either JSON-encoded in a string or an inline object
//  3. a bare event object (loopback and NATS rooms deliver these)
//
// A frame matching none of them is malformed; the caller drops it.
func DecodeBroadcast(data []byte) (Event, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformedEnvelope)
	}

	if trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		if len(arr) == 0 {
			return nil, fmt.Errorf("%w: empty array", ErrMalformedEnvelope)
		}
		if len(arr) == 1 {
			return eventFromRaw(arr[0])
		}
		for _, raw := range arr[1:] {
			ev, err := eventFromRaw(raw)
			if err == nil {
				return ev, nil
			}
			if errors.Is(err, ErrUnknownEventType) {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: no event argument", ErrMalformedEnvelope)
	}

	return eventFromRaw(trimmed)
}

// eventFromRaw accepts either an event object or a JSON string that
// itself contains an encoded event object.
func eventFromRaw(raw json.RawMessage) (Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty element", ErrMalformedEnvelope)
	}

	switch trimmed[0] {
	case '"':
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		return UnmarshalEvent([]byte(inner))
	case '{':
		return UnmarshalEvent(trimmed)
	default:
		return nil, fmt.Errorf("%w: unsupported element", ErrMalformedEnvelope)
	}
}

// PlayerID derives the session-stable participant id from a relay client
// sequence number.
func PlayerID(clientID int) string {
	return fmt.Sprintf("player-%d", clientID)
}
