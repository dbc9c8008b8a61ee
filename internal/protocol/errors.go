package protocol

import "errors"

var (
	// ErrMalformedEnvelope reports a frame that matches none of the known
	// envelope shapes. Callers drop the frame; it is never fatal.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrUnknownEventType reports a well-formed event whose type
	// discriminator is not recognized. Unknown kinds are ignored so newer
	// clients can add kinds without breaking older ones.
	ErrUnknownEventType = errors.New("unknown event type")
)
