package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"fintrack/internal/ports"
)

var errMalformedEvent = errors.New("malformed transaction event")

// EncodeEvent serializes an event for the wire.
func EncodeEvent(e ports.TransactionEvent) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses and sanity-checks a delivery body.
func DecodeEvent(data []byte) (ports.TransactionEvent, error) {
	var e ports.TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ports.TransactionEvent{}, fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	switch e.Kind {
	case ports.EventCreated, ports.EventUpdated, ports.EventDeleted:
	default:
		return ports.TransactionEvent{}, fmt.Errorf("%w: unknown kind %q", errMalformedEvent, e.Kind)
	}
	if e.UserID == "" {
		return ports.TransactionEvent{}, fmt.Errorf("%w: missing user id", errMalformedEvent)
	}
	if err := e.Period().Validate(); err != nil {
		return ports.TransactionEvent{}, fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	return e, nil
}
