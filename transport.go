package main

import (
	"context"
	"fmt"
)

// Transport delivers a single event to the remote consumer. Implementations
// must tolerate re-sends: the dispatcher retries the head event after a
// failure and may deliver an event the consumer already received.
type Transport interface {
	Send(ctx context.Context, ev Event) error
	Close() error
}

// newTransport builds the configured transport variant.
func newTransport(cfg Config) (Transport, error) {
	switch cfg.TransportKind {
	case "mqtt":
		return NewMQTTTransport(cfg.MQTTBroker, cfg.MQTTUsername, cfg.MQTTPassword, cfg.BinID)
	case "http":
		return NewHTTPTransport(cfg.HTTPEndpoint)
	case "file":
		return NewFileTransport(cfg.EventsFile)
	default:
		return nil, fmt.Errorf("unknown transport %q (want mqtt, http or file)", cfg.TransportKind)
	}
}
