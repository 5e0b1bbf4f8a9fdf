package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTransport POSTs each event as a JSON body to a collector endpoint.
// Any non-2xx response counts as a failed delivery.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTransport creates a transport for the given collector URL.
func NewHTTPTransport(endpoint string) (*HTTPTransport, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("http transport: endpoint is required")
	}
	return &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send delivers one event, honouring context cancellation.
func (t *HTTPTransport) Send(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("http transport: marshal event %d: %w", ev.SequenceID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("http transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("http transport: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http transport: collector returned %s", resp.Status)
	}
	return nil
}

// Close is a no-op; the underlying client keeps no resources worth freeing.
func (t *HTTPTransport) Close() error {
	return nil
}
