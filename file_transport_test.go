package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTransport_AppendsNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")
	transport, err := NewFileTransport(path)
	require.NoError(t, err)
	defer transport.Close()

	ctx := context.Background()
	require.NoError(t, transport.Send(ctx, Event{
		Kind: KindAlert, State: "full", Percent: 86.7,
		Timestamp: time.Now().UnixMilli(), SequenceID: 1,
	}))
	require.NoError(t, transport.Send(ctx, Event{
		Kind: KindTelemetry, State: "full", Percent: 88.2,
		Timestamp: time.Now().UnixMilli(), SequenceID: 2, Dropped: 3,
	}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 2)
	assert.Equal(t, KindAlert, events[0].Kind)
	assert.Equal(t, uint64(1), events[0].SequenceID)
	assert.Equal(t, uint64(0), events[0].Dropped)
	assert.Equal(t, KindTelemetry, events[1].Kind)
	assert.Equal(t, uint64(3), events[1].Dropped)
}
