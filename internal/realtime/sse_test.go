package realtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLayout(t *testing.T) {
	frame := Frame{
		ID:    "msg-1",
		Event: "is_typing",
		Data:  map[string]string{"userId": "u1"},
	}

	payload, err := frame.Bytes()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "event: is_typing", lines[0])
	assert.Equal(t, `data: {"userId":"u1"}`, lines[1])
	// The id trails the data so the client's last-event-id only advances
	// once the payload has arrived.
	assert.Equal(t, "id: msg-1", lines[2])
	assert.True(t, strings.HasSuffix(string(payload), "\n\n"), "frame must end with a blank line")
}

func TestFrameDefaultEventOmitted(t *testing.T) {
	frame := Frame{ID: "msg-1", Data: map[string]bool{"ok": true}}

	payload, err := frame.Bytes()
	require.NoError(t, err)

	assert.NotContains(t, string(payload), "event:")
	assert.Equal(t, "data: {\"ok\":true}\nid: msg-1\n\n", string(payload))
}

func TestFrameWithoutData(t *testing.T) {
	payload, err := Frame{ID: "42"}.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "id: 42\n\n", string(payload))
}
