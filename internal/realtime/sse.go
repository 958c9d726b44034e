package realtime

import (
	"bytes"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var jsonFast = jsoniter.ConfigFastest

// Event names on the stream. A frame without an event name is the default
// message_created kind.
const (
	FrameHistory  = "history"
	FrameIsTyping = "is_typing"
)

// Frame is one server-sent event. The id line intentionally trails the data
// line so the client's last-event-id watermark only advances once the payload
// has been fully received.
type Frame struct {
	ID    string
	Event string
	Data  any
}

func (f Frame) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if f.Event != "" {
		fmt.Fprintf(&buf, "event: %s\n", f.Event)
	}
	if f.Data != nil {
		data, err := jsonFast.Marshal(f.Data)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "data: %s\n", data)
	}
	if f.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", f.ID)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
