package model

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Event kinds carried over the pub/sub channels.
const (
	EventMessageCreated = "chat.message_created"
	EventIsTyping       = "chat.is_typing"
)

var jsonFast = jsoniter.ConfigFastest

// Event is the envelope published to each interested host's channel.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Message *ChatMessage `json:"message,omitempty"`
	ChatID  string       `json:"chatId,omitempty"`
	UserID  string       `json:"userId,omitempty"`
}

func NewMessageCreatedEvent(userID string, msg ChatMessage) Event {
	return Event{
		Type: EventMessageCreated,
		Data: EventData{Message: &msg, UserID: userID},
	}
}

func NewIsTypingEvent(userID, chatID string) Event {
	return Event{
		Type: EventIsTyping,
		Data: EventData{ChatID: chatID, UserID: userID},
	}
}

// ChatID resolves the chat an event belongs to regardless of kind.
func (e Event) ChatID() string {
	if e.Data.Message != nil {
		return e.Data.Message.ChatID
	}
	return e.Data.ChatID
}

func (e Event) Marshal() ([]byte, error) {
	return jsonFast.Marshal(e)
}

func UnmarshalEvent(raw []byte) (Event, error) {
	var event Event
	if err := jsonFast.Unmarshal(raw, &event); err != nil {
		return Event{}, fmt.Errorf("malformed event payload: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("malformed event payload: missing type")
	}
	return event, nil
}
