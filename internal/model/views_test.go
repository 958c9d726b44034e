package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatMessageViewMineIsPerRecipient(t *testing.T) {
	msg := ChatMessage{ID: "m1", Type: ChatTypePrivate, Body: "hi", UserID: "alice", ChatID: "c1"}

	// The same message renders differently depending on who receives it.
	assert.True(t, ToChatMessageView("alice", msg).Mine)
	assert.False(t, ToChatMessageView("bob", msg).Mine)
}

func TestUserViewPresenceAndMe(t *testing.T) {
	users := []User{{ID: "alice"}, {ID: "bob"}}
	online := map[string]bool{"bob": true}

	views := ToUserViews("alice", users, online)
	assert.True(t, views[0].Me)
	assert.False(t, views[0].IsOnline)
	assert.False(t, views[1].Me)
	assert.True(t, views[1].IsOnline)
}

func TestUserViewNilPresenceMap(t *testing.T) {
	view := ToUserView("alice", User{ID: "bob"}, nil)
	assert.False(t, view.IsOnline)
}

func TestChatViewMineTracksOwner(t *testing.T) {
	chat := Chat{ID: "c1", Type: ChatTypeGroup, UserID: "alice", UserIDs: []string{"alice", "bob", "carol"}}

	assert.True(t, ToChatView("alice", chat).Mine)
	assert.False(t, ToChatView("bob", chat).Mine)
}

func TestValidateChatType(t *testing.T) {
	assert.NoError(t, ValidateChatType(ChatTypePrivate))
	assert.NoError(t, ValidateChatType(ChatTypeGroup))
	assert.Error(t, ValidateChatType(""))
	assert.Error(t, ValidateChatType("channel"))
}

func TestValidateMessageBody(t *testing.T) {
	assert.NoError(t, ValidateMessageBody("hello"))
	assert.Error(t, ValidateMessageBody(""))

	assert.NoError(t, ValidateMessageBody(strings.Repeat("a", MaxMessageLength)))
	assert.Error(t, ValidateMessageBody(strings.Repeat("a", MaxMessageLength+1)))

	// The bound counts characters, not bytes.
	assert.NoError(t, ValidateMessageBody(strings.Repeat("ü", MaxMessageLength)))
	assert.Error(t, ValidateMessageBody(strings.Repeat("ü", MaxMessageLength+1)))
}
