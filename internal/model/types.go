package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
)

const (
	GroupChatMinUsers = 3
	GroupChatMaxUsers = 10
)

// MaxMessageLength bounds a chat message body.
const MaxMessageLength = 280

func ValidateChatType(chatType string) error {
	switch chatType {
	case ChatTypePrivate, ChatTypeGroup:
		return nil
	default:
		return fmt.Errorf("invalid chat type: %q", chatType)
	}
}

func ValidateMessageBody(body string) error {
	if body == "" {
		return fmt.Errorf("message body is required")
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return fmt.Errorf("message body exceeds %d characters", MaxMessageLength)
	}
	return nil
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Chat struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    string    `json:"userId"` // the owner of the chat
	UserIDs   []string  `json:"userIds"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Body      string    `json:"body"`
	UserID    string    `json:"userId"`
	ChatID    string    `json:"chatId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
