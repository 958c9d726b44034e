package model

import "time"

// Views are the response shapes delivered to a specific recipient. The
// "me"/"mine" flags are computed relative to that recipient, so a view must
// never be shared verbatim across recipients.

type UserView struct {
	ID       string `json:"id"`
	Me       bool   `json:"me"`
	IsOnline bool   `json:"isOnline"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type ChatView struct {
	ID      string   `json:"id"`
	Mine    bool     `json:"mine"`
	Type    string   `json:"type"`
	UserID  string   `json:"userId"`
	UserIDs []string `json:"userIds"`
}

type ChatMessageView struct {
	ID        string    `json:"id"`
	Mine      bool      `json:"mine"`
	Type      string    `json:"type"`
	Body      string    `json:"body"`
	UserID    string    `json:"userId"`
	ChatID    string    `json:"chatId"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToUserView(currUserID string, user User, onlineByUserID map[string]bool) UserView {
	return UserView{
		ID:       user.ID,
		Me:       user.ID == currUserID,
		IsOnline: onlineByUserID[user.ID],
		Name:     user.Name,
		ImageURL: user.ImageURL,
	}
}

func ToUserViews(currUserID string, users []User, onlineByUserID map[string]bool) []UserView {
	views := make([]UserView, len(users))
	for i, user := range users {
		views[i] = ToUserView(currUserID, user, onlineByUserID)
	}
	return views
}

func ToChatView(currUserID string, chat Chat) ChatView {
	return ChatView{
		ID:      chat.ID,
		Mine:    chat.UserID == currUserID,
		Type:    chat.Type,
		UserID:  chat.UserID,
		UserIDs: chat.UserIDs,
	}
}

func ToChatViews(currUserID string, chats []Chat) []ChatView {
	views := make([]ChatView, len(chats))
	for i, chat := range chats {
		views[i] = ToChatView(currUserID, chat)
	}
	return views
}

func ToChatMessageView(currUserID string, msg ChatMessage) ChatMessageView {
	return ChatMessageView{
		ID:        msg.ID,
		Mine:      msg.UserID == currUserID,
		Type:      msg.Type,
		Body:      msg.Body,
		UserID:    msg.UserID,
		ChatID:    msg.ChatID,
		CreatedAt: msg.CreatedAt,
	}
}

func ToChatMessageViews(currUserID string, msgs []ChatMessage) []ChatMessageView {
	views := make([]ChatMessageView, len(msgs))
	for i, msg := range msgs {
		views[i] = ToChatMessageView(currUserID, msg)
	}
	return views
}
