package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gochat/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InsertChat creates a private or group chat owned by userID. The owner is
// always part of the member list.
func InsertChat(ctx context.Context, pool *pgxpool.Pool, chatType, userID string, userIDs []string) (model.Chat, error) {
	allUserIDs := uniqueSorted(append(userIDs, userID))

	switch chatType {
	case model.ChatTypePrivate:
		if len(allUserIDs) != 2 {
			return model.Chat{}, fmt.Errorf("a private chat requires exactly 2 distinct users, got %d", len(allUserIDs))
		}
		return insertPrivateChat(ctx, pool, userID, allUserIDs)
	case model.ChatTypeGroup:
		if n := len(allUserIDs); n < model.GroupChatMinUsers || n > model.GroupChatMaxUsers {
			return model.Chat{}, fmt.Errorf("a group chat requires %d to %d distinct users, got %d",
				model.GroupChatMinUsers, model.GroupChatMaxUsers, n)
		}
		return insertGroupChat(ctx, pool, userID, allUserIDs)
	default:
		return model.Chat{}, fmt.Errorf("invalid chat type: %q", chatType)
	}
}

func insertPrivateChat(ctx context.Context, pool *pgxpool.Pool, userID string, userIDs []string) (model.Chat, error) {
	chat := model.Chat{Type: model.ChatTypePrivate, UserID: userID, UserIDs: userIDs}
	err := pool.QueryRow(ctx, `
		INSERT INTO messenger.private_chats (user_id, user1_id, user2_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, userID, userIDs[0], userIDs[1]).Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt)

	if isUniqueViolation(err) {
		return model.Chat{}, fmt.Errorf("private chat for users %v: %w", userIDs, ErrAlreadyExists)
	}
	return chat, err
}

func insertGroupChat(ctx context.Context, pool *pgxpool.Pool, userID string, userIDs []string) (model.Chat, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return model.Chat{}, err
	}
	defer tx.Rollback(ctx)

	chat := model.Chat{Type: model.ChatTypeGroup, UserID: userID, UserIDs: userIDs}
	err = tx.QueryRow(ctx, `
		INSERT INTO messenger.group_chats (user_id)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`, userID).Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		return model.Chat{}, err
	}

	for _, id := range userIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO messenger.group_chat_participants (group_chat_id, user_id)
			VALUES ($1, $2)
		`, chat.ID, id); err != nil {
			return model.Chat{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Chat{}, err
	}
	return chat, nil
}

func SelectChat(ctx context.Context, pool *pgxpool.Pool, chatType, chatID string) (model.Chat, error) {
	var (
		chat model.Chat
		err  error
	)

	switch chatType {
	case model.ChatTypePrivate:
		err = pool.QueryRow(ctx, `
			SELECT id, 'private', user_id, ARRAY[user1_id, user2_id]::text[], created_at, updated_at
			FROM messenger.private_chats
			WHERE id = $1
		`, chatID).Scan(&chat.ID, &chat.Type, &chat.UserID, &chat.UserIDs, &chat.CreatedAt, &chat.UpdatedAt)
	case model.ChatTypeGroup:
		err = pool.QueryRow(ctx, `
			SELECT gc.id, 'group', gc.user_id,
				array_agg(gcp.user_id::text ORDER BY gcp.user_id),
				gc.created_at, gc.updated_at
			FROM messenger.group_chats gc
			JOIN messenger.group_chat_participants gcp ON gc.id = gcp.group_chat_id
			WHERE gc.id = $1
			GROUP BY gc.id
		`, chatID).Scan(&chat.ID, &chat.Type, &chat.UserID, &chat.UserIDs, &chat.CreatedAt, &chat.UpdatedAt)
	default:
		return model.Chat{}, fmt.Errorf("invalid chat type: %q", chatType)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Chat{}, fmt.Errorf("%s chat %q: %w", chatType, chatID, ErrNotFound)
	}
	return chat, err
}

// SelectChatByUserIDs finds the chat whose member set matches exactly.
func SelectChatByUserIDs(ctx context.Context, pool *pgxpool.Pool, chatType string, userIDs []string) (model.Chat, error) {
	ids := uniqueSorted(userIDs)

	var (
		chat model.Chat
		err  error
	)

	switch chatType {
	case model.ChatTypePrivate:
		if len(ids) != 2 {
			return model.Chat{}, fmt.Errorf("private chat for users %v: %w", ids, ErrNotFound)
		}
		err = pool.QueryRow(ctx, `
			SELECT id, 'private', user_id, ARRAY[user1_id, user2_id]::text[], created_at, updated_at
			FROM messenger.private_chats
			WHERE user1_id = $1 AND user2_id = $2
		`, ids[0], ids[1]).Scan(&chat.ID, &chat.Type, &chat.UserID, &chat.UserIDs, &chat.CreatedAt, &chat.UpdatedAt)
	case model.ChatTypeGroup:
		err = pool.QueryRow(ctx, `
			SELECT gc.id, 'group', gc.user_id,
				array_agg(gcp.user_id::text ORDER BY gcp.user_id),
				gc.created_at, gc.updated_at
			FROM messenger.group_chats gc
			JOIN messenger.group_chat_participants gcp ON gc.id = gcp.group_chat_id
			GROUP BY gc.id
			HAVING array_agg(gcp.user_id::text ORDER BY gcp.user_id) = $1::text[]
			LIMIT 1
		`, ids).Scan(&chat.ID, &chat.Type, &chat.UserID, &chat.UserIDs, &chat.CreatedAt, &chat.UpdatedAt)
	default:
		return model.Chat{}, fmt.Errorf("invalid chat type: %q", chatType)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Chat{}, fmt.Errorf("%s chat for users %v: %w", chatType, ids, ErrNotFound)
	}
	return chat, err
}

// SelectAllChats lists every private and group chat the user belongs to,
// newest first.
func SelectAllChats(ctx context.Context, pool *pgxpool.Pool, userID string, limit int) ([]model.Chat, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, 'private' AS type, user_id,
			ARRAY[user1_id, user2_id]::text[] AS user_ids,
			created_at, updated_at
		FROM messenger.private_chats
		WHERE $1::uuid IN (user1_id, user2_id)
			UNION
		SELECT gc.id, 'group' AS type, gc.user_id,
			array_agg(gcp.user_id::text ORDER BY gcp.user_id) AS user_ids,
			gc.created_at, gc.updated_at
		FROM messenger.group_chats gc
		JOIN messenger.group_chat_participants gcp ON gc.id = gcp.group_chat_id
		GROUP BY gc.id
		HAVING array_agg(gcp.user_id) @> ARRAY[$1]::uuid[]
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := []model.Chat{}
	for rows.Next() {
		var chat model.Chat
		if err := rows.Scan(&chat.ID, &chat.Type, &chat.UserID, &chat.UserIDs, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// InsertChatMessage persists a message and returns it with the generated id
// and timestamps. The chat must exist; a missing chat surfaces as ErrNotFound
// via the foreign key.
func InsertChatMessage(ctx context.Context, pool *pgxpool.Pool, chatType, userID, chatID, body string) (model.ChatMessage, error) {
	msg := model.ChatMessage{Type: chatType, Body: body, UserID: userID, ChatID: chatID}

	var err error
	switch chatType {
	case model.ChatTypePrivate:
		err = pool.QueryRow(ctx, `
			INSERT INTO messenger.private_chat_messages (user_id, private_chat_id, body)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		`, userID, chatID, body).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
	case model.ChatTypeGroup:
		err = pool.QueryRow(ctx, `
			INSERT INTO messenger.group_chat_messages (user_id, group_chat_id, body)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		`, userID, chatID, body).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
	default:
		return model.ChatMessage{}, fmt.Errorf("invalid chat type: %q", chatType)
	}

	// The foreign key rejects messages for chats that do not exist.
	if isForeignKeyViolation(err) {
		return model.ChatMessage{}, fmt.Errorf("%s chat %q: %w", chatType, chatID, ErrNotFound)
	}
	return msg, err
}

// SelectChatMessages returns the newest limit messages of the chat in
// chronological order. The stream endpoint sends this as the "history"
// snapshot, so the page must end at the present: anything older than the
// cutoff is reachable through explicit paging, but a message missing from the
// top of the history would never arrive on the live stream either.
func SelectChatMessages(ctx context.Context, pool *pgxpool.Pool, chatType, chatID string, limit int) ([]model.ChatMessage, error) {
	var query string
	switch chatType {
	case model.ChatTypePrivate:
		query = `
			SELECT id, user_id, private_chat_id, body, created_at, updated_at
			FROM messenger.private_chat_messages
			WHERE private_chat_id = $1
			ORDER BY created_at DESC
			LIMIT $2`
	case model.ChatTypeGroup:
		query = `
			SELECT id, user_id, group_chat_id, body, created_at, updated_at
			FROM messenger.group_chat_messages
			WHERE group_chat_id = $1
			ORDER BY created_at DESC
			LIMIT $2`
	default:
		return nil, fmt.Errorf("invalid chat type: %q", chatType)
	}

	rows, err := pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.ChatMessage{}
	for rows.Next() {
		msg := model.ChatMessage{Type: chatType}
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.ChatID, &msg.Body, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reverseMessages(msgs), nil
}

// reverseMessages flips a newest-first page into chronological order in place.
func reverseMessages(msgs []model.ChatMessage) []model.ChatMessage {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
