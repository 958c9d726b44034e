package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"gochat/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DB_URL, skipping when the environment has no
// Postgres with the messenger schema applied.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DB_URL")
	if url == "" {
		t.Skip("TEST_DB_URL not set, skipping Postgres-backed test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))
	return pool
}

func TestReverseMessages(t *testing.T) {
	msgs := []model.ChatMessage{{ID: "c"}, {ID: "b"}, {ID: "a"}}
	reversed := reverseMessages(msgs)
	assert.Equal(t, "a", reversed[0].ID)
	assert.Equal(t, "b", reversed[1].ID)
	assert.Equal(t, "c", reversed[2].ID)

	assert.Empty(t, reverseMessages([]model.ChatMessage{}))
	one := reverseMessages([]model.ChatMessage{{ID: "x"}})
	assert.Equal(t, "x", one[0].ID)
}

func TestSelectChatMessagesReturnsNewestPage(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	u1, err := InsertUser(ctx, pool, "page-"+uuid.NewString())
	require.NoError(t, err)
	u2, err := InsertUser(ctx, pool, "page-"+uuid.NewString())
	require.NoError(t, err)

	chat, err := InsertChat(ctx, pool, model.ChatTypePrivate, u1.ID, []string{u2.ID})
	require.NoError(t, err)

	const total, limit = 5, 3
	for i := 0; i < total; i++ {
		_, err := InsertChatMessage(ctx, pool, model.ChatTypePrivate, u1.ID, chat.ID, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
		// Distinct timestamps, so the page boundary is deterministic.
		time.Sleep(2 * time.Millisecond)
	}

	msgs, err := SelectChatMessages(ctx, pool, model.ChatTypePrivate, chat.ID, limit)
	require.NoError(t, err)
	require.Len(t, msgs, limit)

	// The page holds the newest messages, oldest of them first.
	for i := 0; i < limit; i++ {
		assert.Equal(t, fmt.Sprintf("msg-%d", total-limit+i), msgs[i].Body)
	}
	for i := 1; i < limit; i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}
}
