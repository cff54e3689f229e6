package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsLabeler/internal/config"
)

func TestPublishDigestPostsForm(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.NoError(t, r.ParseForm())
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		assert.Empty(t, r.PostForm.Get("parse_mode"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "123:abc", ChatID: "-100"}).WithAPIBase(server.URL + "/")
	require.NoError(t, n.PublishDigest(context.Background(), "Unknown: 2, empty_text: 1"))

	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, "-100", gotChat)
	assert.Equal(t, "Unknown: 2, empty_text: 1", gotText)
}

func TestPublishDigestReportsAPIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "t", ChatID: "c"}).WithAPIBase(server.URL)
	err := n.PublishDigest(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestPublishDigestRequiresCredentials(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.TelegramConfig{BotToken: "t"})
	assert.False(t, n.Enabled())
	require.Error(t, n.PublishDigest(context.Background(), "hello"))
}

func TestTruncateKeepsMessageUnderLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", maxMessageLen+10)
	got := truncate(long, maxMessageLen)
	assert.Equal(t, maxMessageLen, utf8.RuneCountInString(got))
	assert.Equal(t, "short", truncate("short", maxMessageLen))
}
