package telegram

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/kisanmitra/internal/state"
)

func TestSplitMessage(t *testing.T) {
	short := "Hello world"
	parts := splitMessage(short)
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0] != short {
		t.Errorf("expected %q, got %q", short, parts[0])
	}
}

func TestSplitMessageLong(t *testing.T) {
	long := strings.Repeat("a", 5000)
	parts := splitMessage(long)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if len(parts[0]) != maxTelegramMessage {
		t.Errorf("expected first part length %d, got %d", maxTelegramMessage, len(parts[0]))
	}
}

func TestBuildSessionKey(t *testing.T) {
	key := buildSessionKey(12345, 67890, 0)
	if string(key) != "telegram:12345:67890" {
		t.Errorf("expected 'telegram:12345:67890', got %q", key)
	}

	key = buildSessionKey(12345, 67890, 2)
	if string(key) != "telegram:12345:67890:2" {
		t.Errorf("expected 'telegram:12345:67890:2', got %q", key)
	}
}

func commandMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: 12345},
		Chat: &tgbotapi.Chat{ID: 67890},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}
}

func TestNewCommandRotatesSession(t *testing.T) {
	dir := t.TempDir()
	a := &Adapter{
		sessions:    state.NewSessionStore(dir),
		turns:       state.NewTurnStore(dir),
		generations: make(map[int64]int),
	}
	ctx := context.Background()

	before := a.sessionKey(12345, 67890)

	reply := a.commandReply(ctx, commandMessage("/new"))
	if !strings.Contains(reply, "fresh conversation") {
		t.Errorf("unexpected /new reply %q", reply)
	}

	after := a.sessionKey(12345, 67890)
	if after == before {
		t.Fatalf("expected rotated session key, still %q", after)
	}

	// The rotated key resolves to a different stored session.
	first, err := a.sessions.ResolveOrCreate(ctx, before, "12345")
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.sessions.ResolveOrCreate(ctx, after, "12345")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("expected a fresh session after /new")
	}

	// Other chats keep their own generation.
	if got := a.sessionKey(12345, 11111); got != buildSessionKey(12345, 11111, 0) {
		t.Errorf("expected untouched chat at generation 0, got %q", got)
	}
}

func TestLanguageOf(t *testing.T) {
	msg := &tgbotapi.Message{From: &tgbotapi.User{LanguageCode: "hi"}}
	if got := languageOf(msg); got != "hi" {
		t.Errorf("expected hi, got %s", got)
	}

	msg = &tgbotapi.Message{From: &tgbotapi.User{}}
	if got := languageOf(msg); got != "en" {
		t.Errorf("expected en fallback, got %s", got)
	}
}
