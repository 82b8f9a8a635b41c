package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/kisanmitra/internal/render"
	"github.com/user/kisanmitra/internal/types"
)

const maxTelegramMessage = 4096

// Handler processes one request end to end.
type Handler interface {
	Handle(ctx context.Context, req *types.Request) (*types.ResponseEnvelope, error)
}

// Adapter bridges Telegram to the orchestrator. Photos become disease
// detection requests, voice notes become transcriptions, and text goes
// through intent resolution.
type Adapter struct {
	bot      *tgbotapi.BotAPI
	handler  Handler
	sessions types.SessionStore
	turns    types.TurnStore
	client   *http.Client

	// generations counts /new rotations per chat so a fresh session key
	// can be minted without touching the stored history.
	mu          sync.Mutex
	generations map[int64]int
}

// New creates a Telegram adapter.
func New(token string, handler Handler, sessions types.SessionStore, turns types.TurnStore) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:         bot,
		handler:     handler,
		sessions:    sessions,
		turns:       turns,
		client:      &http.Client{Timeout: 60 * time.Second},
		generations: make(map[int64]int),
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}

	chatID := msg.Chat.ID
	req, err := a.buildRequest(msg)
	if err != nil {
		log.Printf("build request error: %v", err)
		a.sendResponse(chatID, "Sorry, I couldn't read that message. Please try again.")
		return
	}
	if req == nil {
		return
	}

	env, err := a.handler.Handle(ctx, req)
	if err != nil {
		log.Printf("handle error: %v", err)
		a.sendResponse(chatID, "Sorry, I encountered an error processing your message.")
		return
	}
	a.sendResponse(chatID, render.Envelope(env))
}

// buildRequest maps a Telegram message to a core request. Returns nil
// for message kinds the assistant does not handle.
func (a *Adapter) buildRequest(msg *tgbotapi.Message) (*types.Request, error) {
	req := &types.Request{
		ID:         types.NewRequestID(),
		UserID:     strconv.FormatInt(msg.From.ID, 10),
		Language:   languageOf(msg),
		SessionKey: a.sessionKey(msg.From.ID, msg.Chat.ID),
	}

	switch {
	case len(msg.Photo) > 0:
		// Telegram orders photo sizes ascending; take the largest.
		largest := msg.Photo[len(msg.Photo)-1]
		data, err := a.downloadFile(largest.FileID)
		if err != nil {
			return nil, fmt.Errorf("download photo: %w", err)
		}
		req.InputType = types.InputImage
		req.Content = data
		req.TextDescription = msg.Caption

	case msg.Voice != nil:
		data, err := a.downloadFile(msg.Voice.FileID)
		if err != nil {
			return nil, fmt.Errorf("download voice note: %w", err)
		}
		req.InputType = types.InputAudio
		req.Content = data

	case msg.Text != "":
		req.InputType = types.InputText
		req.Content = []byte(msg.Text)

	default:
		return nil, nil
	}

	return req, nil
}

func (a *Adapter) downloadFile(fileID string) ([]byte, error) {
	url, err := a.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}
	resp, err := a.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	a.sendResponse(msg.Chat.ID, a.commandReply(ctx, msg))
}

func (a *Adapter) commandReply(ctx context.Context, msg *tgbotapi.Message) string {
	switch msg.Command() {
	case "start":
		return "Namaste! I'm KisanMitra, your farming assistant.\n" +
			"Send a photo of a sick plant, ask about government schemes, or send a voice note."

	case "new":
		a.rotateSession(msg.Chat.ID)
		return "Starting a fresh conversation. Your earlier messages stay saved."

	case "status":
		key := a.sessionKey(msg.From.ID, msg.Chat.ID)
		sid, err := a.sessions.ResolveOrCreate(ctx, key, strconv.FormatInt(msg.From.ID, 10))
		if err != nil {
			return "Error fetching status."
		}
		count, err := a.turns.Count(ctx, sid)
		if err != nil {
			return "Error fetching status."
		}
		return fmt.Sprintf("Session: %s\nTurns: %d", sid, count)

	default:
		return "Unknown command. Available: /start, /new, /status"
	}
}

// sessionKey folds the chat's rotation generation into the key, so
// messages after a /new land in a fresh session.
func (a *Adapter) sessionKey(userID, chatID int64) types.SessionKey {
	a.mu.Lock()
	gen := a.generations[chatID]
	a.mu.Unlock()
	return buildSessionKey(userID, chatID, gen)
}

func (a *Adapter) rotateSession(chatID int64) {
	a.mu.Lock()
	a.generations[chatID]++
	a.mu.Unlock()
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				log.Printf("send message error: %v", err)
			}
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}

func languageOf(msg *tgbotapi.Message) string {
	if msg.From != nil && msg.From.LanguageCode != "" {
		return msg.From.LanguageCode
	}
	return "en"
}

func buildSessionKey(userID, chatID int64, generation int) types.SessionKey {
	parts := []string{
		"telegram",
		strconv.FormatInt(userID, 10),
		strconv.FormatInt(chatID, 10),
	}
	if generation > 0 {
		parts = append(parts, strconv.Itoa(generation))
	}
	return types.NewSessionKey(parts...)
}
