package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"newsdigest/internal/domain"
	"newsdigest/internal/markdown"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	telegramMessageMaxLength = 4096
	sendInterval             = time.Second
)

// Digest is one finished run as shown in the Telegram message.
type Digest struct {
	Items    []domain.SummaryRecord
	Stories  []domain.Story
	Provider string
	FeedURL  string
}

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts digests to a single chat, at most one message per second.
type Telegram struct {
	api     messageSender
	chatID  int64
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return newTelegram(api, chatID, rate.NewLimiter(rate.Every(sendInterval), 1), log), nil
}

func newTelegram(api messageSender, chatID int64, limiter *rate.Limiter, log *slog.Logger) *Telegram {
	return &Telegram{
		api:     api,
		chatID:  chatID,
		limiter: limiter,
		log:     log,
	}
}

// SendDigest sends d as one or more MarkdownV2 messages. An empty digest is
// not sent.
func (t *Telegram) SendDigest(ctx context.Context, d Digest) error {
	if len(d.Items) == 0 {
		t.log.InfoContext(ctx, "Skipping Telegram digest without items",
			"chatID", t.chatID)

		return nil
	}

	var errs []error

	for _, text := range FormatDigest(d) {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}

		if err := t.send(text); err != nil {
			errs = append(errs, fmt.Errorf("send message: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (t *Telegram) send(text string) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		t.log.Warn("Message text had invalid UTF-8 and was normalized",
			"chatID", t.chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	message := tgbotapi.NewMessage(t.chatID, normalizedText)

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = tgbotapi.ModeMarkdownV2

	message.DisableWebPagePreview = true

	_, err := t.api.Send(message)
	return err
}

// FormatDigest renders d as MarkdownV2 messages that each fit Telegram's
// length limit. Entries are never split across messages unless a single entry
// is longer than the limit.
func FormatDigest(d Digest) []string {
	links := make(map[string]string, len(d.Stories))
	for _, s := range d.Stories {
		links[strings.TrimSpace(s.Title)] = strings.TrimSpace(s.Link)
	}

	header := fmt.Sprintf("📰 *Top stories* \\(%s\\)\n\n", markdown.EscapeV2(d.Provider))
	continuation := "📰 *Top stories \\(continue\\)*\n\n"

	var messages []string
	var current strings.Builder
	hasEntries := false

	current.WriteString(header)

	flush := func() {
		messages = append(messages, current.String())
		current.Reset()
		current.WriteString(continuation)
		hasEntries = false
	}

	for i, item := range d.Items {
		title := strings.TrimSpace(item.Title)

		heading := markdown.EscapeV2(title)
		if link := links[title]; link != "" {
			heading = markdown.Link(title, link)
		}

		entry := fmt.Sprintf("*%d\\.* %s\n%s\n\n",
			i+1, heading, markdown.EscapeV2(strings.TrimSpace(item.NewsSummary)))

		if hasEntries && current.Len()+len(entry) > telegramMessageMaxLength {
			flush()
		}

		for _, part := range splitEntry(entry, telegramMessageMaxLength-max(len(header), len(continuation))) {
			if hasEntries && current.Len()+len(part) > telegramMessageMaxLength {
				flush()
			}

			current.WriteString(part)
			hasEntries = true
		}
	}

	if hasEntries {
		messages = append(messages, current.String())
	}

	return messages
}

// splitEntry cuts s into chunks of at most limit bytes on rune boundaries,
// never directly after an escaping backslash.
func splitEntry(s string, limit int) []string {
	var parts []string

	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut > 0 && s[cut-1] == '\\' {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(s)
		}

		parts = append(parts, s[:cut])
		s = s[cut:]
	}

	return append(parts, s)
}
