package broadcast

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tonapi-telegram-bot/internal/telegram"
)

// Notifier delivers messages to a chat
type Notifier interface {
	SendMessage(ctx context.Context, m telegram.Message) error
	SendAnimation(ctx context.Context, chatID int64, url string) error
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error
}

// Observer receives delivery outcomes, e.g. for metrics
type Observer interface {
	MessageSent(chatID int64)
	AnimationSent(chatID int64)
	DeliveryFailed(kind string)
}

// Config tunes the celebration animation
type Config struct {
	CelebrateEvery int
	GIFURLs        []string
}

// Broadcaster posts to chats and sends a random GIF every N counted posts.
// Delivery is best effort: failures are logged and never retried.
type Broadcaster struct {
	notifier Notifier
	observer Observer
	cfg      Config

	mu       sync.Mutex
	counters map[int64]int
	rnd      *rand.Rand
}

// New creates a Broadcaster. observer may be nil.
func New(n Notifier, observer Observer, cfg Config) *Broadcaster {
	if cfg.CelebrateEvery > 0 && len(cfg.GIFURLs) == 0 {
		log.Errorf("celebration every %d posts is enabled but GIF_URLS is empty, no animations will be sent", cfg.CelebrateEvery)
	}
	return &Broadcaster{
		notifier: n,
		observer: observer,
		cfg:      cfg,
		counters: make(map[int64]int),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Post sends text to chatID. Only successful countable posts advance the counter.
func (b *Broadcaster) Post(ctx context.Context, chatID int64, text string, countable bool) bool {
	err := b.notifier.SendMessage(ctx, telegram.Message{ChatID: chatID, Text: text})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
		b.failed("message")
		return false
	}
	b.sent(chatID)

	if countable {
		b.count(ctx, chatID)
	}
	return true
}

// PostPhoto sends a captioned image and counts it like a message.
func (b *Broadcaster) PostPhoto(ctx context.Context, chatID int64, png []byte, caption string) bool {
	err := b.notifier.SendPhoto(ctx, chatID, png, caption)
	if err != nil {
		log.Errorf("Failed to send photo: %v", err)
		b.failed("photo")
		return false
	}
	b.sent(chatID)
	b.count(ctx, chatID)
	return true
}

// Count returns the current counter of chatID.
func (b *Broadcaster) Count(chatID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters[chatID]
}

func (b *Broadcaster) count(ctx context.Context, chatID int64) {
	if b.cfg.CelebrateEvery <= 0 {
		return
	}

	b.mu.Lock()
	b.counters[chatID]++
	due := b.counters[chatID] >= b.cfg.CelebrateEvery
	var gif string
	if due {
		b.counters[chatID] = 0
		if len(b.cfg.GIFURLs) > 0 {
			gif = b.cfg.GIFURLs[b.rnd.Intn(len(b.cfg.GIFURLs))]
		}
	}
	b.mu.Unlock()

	if gif == "" {
		return
	}
	if err := b.notifier.SendAnimation(ctx, chatID, gif); err != nil {
		log.Errorf("Failed to send animation: %v", err)
		b.failed("animation")
		return
	}
	log.Debugf("celebration sent to %d", chatID)
	if b.observer != nil {
		b.observer.AnimationSent(chatID)
	}
}

func (b *Broadcaster) sent(chatID int64) {
	if b.observer != nil {
		b.observer.MessageSent(chatID)
	}
}

func (b *Broadcaster) failed(kind string) {
	if b.observer != nil {
		b.observer.DeliveryFailed(kind)
	}
}
