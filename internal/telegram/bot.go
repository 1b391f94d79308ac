package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
	}, nil
}

// ResetWebhook removes a registered webhook so long polling can receive updates
func (b *Bot) ResetWebhook() error {
	info, err := b.Bot.GetWebhookInfo()
	if err != nil {
		return errors.Wrap(err, "could not get webhook info")
	}
	if !info.IsSet() {
		return nil
	}

	log.Infof("deleting webhook %s", info.URL)
	_, err = b.Bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true})
	return errors.Wrap(err, "could not delete webhook")
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

// StopUpdates stops long polling
func (b *Bot) StopUpdates() {
	b.Bot.StopReceivingUpdates()
}

// SendMessage sends an HTML formatted telegram message
func (b *Bot) SendMessage(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to %d", m.ChatID)
}

// SendAnimation sends a GIF by URL
func (b *Bot) SendAnimation(ctx context.Context, chatID int64, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := b.Bot.Send(tgbotapi.NewAnimation(chatID, tgbotapi.FileURL(url)))
	return errors.Wrapf(err, "could not send animation to %d", chatID)
}

// SendPhoto sends a PNG with an HTML caption
func (b *Bot) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  "chart.png",
		Bytes: png,
	})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	_, err := b.Bot.Send(photo)
	return errors.Wrapf(err, "could not send photo to %d", chatID)
}
