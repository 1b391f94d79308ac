package main

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"

	"tonapi-telegram-bot/config"
	"tonapi-telegram-bot/internal/broadcast"
	"tonapi-telegram-bot/internal/channel"
	"tonapi-telegram-bot/internal/metrics"
	"tonapi-telegram-bot/internal/price"
	"tonapi-telegram-bot/internal/scheduler"
	"tonapi-telegram-bot/internal/telegram"
	"tonapi-telegram-bot/internal/window"
	"tonapi-telegram-bot/lib/translation"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	if err := config.Validate(); err != nil {
		notifyAdminOfStartupError(err)
		log.Fatalf("Invalid configuration: %v", err)
	}

	translation.Configure("locales", strings.ToLower(config.GetString("lang")))
	log.Debugf("Using language %s", translation.GetLanguage())

	botMetrics := metrics.NewBotMetrics(prometheus.DefaultRegisterer)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if err := bot.ResetWebhook(); err != nil {
		log.Errorf("Failed to reset webhook: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history := window.NewAggregator(window.Config{
		Window:     config.GetDuration("report_window"),
		MaxSamples: config.GetInt("history_max_samples"),
	})

	out := broadcast.New(bot, botMetrics, broadcast.Config{
		CelebrateEvery: config.GetInt("celebrate_every"),
		GIFURLs:        config.GetList("gif_urls"),
	})

	svc := channel.New(channel.Config{
		ChatID:       config.GetInt64("chat_id"),
		AdminChatID:  config.GetInt64("admin_chat_id"),
		Symbol:       config.GetString("token_symbol"),
		ReportWindow: config.GetDuration("report_window"),
		ReportChart:  config.GetBool("report_chart"),
	}, newPriceSource(), history, out, botMetrics)

	first := config.GetDuration("first_run_delay")
	jobs := scheduler.New()
	jobs.Every("price collector", config.GetDuration("collect_interval"), first, svc.CollectPrice)
	jobs.Every("price update", config.GetDuration("update_interval"), first, svc.PostPriceUpdate)
	jobs.Every("window report", config.GetDuration("report_interval"), first, svc.PostReport)
	jobs.Start(ctx)

	go handleUpdates(ctx, bot, svc, bot.GetUpdatesChannel())
	go func() {
		if err := launchMetricsAndHealthServer(ctx, config.GetInt("port")); err != nil {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	bot.StopUpdates()
	jobs.Wait()
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

func newPriceSource() price.Source {
	switch strings.ToLower(config.GetString("price_source")) {
	case "coinpaprika":
		return price.NewPaprika(price.PaprikaConfig{
			CoinID:    config.GetString("coinpaprika_coin_id"),
			APIProKey: config.GetString("api_pro_key"),
		})
	case "tonapi":
	default:
		log.Errorf("Unknown price source %q, using tonapi", config.GetString("price_source"))
	}
	return price.NewTonAPI(price.TonAPIConfig{
		BaseURL: config.GetString("tonapi_url"),
		APIKey:  config.GetString("tonapi_key"),
		Jetton:  config.GetString("jetton_address"),
	})
}

type messageSender interface {
	SendMessage(ctx context.Context, m telegram.Message) error
}

// notifyAdminOfStartupError makes a best-effort post to the admin chat when
// a bot token is available.
func notifyAdminOfStartupError(cause error) {
	adminChatID := config.GetInt64("admin_chat_id")
	token := config.GetString("telegram_bot_token")
	if adminChatID == 0 || token == "" {
		return
	}
	bot, err := telegram.NewBot(telegram.BotConfig{Token: token})
	if err != nil {
		log.Errorf("Failed to create bot for admin alert: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reportStartupError(ctx, bot, adminChatID, cause)
}

func reportStartupError(ctx context.Context, sender messageSender, adminChatID int64, cause error) {
	err := sender.SendMessage(ctx, telegram.Message{
		ChatID: adminChatID,
		Text:   "Error: " + html.EscapeString(cause.Error()),
	})
	if err != nil {
		log.Errorf("Failed to alert admin: %v", err)
	}
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, svc *channel.Service, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			log.Debug("Received non-message or non-command")
			continue
		}
		if !addressedTo(update.Message, bot.Bot.Self.UserName) {
			log.Debugf("Ignoring command for another bot: %s", update.Message.CommandWithAt())
			continue
		}
		handleCommand(ctx, bot, svc, update.Message)
	}
}

// addressedTo reports whether a command is unqualified or names username,
// as in /price@username.
func addressedTo(msg *tgbotapi.Message, username string) bool {
	cmd := msg.CommandWithAt()
	i := strings.Index(cmd, "@")
	if i < 0 {
		return true
	}
	return strings.EqualFold(cmd[i+1:], username)
}

func handleCommand(ctx context.Context, bot *telegram.Bot, svc *channel.Service, msg *tgbotapi.Message) {
	var pc panics.Catcher
	pc.Try(func() {
		text, ok := svc.Reply(ctx, msg.Command())
		if !ok {
			return
		}
		err := bot.SendMessage(ctx, telegram.Message{
			ChatID:    msg.Chat.ID,
			Text:      text,
			MessageID: msg.MessageID,
		})
		if err != nil {
			log.Errorf("Failed to send message: %v", err)
		}
	})
	if r := pc.Recovered(); r != nil {
		log.Errorf("Recovered from panic: %v\nStack trace: %s", r.Value, r.Stack)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Bot is running"))
}

func launchMetricsAndHealthServer(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/", healthCheckHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Launching metrics and health endpoint on :%d", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
