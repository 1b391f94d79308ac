package channel

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"tonapi-telegram-bot/internal/broadcast"
	"tonapi-telegram-bot/internal/price"
	"tonapi-telegram-bot/internal/report"
	"tonapi-telegram-bot/internal/window"
	"tonapi-telegram-bot/lib/translation"
)

// Config of the channel jobs
type Config struct {
	ChatID       int64
	AdminChatID  int64 // 0 disables admin alerts
	Symbol       string
	ReportWindow time.Duration
	ReportChart  bool
}

// Observer is told about fetches, samples and commands
type Observer interface {
	FetchDone(source, outcome string)
	SampleRecorded(retained int)
	SampleRejected()
	CommandProcessed()
}

// Service owns the price window and runs the channel jobs
type Service struct {
	cfg      Config
	source   price.Source
	window   *window.Aggregator
	out      *broadcast.Broadcaster
	observer Observer
	now      func() time.Time
}

// New wires a Service. observer may be nil.
func New(cfg Config, source price.Source, agg *window.Aggregator, out *broadcast.Broadcaster, observer Observer) *Service {
	return &Service{
		cfg:      cfg,
		source:   source,
		window:   agg,
		out:      out,
		observer: observer,
		now:      time.Now,
	}
}

// CollectPrice records the current price into the window.
func (s *Service) CollectPrice(ctx context.Context) {
	quote, err := s.fetch(ctx)
	if err != nil {
		log.Errorf("❌ Failed to collect price: %v", err)
		s.alertAdmin(ctx, err)
		return
	}

	if err := s.window.Record(quote.USD, s.now()); err != nil {
		log.Errorf("❌ Dropped price sample: %v", err)
		if s.observer != nil {
			s.observer.SampleRejected()
		}
		return
	}
	if s.observer != nil {
		s.observer.SampleRecorded(s.window.Len())
	}
	log.Debugf("✅ price sample recorded: %f", quote.USD)
}

// PostPriceUpdate posts the current price, or the fetch error, to the channel.
func (s *Service) PostPriceUpdate(ctx context.Context) {
	quote, err := s.fetch(ctx)
	if err != nil {
		log.Errorf("❌ Failed to fetch price for update: %v", err)
		s.alertAdmin(ctx, err)
		s.out.Post(ctx, s.cfg.ChatID, report.FetchFailed(err), false)
		return
	}
	s.out.Post(ctx, s.cfg.ChatID, report.PriceUpdate(s.cfg.Symbol, quote), true)
}

// PostReport posts the rolling window report to the channel.
func (s *Service) PostReport(ctx context.Context) {
	quote, err := s.fetch(ctx)
	if err != nil {
		log.Errorf("❌ Failed to fetch price for report: %v", err)
		s.alertAdmin(ctx, err)
		s.out.Post(ctx, s.cfg.ChatID, report.ReportUnavailable(), false)
		return
	}

	now := s.now()
	text := report.Report(s.cfg.ReportWindow, s.window.Summary(now, window.Some(quote.USD)))

	if s.cfg.ReportChart {
		if png, ok := s.chart(now); ok {
			s.out.PostPhoto(ctx, s.cfg.ChatID, png, text)
			return
		}
	}
	s.out.Post(ctx, s.cfg.ChatID, text, true)
}

// Reply answers a bot command; ok is false for unknown commands.
func (s *Service) Reply(ctx context.Context, command string) (string, bool) {
	var text string
	switch strings.ToLower(command) {
	case "price", "p":
		quote, err := s.fetch(ctx)
		if err != nil {
			text = report.FetchFailed(err)
			break
		}
		text = report.PriceUpdate(s.cfg.Symbol, quote)
	case "report", "r":
		fallback := window.None()
		if quote, err := s.fetch(ctx); err == nil {
			fallback = window.Some(quote.USD)
		}
		text = report.Report(s.cfg.ReportWindow, s.window.Summary(s.now(), fallback))
	case "help", "start":
		text = translation.Translate("/price - current price\n/report - price report for the last window")
	default:
		return "", false
	}

	if s.observer != nil {
		s.observer.CommandProcessed()
	}
	return text, true
}

func (s *Service) fetch(ctx context.Context) (price.Quote, error) {
	quote, err := s.source.Fetch(ctx)
	if s.observer != nil {
		s.observer.FetchDone(s.source.Name(), outcome(err))
	}
	return quote, err
}

func (s *Service) chart(now time.Time) ([]byte, bool) {
	samples := s.window.Samples(now)
	if len(samples) < 2 {
		return nil, false
	}
	png, err := report.Chart("$"+s.cfg.Symbol+" "+report.Title(s.cfg.ReportWindow), samples)
	if err != nil {
		log.Errorf("❌ Failed to render chart: %v", err)
		return nil, false
	}
	return png, true
}

func (s *Service) alertAdmin(ctx context.Context, err error) {
	if s.cfg.AdminChatID == 0 {
		return
	}
	s.out.Post(ctx, s.cfg.AdminChatID, report.FetchFailed(err), false)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *price.FetchError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return "unknown"
}
