package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonapi-telegram-bot/internal/broadcast"
	"tonapi-telegram-bot/internal/price"
	"tonapi-telegram-bot/internal/telegram"
	"tonapi-telegram-bot/internal/window"
)

const (
	chatID  = int64(-1001)
	adminID = int64(42)
)

type stubSource struct {
	quotes []price.Quote
	errs   []error
	calls  int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(context.Context) (price.Quote, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return price.Quote{}, s.errs[i]
	}
	if i < len(s.quotes) {
		return s.quotes[i], nil
	}
	return s.quotes[len(s.quotes)-1], nil
}

type recorder struct {
	mu         sync.Mutex
	messages   []telegram.Message
	photos     []string
	animations int
}

func (r *recorder) SendMessage(_ context.Context, m telegram.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *recorder) SendAnimation(context.Context, int64, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.animations++
	return nil
}

func (r *recorder) SendPhoto(_ context.Context, _ int64, _ []byte, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photos = append(r.photos, caption)
	return nil
}

type observer struct {
	outcomes []string
	rejected int
	retained int
	commands int
}

func (o *observer) FetchDone(_, outcome string) { o.outcomes = append(o.outcomes, outcome) }
func (o *observer) SampleRecorded(n int)        { o.retained = n }
func (o *observer) SampleRejected()             { o.rejected++ }
func (o *observer) CommandProcessed()           { o.commands++ }

type fixture struct {
	svc *Service
	src *stubSource
	out *recorder
	obs *observer
	agg *window.Aggregator
	now time.Time
}

func newFixture(cfg Config, src *stubSource) *fixture {
	f := &fixture{
		src: src,
		out: &recorder{},
		obs: &observer{},
		agg: window.NewAggregator(window.Config{Window: 4 * time.Hour}),
		now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	b := broadcast.New(f.out, nil, broadcast.Config{CelebrateEvery: 2, GIFURLs: []string{"g"}})
	cfg.ChatID = chatID
	cfg.Symbol = "TAC"
	cfg.ReportWindow = 4 * time.Hour
	f.svc = New(cfg, src, f.agg, b, f.obs)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestCollectPrice_RecordsSamples(t *testing.T) {
	f := newFixture(Config{}, &stubSource{quotes: []price.Quote{{USD: 10}, {USD: 12}, {USD: 9}}})

	for i := 0; i < 3; i++ {
		f.svc.CollectPrice(context.Background())
		f.advance(time.Minute)
	}

	assert.Equal(t, 3, f.agg.Len())
	assert.Equal(t, 3, f.obs.retained)
	assert.Equal(t, []string{"ok", "ok", "ok"}, f.obs.outcomes)
	assert.Empty(t, f.out.messages)
}

func TestCollectPrice_FailureAlertsAdmin(t *testing.T) {
	fail := &price.FetchError{Source: "stub", Kind: price.NetworkUnreachable}
	f := newFixture(Config{AdminChatID: adminID}, &stubSource{errs: []error{fail}, quotes: []price.Quote{{USD: 1}}})

	f.svc.CollectPrice(context.Background())

	assert.Equal(t, 0, f.agg.Len())
	require.Len(t, f.out.messages, 1)
	assert.Equal(t, adminID, f.out.messages[0].ChatID)
	assert.Equal(t, "Error: Failed to fetch price", f.out.messages[0].Text)
	assert.Equal(t, []string{"network_unreachable"}, f.obs.outcomes)
}

func TestCollectPrice_RejectsNegative(t *testing.T) {
	f := newFixture(Config{}, &stubSource{quotes: []price.Quote{{USD: -1}}})

	f.svc.CollectPrice(context.Background())

	assert.Equal(t, 0, f.agg.Len())
	assert.Equal(t, 1, f.obs.rejected)
}

func TestPostPriceUpdate(t *testing.T) {
	fail := &price.FetchError{Source: "tonapi", Kind: price.UpstreamError, Code: 500}
	f := newFixture(Config{}, &stubSource{
		errs:   []error{nil, fail, nil},
		quotes: []price.Quote{{USD: 0.5, TON: 0.1, HasTON: true}},
	})

	for i := 0; i < 3; i++ {
		f.svc.PostPriceUpdate(context.Background())
	}

	require.Len(t, f.out.messages, 3)
	assert.Contains(t, f.out.messages[0].Text, "USD: $0.5000")
	assert.Equal(t, "Error: tonapi returned 500", f.out.messages[1].Text)
	// the error post is not counted, so the GIF follows the third post
	assert.Equal(t, 1, f.out.animations)
}

func TestPostReport(t *testing.T) {
	f := newFixture(Config{}, &stubSource{quotes: []price.Quote{{USD: 10}, {USD: 12}, {USD: 9}, {USD: 9.5}}})
	for i := 0; i < 3; i++ {
		f.svc.CollectPrice(context.Background())
		f.advance(time.Minute)
	}

	f.svc.PostReport(context.Background())

	require.Len(t, f.out.messages, 1)
	msg := f.out.messages[0]
	assert.Equal(t, chatID, msg.ChatID)
	assert.Contains(t, msg.Text, "4-Hour Report:")
	assert.Contains(t, msg.Text, "Price Change:</b> -10.00%")
	assert.Contains(t, msg.Text, "Maximum Price:</b> $12.0000")
	assert.Contains(t, msg.Text, "Minimum Price:</b> $9.0000")
}

func TestPostReport_EmptyWindowUsesLivePrice(t *testing.T) {
	f := newFixture(Config{}, &stubSource{quotes: []price.Quote{{USD: 5}}})

	f.svc.PostReport(context.Background())

	require.Len(t, f.out.messages, 1)
	assert.Contains(t, f.out.messages[0].Text, "Price Change:</b> N/A")
	assert.Contains(t, f.out.messages[0].Text, "Maximum Price:</b> $5.0000")
	assert.Contains(t, f.out.messages[0].Text, "Minimum Price:</b> $5.0000")
}

func TestPostReport_FetchFailure(t *testing.T) {
	fail := &price.FetchError{Source: "stub", Kind: price.RateLimited, Code: 429}
	f := newFixture(Config{}, &stubSource{errs: []error{fail}, quotes: []price.Quote{{USD: 1}}})

	f.svc.PostReport(context.Background())

	require.Len(t, f.out.messages, 1)
	assert.Equal(t, "Error: Unable to fetch data for report", f.out.messages[0].Text)
}

func TestPostReport_Chart(t *testing.T) {
	f := newFixture(Config{ReportChart: true}, &stubSource{quotes: []price.Quote{{USD: 1.1}, {USD: 1.3}, {USD: 1.2}}})
	f.svc.CollectPrice(context.Background())
	f.advance(30 * time.Minute)
	f.svc.CollectPrice(context.Background())

	f.svc.PostReport(context.Background())

	assert.Empty(t, f.out.messages)
	require.Len(t, f.out.photos, 1)
	assert.Contains(t, f.out.photos[0], "4-Hour Report:")
}

func TestReply(t *testing.T) {
	f := newFixture(Config{}, &stubSource{quotes: []price.Quote{{USD: 2}}})

	text, ok := f.svc.Reply(context.Background(), "price")
	require.True(t, ok)
	assert.Contains(t, text, "USD: $2.0000")

	text, ok = f.svc.Reply(context.Background(), "report")
	require.True(t, ok)
	assert.Contains(t, text, "Minimum Price:</b> $2.0000")

	_, ok = f.svc.Reply(context.Background(), "help")
	assert.True(t, ok)

	_, ok = f.svc.Reply(context.Background(), "alert")
	assert.False(t, ok)
	assert.Equal(t, 3, f.obs.commands)
}

func TestFailedFetchesAlertAdmin(t *testing.T) {
	fail := &price.FetchError{Source: "tonapi", Kind: price.UpstreamError, Code: 503}
	f := newFixture(Config{AdminChatID: adminID}, &stubSource{errs: []error{fail, fail}, quotes: []price.Quote{{USD: 1}}})

	f.svc.PostPriceUpdate(context.Background())
	f.svc.PostReport(context.Background())

	var admin, channel []string
	for _, m := range f.out.messages {
		if m.ChatID == adminID {
			admin = append(admin, m.Text)
		} else {
			channel = append(channel, m.Text)
		}
	}
	assert.Equal(t, []string{"Error: tonapi returned 503", "Error: tonapi returned 503"}, admin)
	assert.Equal(t, []string{"Error: tonapi returned 503", "Error: Unable to fetch data for report"}, channel)
}
