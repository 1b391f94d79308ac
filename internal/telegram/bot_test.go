package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu         sync.Mutex
	webhookURL string
	calls      []string
	dropped    string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	_ = r.ParseForm()

	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Price","username":"price_bot"}}`))
	case "getWebhookInfo":
		w.Write([]byte(`{"ok":true,"result":{"url":"` + f.webhookURL + `","has_custom_certificate":false,"pending_update_count":0}}`))
	case "deleteWebhook":
		f.mu.Lock()
		f.dropped = r.Form.Get("drop_pending_updates")
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func newTestBot(t *testing.T, api *fakeAPI) *Bot {
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := tgbotapi.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return &Bot{Bot: client}
}

func TestResetWebhook_DeletesWebhook(t *testing.T) {
	api := &fakeAPI{webhookURL: "https://example.com/hook"}
	bot := newTestBot(t, api)

	require.NoError(t, bot.ResetWebhook())

	assert.Equal(t, []string{"getMe", "getWebhookInfo", "deleteWebhook"}, api.calls)
	assert.Equal(t, "true", api.dropped)
}

func TestResetWebhook_NoWebhook(t *testing.T) {
	api := &fakeAPI{}
	bot := newTestBot(t, api)

	require.NoError(t, bot.ResetWebhook())

	assert.Equal(t, []string{"getMe", "getWebhookInfo"}, api.calls)
}
