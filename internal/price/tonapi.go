package price

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TonAPIConfig configures the TonAPI rates source
type TonAPIConfig struct {
	BaseURL string
	APIKey  string
	Jetton  string
	Timeout time.Duration
}

// TonAPI fetches jetton rates from tonapi.io
type TonAPI struct {
	cfg    TonAPIConfig
	client *http.Client
}

type ratesResponse struct {
	Rates map[string]struct {
		Prices map[string]float64 `json:"prices"`
	} `json:"rates"`
}

// NewTonAPI creates a TonAPI source
func NewTonAPI(cfg TonAPIConfig) *TonAPI {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &TonAPI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (t *TonAPI) Name() string {
	return "tonapi"
}

// Fetch requests the USD and TON rate of the configured jetton
func (t *TonAPI) Fetch(ctx context.Context) (Quote, error) {
	q := url.Values{}
	q.Set("tokens", t.cfg.Jetton)
	q.Set("currencies", "ton,usd")
	endpoint := t.cfg.BaseURL + "/v2/rates?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, t.fail(NetworkUnreachable, 0, errors.Wrap(err, "could not build request"))
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return Quote{}, t.fail(NetworkUnreachable, 0, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Quote{}, t.fail(RateLimited, resp.StatusCode, nil)
	case resp.StatusCode != http.StatusOK:
		return Quote{}, t.fail(UpstreamError, resp.StatusCode, nil)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, t.fail(MalformedResponse, 0, errors.Wrap(err, "could not decode rates"))
	}
	log.Debugf("tonapi rates: %s", spew.Sdump(body))

	rate, ok := body.Rates[t.cfg.Jetton]
	if !ok {
		return Quote{}, t.fail(MalformedResponse, 0, errors.Errorf("no rates for %s", t.cfg.Jetton))
	}
	usd, ok := rate.Prices["USD"]
	if !ok {
		return Quote{}, t.fail(MalformedResponse, 0, errors.New("USD price missing"))
	}

	quote := Quote{USD: usd, FetchedAt: time.Now()}
	quote.TON, quote.HasTON = rate.Prices["TON"]
	return quote, nil
}

func (t *TonAPI) fail(kind ErrorKind, code int, err error) *FetchError {
	return &FetchError{Source: t.Name(), Kind: kind, Code: code, Err: err}
}
