package price

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PaprikaConfig configures the CoinPaprika ticker source
type PaprikaConfig struct {
	CoinID    string
	APIProKey string
	Timeout   time.Duration
}

// Paprika reads the USD quote of one coin from CoinPaprika
type Paprika struct {
	coinID string
	client *coinpaprika.Client
}

// NewPaprika creates a CoinPaprika source
func NewPaprika(cfg PaprikaConfig) *Paprika {
	return newPaprika(cfg, http.DefaultTransport)
}

func newPaprika(cfg PaprikaConfig, rt http.RoundTripper) *Paprika {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &statusTransport{next: rt},
	}

	var client *coinpaprika.Client
	if cfg.APIProKey != "" {
		client = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(cfg.APIProKey))
	} else {
		client = coinpaprika.NewClient(httpClient)
	}
	return &Paprika{coinID: cfg.CoinID, client: client}
}

func (p *Paprika) Name() string {
	return "coinpaprika"
}

// Fetch gets the current ticker. The client has no context support, so ctx
// is only checked before the call.
func (p *Paprika) Fetch(ctx context.Context) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, p.fail(NetworkUnreachable, 0, err)
	}

	ticker, err := p.client.Tickers.GetByID(p.coinID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return Quote{}, p.classify(err)
	}
	log.Debugf("coinpaprika ticker: %s", spew.Sdump(ticker))

	if ticker == nil || ticker.Quotes == nil {
		return Quote{}, p.fail(MalformedResponse, 0, errors.Errorf("no quotes for %s", p.coinID))
	}
	usd, ok := ticker.Quotes["USD"]
	if !ok || usd.Price == nil {
		return Quote{}, p.fail(MalformedResponse, 0, errors.New("USD price missing"))
	}

	quote := Quote{USD: *usd.Price, FetchedAt: time.Now()}
	if usd.Volume24h != nil {
		quote.Volume24h, quote.HasVolume = *usd.Volume24h, true
	}
	return quote, nil
}

func (p *Paprika) classify(err error) *FetchError {
	var status *statusError
	if errors.As(err, &status) {
		if status.code == http.StatusTooManyRequests {
			return p.fail(RateLimited, status.code, err)
		}
		return p.fail(UpstreamError, status.code, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, errMalformedBody) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return p.fail(MalformedResponse, 0, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return p.fail(NetworkUnreachable, 0, err)
	}
	return p.fail(UpstreamError, 0, err)
}

func (p *Paprika) fail(kind ErrorKind, code int, err error) *FetchError {
	return &FetchError{Source: p.Name(), Kind: kind, Code: code, Err: err}
}

var errMalformedBody = errors.New("response body is not JSON")

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.code)
}

// statusTransport turns non-200 responses and non-JSON bodies into typed
// errors, which http.Client hands back wrapped in *url.Error.
type statusTransport struct {
	next http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errMalformedBody
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}
