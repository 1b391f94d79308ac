package window

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidValue is returned by Record for NaN, infinite or negative prices.
	ErrInvalidValue = errors.New("sample value must be finite and non-negative")
	// ErrOutOfOrder is returned by Record when a timestamp precedes the newest sample.
	ErrOutOfOrder = errors.New("sample timestamp precedes the newest sample")
)

// Sample is one observed price at one point in time.
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// Config selects the retention policy.
// With MaxSamples > 0 the history is count-bounded and Window only filters
// summaries; otherwise samples older than Window are pruned on every insert.
type Config struct {
	Window     time.Duration
	MaxSamples int
}

// Aggregator keeps a pruned price history and summarises it over a trailing window.
// Record and Summary are safe to call from different goroutines.
type Aggregator struct {
	cfg     Config
	mu      sync.Mutex
	samples []Sample
}

// DefaultWindow is used when a Config bounds neither time nor count.
const DefaultWindow = 4 * time.Hour

// NewAggregator creates an empty aggregator.
// A config without any retention falls back to DefaultWindow.
func NewAggregator(cfg Config) *Aggregator {
	if cfg.MaxSamples < 0 {
		cfg.MaxSamples = 0
	}
	if cfg.Window < 0 {
		cfg.Window = 0
	}
	if cfg.MaxSamples == 0 && cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	return &Aggregator{cfg: cfg}
}

// Record appends a sample and prunes the history.
// Invalid samples are dropped and reported through the returned error.
func (a *Aggregator) Record(value float64, ts time.Time) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return errors.Wrapf(ErrInvalidValue, "value %v", value)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.samples); n > 0 && ts.Before(a.samples[n-1].Timestamp) {
		return errors.Wrapf(ErrOutOfOrder, "%s before %s", ts.Format(time.RFC3339), a.samples[n-1].Timestamp.Format(time.RFC3339))
	}

	a.samples = append(a.samples, Sample{Timestamp: ts, Value: value})
	a.prune(ts)
	return nil
}

func (a *Aggregator) prune(latest time.Time) {
	drop := 0
	if a.cfg.MaxSamples > 0 {
		if len(a.samples) > a.cfg.MaxSamples {
			drop = len(a.samples) - a.cfg.MaxSamples
		}
	} else if a.cfg.Window > 0 {
		cutoff := latest.Add(-a.cfg.Window)
		for drop < len(a.samples) && !a.samples[drop].Timestamp.After(cutoff) {
			drop++
		}
	}
	if drop == 0 {
		return
	}
	// copy so the backing array does not grow without bound
	a.samples = append(a.samples[:0], a.samples[drop:]...)
}

// Summary computes statistics over samples newer than now-Window.
// fallback stands in for Min and Max when the window is empty.
func (a *Aggregator) Summary(now time.Time, fallback Value) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	in := a.inWindow(now)
	if len(in) == 0 {
		return Summary{Min: fallback, Max: fallback}
	}

	lo, hi := in[0].Value, in[0].Value
	for _, s := range in[1:] {
		lo = math.Min(lo, s.Value)
		hi = math.Max(hi, s.Value)
	}

	oldest, latest := in[0].Value, in[len(in)-1].Value
	sum := Summary{
		Count:  len(in),
		Oldest: Some(oldest),
		Latest: Some(latest),
		Min:    Some(lo),
		Max:    Some(hi),
	}
	if len(in) >= 2 && oldest != 0 {
		sum.PercentChange = Some((latest - oldest) / oldest * 100)
	}
	return sum
}

// Samples returns a copy of the samples inside the window as of now.
func (a *Aggregator) Samples(now time.Time) []Sample {
	a.mu.Lock()
	defer a.mu.Unlock()

	in := a.inWindow(now)
	out := make([]Sample, len(in))
	copy(out, in)
	return out
}

// Len is the number of retained samples regardless of the summary window.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.samples)
}

func (a *Aggregator) inWindow(now time.Time) []Sample {
	if a.cfg.Window <= 0 {
		return a.samples
	}
	cutoff := now.Add(-a.cfg.Window)
	start := 0
	for start < len(a.samples) && !a.samples[start].Timestamp.After(cutoff) {
		start++
	}
	return a.samples[start:]
}
