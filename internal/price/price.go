package price

import (
	"context"
	"fmt"
	"time"
)

// Quote is a successfully fetched token price
type Quote struct {
	USD       float64
	TON       float64
	HasTON    bool
	Volume24h float64
	HasVolume bool
	FetchedAt time.Time
}

// Source fetches the current token price
type Source interface {
	Name() string
	Fetch(ctx context.Context) (Quote, error)
}

// ErrorKind classifies a failed fetch
type ErrorKind int

const (
	NetworkUnreachable ErrorKind = iota
	RateLimited
	MalformedResponse
	UpstreamError
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkUnreachable:
		return "network_unreachable"
	case RateLimited:
		return "rate_limited"
	case MalformedResponse:
		return "malformed_response"
	case UpstreamError:
		return "upstream_error"
	}
	return "unknown"
}

// FetchError is the only error type returned by Source implementations
type FetchError struct {
	Source string
	Kind   ErrorKind
	Code   int // HTTP status for RateLimited and UpstreamError
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Kind)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
