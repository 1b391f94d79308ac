package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBotMetrics(t *testing.T) {
	m := NewBotMetrics(prometheus.NewRegistry())

	m.MessageSent(-100)
	m.MessageSent(-100)
	m.AnimationSent(-100)
	m.DeliveryFailed("message")
	m.FetchDone("tonapi", "ok")
	m.FetchDone("tonapi", "rate_limited")
	m.SampleRecorded(7)
	m.SampleRejected()
	m.CommandProcessed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesSent))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesPerChannel.WithLabelValues("-100")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnimationsSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("tonapi", "rate_limited")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.WindowSamples))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedSamples))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsProcessed))
}
