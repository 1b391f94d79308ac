package report

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"tonapi-telegram-bot/internal/window"
	"tonapi-telegram-bot/lib/helpers"
)

var (
	seriesColor     = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	seriesFill      = drawing.Color{R: 0, G: 122, B: 255, A: 40}
	backgroundColor = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textColor       = drawing.Color{R: 200, G: 200, B: 200, A: 255}
)

// Chart renders the samples as a PNG line chart.
func Chart(title string, samples []window.Sample) ([]byte, error) {
	if len(samples) < 2 {
		return nil, errors.New("need at least two samples to draw a chart")
	}

	xs := make([]time.Time, 0, len(samples))
	ys := make([]float64, 0, len(samples))
	lo, hi := samples[0].Value, samples[0].Value
	for _, s := range samples {
		xs = append(xs, s.Timestamp)
		ys = append(ys, s.Value)
		if s.Value < lo {
			lo = s.Value
		}
		if s.Value > hi {
			hi = s.Value
		}
	}

	padding := (hi - lo) * 0.1
	if padding == 0 {
		padding = hi*0.01 + 0.0001
	}

	axisStyle := chart.Style{FontColor: textColor, StrokeColor: textColor}
	graph := chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: textColor},
		Width:      1200,
		Height:     500,
		Background: chart.Style{
			FillColor: backgroundColor,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: backgroundColor},
		XAxis: chart.XAxis{
			Style:          axisStyle,
			ValueFormatter: chart.TimeHourValueFormatter,
		},
		YAxis: chart.YAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: lo - padding, Max: hi + padding},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return "$" + helpers.FormatPriceUS(f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Style: chart.Style{
					StrokeColor: seriesColor,
					StrokeWidth: 2,
					FillColor:   seriesFill,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "could not render chart")
	}
	return buf.Bytes(), nil
}
