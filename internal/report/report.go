package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"tonapi-telegram-bot/internal/price"
	"tonapi-telegram-bot/internal/window"
	"tonapi-telegram-bot/lib/helpers"
	"tonapi-telegram-bot/lib/translation"
)

const notAvailable = "N/A"

// PriceUpdate formats the periodic price post.
func PriceUpdate(symbol string, q price.Quote) string {
	ton := notAvailable
	if q.HasTON {
		ton = helpers.FormatPriceUS(q.TON)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>🟣 $%s %s</b>\n", helpers.EscapeHTML(symbol), translation.Translate("Price:"))
	fmt.Fprintf(&b, "<b>🟢 USD: $%s</b>\n", helpers.FormatPriceUS(q.USD))
	fmt.Fprintf(&b, "<b>🔵 TON: %s TON</b>", ton)
	if q.HasVolume {
		fmt.Fprintf(&b, "\n<b>📊 %s $%s</b>", translation.Translate("24h Volume:"), helpers.FormatVolumeUS(q.Volume24h))
	}
	return b.String()
}

// Report formats the rolling window report.
func Report(span time.Duration, s window.Summary) string {
	change := notAvailable
	if pct, ok := s.PercentChange.Get(); ok {
		change = helpers.FormatPercentage(pct)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>🟣 %s</b>\n", Title(span))
	fmt.Fprintf(&b, "<b>🟢 %s</b> %s\n", translation.Translate("Price Change:"), change)
	fmt.Fprintf(&b, "<b>🔵 %s</b> %s\n", translation.Translate("Maximum Price:"), dollars(s.Max))
	fmt.Fprintf(&b, "<b>🔵 %s</b> %s\n", translation.Translate("Minimum Price:"), dollars(s.Min))
	fmt.Fprintf(&b, "<b>⚪ %s</b> %d", translation.Translate("Samples:"), s.Count)
	return b.String()
}

// Title names the report after its window, e.g. "4-Hour Report:".
func Title(span time.Duration) string {
	if span > 0 && span%time.Hour == 0 {
		return translation.Translate("%d-Hour Report:", int(span/time.Hour))
	}
	return translation.Translate("%s Report:", span.String())
}

// ReportUnavailable is posted when the live price for a report cannot be fetched.
func ReportUnavailable() string {
	return translation.Translate("Error: Unable to fetch data for report")
}

// FetchFailed describes a failed price fetch for the channel.
func FetchFailed(err error) string {
	var fe *price.FetchError
	if !errors.As(err, &fe) {
		return translation.Translate("Error: Failed to fetch price")
	}

	switch fe.Kind {
	case price.RateLimited:
		return translation.Translate("Error: Price API rate limit reached")
	case price.MalformedResponse:
		return translation.Translate("Error: Invalid %s response", fe.Source)
	case price.UpstreamError:
		return translation.Translate("Error: %s returned %d", fe.Source, fe.Code)
	}
	return translation.Translate("Error: Failed to fetch price")
}

func dollars(v window.Value) string {
	if f, ok := v.Get(); ok {
		return "$" + helpers.FormatPriceUS(f)
	}
	return notAvailable
}
