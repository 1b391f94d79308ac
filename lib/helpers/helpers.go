package helpers

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// EscapeHTML escapes text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// FormatPriceUS prints a price with four decimals and comma thousand separators.
func FormatPriceUS(price float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.4f", price)
}

// FormatPercentage prints a signed percentage, e.g. +1.25%.
func FormatPercentage(pct float64) string {
	s := fmt.Sprintf("%+.2f", pct)
	// -0.00 reads as a loss
	if s == "-0.00" {
		s = "+0.00"
	}
	return s + "%"
}

// FormatVolumeUS prints a dollar volume with SI suffix, e.g. 1.25M.
func FormatVolumeUS(volume float64) string {
	if volume < 1000 {
		return humanize.CommafWithDigits(volume, 2)
	}
	value, prefix := humanize.ComputeSI(volume)
	return strings.TrimSpace(humanize.FtoaWithDigits(value, 2) + prefix)
}
