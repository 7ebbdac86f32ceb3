package main

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const clipEllipsis = "..."

func clipCenter(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength || maxLength <= len(clipEllipsis) {
		return text
	}

	visible := maxLength - len(clipEllipsis)
	prefixLength := (visible + 1) / 2
	suffixLength := visible / 2

	return string(runes[:prefixLength]) + clipEllipsis + string(runes[len(runes)-suffixLength:])
}

func orderExpiryFormat(expiry time.Time, now time.Time) string {
	if !expiry.After(now) {
		return "expired " + humanize.RelTime(expiry, now, "ago", "from now")
	}

	remaining := strings.TrimSpace(humanize.RelTime(now, expiry, "", ""))
	if remaining == "now" {
		return "expires now"
	}
	return "expires in " + remaining
}

type DisplayValues struct {
	BitcoinFormatted string   `json:"bitcoinFormatted"`
	BitcoinSymbol    string   `json:"bitcoinSymbol"`
	FiatFormatted    string   `json:"fiatFormatted,omitempty"`
	FiatCode         Currency `json:"fiatCode,omitempty"`
}

type DisplayConverter interface {
	displayValues(sats int64) DisplayValues
}

type displayConverter struct {
	printer  *message.Printer
	rates    *RatesService
	currency Currency
}

func newDisplayConverter(rates *RatesService, currency Currency) *displayConverter {
	return &displayConverter{
		printer:  message.NewPrinter(language.English),
		rates:    rates,
		currency: currency,
	}
}

func (converter *displayConverter) displayValues(sats int64) DisplayValues {
	values := DisplayValues{
		BitcoinFormatted: converter.printer.Sprintf("%d", sats),
		BitcoinSymbol:    "sats",
	}
	if sats == 1 {
		values.BitcoinSymbol = "sat"
	}

	if converter.rates != nil && converter.rates.hasRate(converter.currency) {
		values.FiatFormatted = converter.printer.Sprintf("%.2f", converter.rates.satsToFiat(converter.currency, sats))
		values.FiatCode = converter.currency
	}

	return values
}
