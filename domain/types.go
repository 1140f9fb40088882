package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency a currency code
type Currency string

// Stable the reference currency. Exactly one side of a pair is always Stable.
const Stable Currency = "USDc"

// TickerValidity how long a ticker may be used before it must be refetched
const TickerValidity = 30 * time.Second

// FallbackCurrencies served when the ticker source cannot list its currencies
var FallbackCurrencies = []Currency{"MXN", "ARS", "BRL", "COP"}

// Ticker a bid/ask quote for one currency against Stable
type Ticker struct {
	Currency    Currency
	Bid         decimal.Decimal
	Ask         decimal.Decimal
	LastUpdated time.Time
}

// Fresh reports whether the ticker is still within TickerValidity at now
func (t Ticker) Fresh(now time.Time) bool {
	return now.Sub(t.LastUpdated) < TickerValidity
}

// Tickers maps a currency code to its latest ticker
type Tickers map[Currency]Ticker

// Merge returns the union of t and newer, entries in newer overwriting those in t.
// Neither map is modified.
func (t Tickers) Merge(newer []Ticker) Tickers {
	merged := make(Tickers, len(t)+len(newer))
	for k, v := range t {
		merged[k] = v
	}
	for _, v := range newer {
		merged[v.Currency] = v
	}
	return merged
}
