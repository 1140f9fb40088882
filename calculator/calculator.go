// Package calculator keeps the two amounts of a USDc currency pair consistent.
//
// Every operation takes the prior State and the known tickers and returns a new
// State. Nothing here blocks, logs or fails: unusable input produces empty amounts.
package calculator

import (
	"github.com/shopspring/decimal"

	"go-currency-exchange/domain"
)

// State of the calculator. Exactly one of BaseCurrency and QuoteCurrency is
// domain.Stable and FromStable is true iff it is the base.
type State struct {
	BaseCurrency  domain.Currency
	QuoteCurrency domain.Currency
	BaseAmount    string
	QuoteAmount   string

	// FromStable the stable currency is the base, i.e. the user is selling USDc
	FromStable bool

	// Rate applied to the pair, invalid until a ticker for the non-stable side is known
	Rate decimal.NullDecimal
}

// New returns the initial state: USDc to quote, no amounts, no rate.
func New(quote domain.Currency) State {
	return State{
		BaseCurrency:  domain.Stable,
		QuoteCurrency: quote,
		FromStable:    true,
	}
}

// TickerCurrency is the non-stable side of the pair, the key its ticker is cached under.
func (s State) TickerCurrency() domain.Currency {
	if s.FromStable {
		return s.QuoteCurrency
	}
	return s.BaseCurrency
}

// StableAmount is the amount on whichever side currently holds the stable currency.
func (s State) StableAmount() string {
	if s.FromStable {
		return s.BaseAmount
	}
	return s.QuoteAmount
}

// RateFor selects the rate for a direction: bid when converting from the stable
// currency, ask when converting into it.
func RateFor(currency domain.Currency, fromStable bool, tickers domain.Tickers) decimal.NullDecimal {
	ticker, ok := tickers[currency]
	if !ok {
		return decimal.NullDecimal{}
	}
	if fromStable {
		return decimal.NewNullDecimal(ticker.Bid)
	}
	return decimal.NewNullDecimal(ticker.Ask)
}

// SetBaseCurrency puts currency in the base slot. The stable amount is kept and the
// other amount recomputed with the newly applicable rate.
func SetBaseCurrency(s State, currency domain.Currency, tickers domain.Tickers) State {
	next := s
	next.BaseCurrency = currency
	if currency == domain.Stable {
		next.QuoteCurrency = s.TickerCurrency()
	} else {
		next.QuoteCurrency = domain.Stable
	}
	next.FromStable = currency == domain.Stable
	return fromStableAmount(next, s.StableAmount(), tickers)
}

// SetQuoteCurrency puts currency in the quote slot, see SetBaseCurrency.
func SetQuoteCurrency(s State, currency domain.Currency, tickers domain.Tickers) State {
	next := s
	next.QuoteCurrency = currency
	if currency == domain.Stable {
		next.BaseCurrency = s.TickerCurrency()
	} else {
		next.BaseCurrency = domain.Stable
	}
	next.FromStable = next.BaseCurrency == domain.Stable
	return fromStableAmount(next, s.StableAmount(), tickers)
}

// SetBaseAmount replaces the base amount and derives the quote amount from it.
func SetBaseAmount(s State, amount string, tickers domain.Tickers) State {
	next := s
	next.Rate = RateFor(s.TickerCurrency(), s.FromStable, tickers)
	next.BaseAmount = amount
	if s.FromStable {
		next.QuoteAmount = Multiply(amount, next.Rate)
	} else {
		next.QuoteAmount = Divide(amount, next.Rate)
	}
	return next
}

// SetQuoteAmount replaces the quote amount and derives the base amount from it.
func SetQuoteAmount(s State, amount string, tickers domain.Tickers) State {
	next := s
	next.Rate = RateFor(s.TickerCurrency(), s.FromStable, tickers)
	next.QuoteAmount = amount
	if s.FromStable {
		next.BaseAmount = Divide(amount, next.Rate)
	} else {
		next.BaseAmount = Multiply(amount, next.Rate)
	}
	return next
}

// Swap exchanges base and quote. The stable amount moves with its currency and
// the other side is recomputed, switching between bid and ask.
func Swap(s State, tickers domain.Tickers) State {
	next := s
	next.BaseCurrency, next.QuoteCurrency = s.QuoteCurrency, s.BaseCurrency
	next.FromStable = !s.FromStable
	return fromStableAmount(next, s.StableAmount(), tickers)
}

// Reprice recomputes rate and the non-stable amount, typically after new tickers arrived.
func Reprice(s State, tickers domain.Tickers) State {
	return fromStableAmount(s, s.StableAmount(), tickers)
}

// DisplayRate is x in "1 USDc = x currency" for the current direction.
// ok is false while no ticker for the pair is known.
func DisplayRate(s State, tickers domain.Tickers) (rate decimal.Decimal, currency domain.Currency, ok bool) {
	currency = s.TickerCurrency()
	r := RateFor(currency, s.FromStable, tickers)
	if !r.Valid {
		return decimal.Decimal{}, currency, false
	}
	return r.Decimal, currency, true
}

// fromStableAmount places stable on the stable side of s and derives the other side.
// The non-stable amount is always stable × rate, whichever slot it is in.
func fromStableAmount(s State, stable string, tickers domain.Tickers) State {
	s.Rate = RateFor(s.TickerCurrency(), s.FromStable, tickers)
	other := Multiply(stable, s.Rate)
	if s.FromStable {
		s.BaseAmount, s.QuoteAmount = stable, other
	} else {
		s.BaseAmount, s.QuoteAmount = other, stable
	}
	return s
}
