package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"go-currency-exchange/calculator"
	"go-currency-exchange/domain"
)

// ErrInvalidCurrency a currency code was empty
var ErrInvalidCurrency = errors.New("invalid currency")

// Status of the screen, for user feedback only
type Status string

const (
	// StatusIdle nothing is in flight
	StatusIdle Status = "idle"
	// StatusLoading market data is being fetched
	StatusLoading Status = "loading"
	// StatusError the last fetch failed, see Screen.Error
	StatusError Status = "error"
)

// Screen a snapshot of everything a user sees
type Screen struct {
	Status     Status
	Error      string
	Currencies []domain.Currency
	Calculator calculator.State
	Tickers    domain.Tickers
}

// Rate "1 USDc = Rate Currency"
type Rate struct {
	Rate     decimal.Decimal
	Currency domain.Currency
}

// Service a single calculator session. Each intent is applied as one transition
// and then the ticker of the non-stable currency is refreshed if it is stale.
//
// A non-nil error means the ticker source failed; the returned Screen is still
// current and carries the failure in Status and Error.
type Service interface {
	Screen(ctx context.Context) Screen
	DisplayRate(ctx context.Context) (Rate, bool)
	LoadCurrencies(ctx context.Context) (Screen, error)
	SetBaseCurrency(ctx context.Context, currency domain.Currency) (Screen, error)
	SetQuoteCurrency(ctx context.Context, currency domain.Currency) (Screen, error)
	SetBaseAmount(ctx context.Context, amount string) (Screen, error)
	SetQuoteAmount(ctx context.Context, amount string) (Screen, error)
	Swap(ctx context.Context) (Screen, error)
}

// TickerCache the market data a session reads. Implemented by *ticker.Cache.
type TickerCache interface {
	Currencies(ctx context.Context) ([]domain.Currency, error)
	Ensure(ctx context.Context, currency domain.Currency) (domain.Ticker, bool, error)
	Lookup(currency domain.Currency) (domain.Ticker, bool)
	Snapshot() domain.Tickers
}

// side of the pair an amount was typed into
type side int

const (
	stableSide side = iota
	baseSide
	quoteSide
)

type service struct {
	tickers TickerCache

	// lock serializes transitions of screen
	lock   sync.Mutex
	screen Screen

	// typed the amount to keep when a late ticker reprices the pair
	typed side
}

// NewService constructs a valid Service starting at USDc to the first fallback currency
func NewService(tickers TickerCache) Service {
	return &service{
		tickers: tickers,
		screen: Screen{
			Status:     StatusIdle,
			Calculator: calculator.New(domain.FallbackCurrencies[0]),
		},
	}
}

func (s *service) Screen(_ context.Context) Screen {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.snapshot()
}

func (s *service) DisplayRate(_ context.Context) (Rate, bool) {
	s.lock.Lock()
	state := s.screen.Calculator
	s.lock.Unlock()

	rate, currency, ok := calculator.DisplayRate(state, s.tickers.Snapshot())
	return Rate{Rate: rate, Currency: currency}, ok
}

// LoadCurrencies fetches the currency list and moves the pair onto its first
// non-stable currency.
func (s *service) LoadCurrencies(ctx context.Context) (Screen, error) {
	s.setLoading()

	currencies, err := s.tickers.Currencies(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load currencies: %w", err)
		return s.fail(err), err
	}

	var first domain.Currency
	for _, c := range currencies {
		if c != domain.Stable {
			first = c
			break
		}
	}

	s.apply(stableSide, func(state calculator.State, tickers domain.Tickers) calculator.State {
		s.screen.Currencies = currencies
		s.screen.Status = StatusIdle
		switch {
		case first == "":
			return state
		case state.FromStable:
			return calculator.SetQuoteCurrency(state, first, tickers)
		default:
			return calculator.SetBaseCurrency(state, first, tickers)
		}
	})

	if first == "" {
		return s.Screen(ctx), nil
	}
	return s.ensureTicker(ctx)
}

func (s *service) SetBaseCurrency(ctx context.Context, currency domain.Currency) (Screen, error) {
	if currency == "" {
		return s.Screen(ctx), ErrInvalidCurrency
	}
	s.apply(stableSide, func(state calculator.State, tickers domain.Tickers) calculator.State {
		return calculator.SetBaseCurrency(state, currency, tickers)
	})
	return s.ensureTicker(ctx)
}

func (s *service) SetQuoteCurrency(ctx context.Context, currency domain.Currency) (Screen, error) {
	if currency == "" {
		return s.Screen(ctx), ErrInvalidCurrency
	}
	s.apply(stableSide, func(state calculator.State, tickers domain.Tickers) calculator.State {
		return calculator.SetQuoteCurrency(state, currency, tickers)
	})
	return s.ensureTicker(ctx)
}

func (s *service) SetBaseAmount(ctx context.Context, amount string) (Screen, error) {
	s.apply(baseSide, func(state calculator.State, tickers domain.Tickers) calculator.State {
		return calculator.SetBaseAmount(state, amount, tickers)
	})
	return s.ensureTicker(ctx)
}

func (s *service) SetQuoteAmount(ctx context.Context, amount string) (Screen, error) {
	s.apply(quoteSide, func(state calculator.State, tickers domain.Tickers) calculator.State {
		return calculator.SetQuoteAmount(state, amount, tickers)
	})
	return s.ensureTicker(ctx)
}

func (s *service) Swap(ctx context.Context) (Screen, error) {
	s.apply(stableSide, calculator.Swap)
	return s.ensureTicker(ctx)
}

// ensureTicker refetches the ticker of the non-stable currency unless a fresh one
// is cached. The fetch runs outside the lock and its result reprices whatever the
// state is when it completes, keeping the amount the user typed last.
func (s *service) ensureTicker(ctx context.Context) (Screen, error) {
	s.lock.Lock()
	currency := s.screen.Calculator.TickerCurrency()
	s.lock.Unlock()

	// a fresh ticker was already used by the transition
	_, fresh := s.tickers.Lookup(currency)
	loaded := false
	if !fresh {
		s.setLoading()
		var err error
		_, loaded, err = s.tickers.Ensure(ctx, currency)
		if err != nil {
			err = fmt.Errorf("failed to load exchange rate: %w", err)
			return s.fail(err), err
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.screen.Status = StatusIdle
	s.screen.Error = ""
	// without a ticker for currency there is nothing to reprice with
	if loaded {
		s.screen.Calculator = s.reprice(s.screen.Calculator, s.tickers.Snapshot())
	}
	return s.snapshot(), nil
}

// reprice must be called holding lock
func (s *service) reprice(state calculator.State, tickers domain.Tickers) calculator.State {
	switch s.typed {
	case baseSide:
		return calculator.SetBaseAmount(state, state.BaseAmount, tickers)
	case quoteSide:
		return calculator.SetQuoteAmount(state, state.QuoteAmount, tickers)
	default:
		return calculator.Reprice(state, tickers)
	}
}

// apply runs one transition against the current state and tickers
func (s *service) apply(typed side, transition func(calculator.State, domain.Tickers) calculator.State) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.typed = typed
	s.screen.Calculator = transition(s.screen.Calculator, s.tickers.Snapshot())
}

func (s *service) setLoading() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.screen.Status = StatusLoading
	s.screen.Error = ""
}

func (s *service) fail(err error) Screen {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.screen.Status = StatusError
	s.screen.Error = err.Error()
	return s.snapshot()
}

// snapshot must be called holding lock
func (s *service) snapshot() Screen {
	screen := s.screen
	screen.Currencies = append([]domain.Currency(nil), s.screen.Currencies...)
	screen.Tickers = s.tickers.Snapshot()
	return screen
}
