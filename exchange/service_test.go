package exchange

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-currency-exchange/domain"
	"go-currency-exchange/ticker"
)

// mock ticker source quoting MXN at 20.50/20.60 and anything else at 1/2
type mock struct {
	calls      int32
	currencies []domain.Currency
	err        error
	stamp      time.Time

	// unquoted is left out of every ticker response
	unquoted domain.Currency
}

func (m *mock) Currencies(_ context.Context) ([]domain.Currency, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.currencies, nil
}

func (m *mock) Tickers(_ context.Context, currencies []domain.Currency) ([]domain.Ticker, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	stamp := m.stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	var tickers []domain.Ticker
	for _, c := range currencies {
		if c == m.unquoted {
			continue
		}
		bid, ask := "1", "2"
		if c == "MXN" {
			bid, ask = "20.50", "20.60"
		}
		tickers = append(tickers, domain.Ticker{
			Currency:    c,
			Bid:         decimal.RequireFromString(bid),
			Ask:         decimal.RequireFromString(ask),
			LastUpdated: stamp,
		})
	}
	return tickers, nil
}

func newTestService(m *mock) Service {
	return NewService(ticker.NewCache(log.NewNopLogger(), m))
}

func TestService_InitialScreen(t *testing.T) {
	s := newTestService(&mock{})

	screen := s.Screen(context.Background())

	assert.Equal(t, StatusIdle, screen.Status)
	assert.Equal(t, domain.Stable, screen.Calculator.BaseCurrency)
	assert.Equal(t, domain.Currency("MXN"), screen.Calculator.QuoteCurrency)
	assert.True(t, screen.Calculator.FromStable)
}

func TestService_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	m := &mock{}
	s := newTestService(m)

	screen, err := s.SetBaseAmount(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, screen.Status)
	assert.Equal(t, "100", screen.Calculator.BaseAmount)
	assert.Equal(t, "2050.00", screen.Calculator.QuoteAmount)
	assert.Equal(t, int32(1), m.calls)

	screen, err = s.Swap(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Currency("MXN"), screen.Calculator.BaseCurrency)
	assert.Equal(t, domain.Stable, screen.Calculator.QuoteCurrency)
	assert.False(t, screen.Calculator.FromStable)
	assert.Equal(t, "100", screen.Calculator.QuoteAmount)
	assert.Equal(t, "2060.00", screen.Calculator.BaseAmount)

	// ticker still fresh
	assert.Equal(t, int32(1), m.calls)

	rate, ok := s.DisplayRate(ctx)
	assert.True(t, ok)
	assert.Equal(t, "20.6", rate.Rate.String())
	assert.Equal(t, domain.Currency("MXN"), rate.Currency)
}

func TestService_TypedAmountSurvivesLateTicker(t *testing.T) {
	ctx := context.Background()
	// stale tickers force a refetch, and a reprice, after every intent
	s := newTestService(&mock{stamp: time.Now().Add(-time.Minute)})

	_, err := s.SetBaseCurrency(ctx, "MXN")
	require.NoError(t, err)

	// 100 MXN -> 4.85 USDc; repricing from the stable side would show 99.91 MXN
	screen, err := s.SetBaseAmount(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "100", screen.Calculator.BaseAmount)
	assert.Equal(t, "4.85", screen.Calculator.QuoteAmount)
}

func TestService_StaleTickerIsRefetched(t *testing.T) {
	ctx := context.Background()
	m := &mock{stamp: time.Now().Add(-time.Minute)}
	s := newTestService(m)

	_, err := s.SetBaseAmount(ctx, "1")
	require.NoError(t, err)
	_, err = s.SetBaseAmount(ctx, "2")
	require.NoError(t, err)

	assert.Equal(t, int32(2), m.calls)
}

func TestService_SetQuoteCurrency(t *testing.T) {
	ctx := context.Background()
	s := newTestService(&mock{})

	_, err := s.SetBaseAmount(ctx, "10")
	require.NoError(t, err)
	screen, err := s.SetQuoteCurrency(ctx, "BRL")
	require.NoError(t, err)

	assert.Equal(t, domain.Currency("BRL"), screen.Calculator.QuoteCurrency)
	assert.Equal(t, "10", screen.Calculator.BaseAmount)
	assert.Equal(t, "10.00", screen.Calculator.QuoteAmount)
	assert.Contains(t, screen.Tickers, domain.Currency("BRL"))
}

func TestService_InvalidCurrency(t *testing.T) {
	s := newTestService(&mock{})

	_, err := s.SetBaseCurrency(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = s.SetQuoteCurrency(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestService_LoadCurrencies(t *testing.T) {
	m := &mock{currencies: []domain.Currency{"USDc", "COP", "MXN"}}
	s := newTestService(m)

	screen, err := s.LoadCurrencies(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusIdle, screen.Status)
	assert.Equal(t, []domain.Currency{"USDc", "COP", "MXN"}, screen.Currencies)
	assert.Equal(t, domain.Stable, screen.Calculator.BaseCurrency)
	assert.Equal(t, domain.Currency("COP"), screen.Calculator.QuoteCurrency)
	assert.Contains(t, screen.Tickers, domain.Currency("COP"))
}

func TestService_LoadCurrenciesFailure(t *testing.T) {
	s := newTestService(&mock{err: errors.New("connection refused")})

	screen, err := s.LoadCurrencies(context.Background())

	assert.Error(t, err)
	assert.Equal(t, StatusError, screen.Status)
	assert.Equal(t, "failed to load currencies: connection refused", screen.Error)
}

func TestService_LoadCurrenciesWithFallback(t *testing.T) {
	m := &mock{err: errors.New("connection refused")}
	s := NewService(ticker.NewCache(log.NewNopLogger(), ticker.NewFallbackService(log.NewNopLogger(), m)))

	screen, err := s.LoadCurrencies(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusIdle, screen.Status)
	assert.Equal(t, domain.FallbackCurrencies, screen.Currencies)
	assert.Equal(t, domain.Currency("MXN"), screen.Calculator.QuoteCurrency)
	assert.False(t, screen.Calculator.Rate.Valid)
}

func TestService_TickerFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	m := &mock{}
	s := newTestService(m)
	_, err := s.SetBaseAmount(ctx, "100")
	require.NoError(t, err)

	m.err = errors.New("timeout")
	screen, err := s.SetQuoteCurrency(ctx, "ARS")

	assert.Error(t, err)
	assert.Equal(t, StatusError, screen.Status)
	assert.Contains(t, screen.Error, "failed to load exchange rate")
	assert.Equal(t, domain.Currency("ARS"), screen.Calculator.QuoteCurrency)
	assert.Equal(t, "100", screen.Calculator.BaseAmount)
	assert.Equal(t, "", screen.Calculator.QuoteAmount)

	// recovering clears the error
	m.err = nil
	screen, err = s.SetBaseAmount(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, screen.Status)
	assert.Empty(t, screen.Error)
	assert.Equal(t, "100.00", screen.Calculator.QuoteAmount)
}

func TestService_UnquotedCurrency(t *testing.T) {
	ctx := context.Background()
	m := &mock{unquoted: "XYZ"}
	s := newTestService(m)
	_, err := s.SetBaseAmount(ctx, "100")
	require.NoError(t, err)

	screen, err := s.SetQuoteCurrency(ctx, "XYZ")

	require.NoError(t, err)
	assert.Equal(t, StatusIdle, screen.Status)
	assert.Empty(t, screen.Error)
	assert.Equal(t, domain.Currency("XYZ"), screen.Calculator.QuoteCurrency)
	assert.Equal(t, "100", screen.Calculator.BaseAmount)
	assert.Equal(t, "", screen.Calculator.QuoteAmount)
	assert.False(t, screen.Calculator.Rate.Valid)
	assert.NotContains(t, screen.Tickers, domain.Currency("XYZ"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&m.calls))
}

func TestLoggingService(t *testing.T) {
	var logged []interface{}
	logger := log.LoggerFunc(func(keyvals ...interface{}) error {
		logged = keyvals
		return nil
	})
	s := NewLoggingService(logger, newTestService(&mock{}))

	_, err := s.SetBaseAmount(context.Background(), "100")

	require.NoError(t, err)
	assert.Equal(t, []interface{}{"method", "set_base_amount", "amount", "100"}, logged[:4])
	assert.Contains(t, logged, "2050.00")
}
