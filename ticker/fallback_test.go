package ticker

import (
	"context"
	"errors"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"

	"go-currency-exchange/domain"
)

func TestFallbackService(t *testing.T) {
	s := NewFallbackService(log.NewNopLogger(), &mock{err: errors.New("down")})

	currencies, err := s.Currencies(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, domain.FallbackCurrencies, currencies)

	tickers, err := s.Tickers(context.Background(), []domain.Currency{"MXN"})
	assert.NoError(t, err)
	assert.Empty(t, tickers)
}

func TestFallbackService_PassesThrough(t *testing.T) {
	s := NewFallbackService(log.NewNopLogger(), &mock{})

	currencies, err := s.Currencies(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []domain.Currency{"MXN"}, currencies)

	tickers, err := s.Tickers(context.Background(), []domain.Currency{"MXN", "COP"})
	assert.NoError(t, err)
	assert.Len(t, tickers, 2)
}

func TestLoggingService(t *testing.T) {
	var logged []interface{}
	logger := log.LoggerFunc(func(keyvals ...interface{}) error {
		logged = append(logged, keyvals...)
		return nil
	})
	s := NewLoggingService(logger, &mock{})

	_, err := s.Tickers(context.Background(), []domain.Currency{"MXN"})

	assert.NoError(t, err)
	assert.Contains(t, logged, "tickers")
}
