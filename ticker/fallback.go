package ticker

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"go-currency-exchange/domain"
)

// fallbackService decorates a ticker.Service so callers always get a usable answer.
// Failures are logged and replaced by domain.FallbackCurrencies or an empty ticker list.
type fallbackService struct {
	next   Service
	logger log.Logger
}

// NewFallbackService returns a Service that never fails
func NewFallbackService(logger log.Logger, s Service) Service {
	return &fallbackService{
		next:   s,
		logger: logger,
	}
}

func (s *fallbackService) Currencies(ctx context.Context) ([]domain.Currency, error) {
	currencies, err := s.next.Currencies(ctx)
	if err != nil {
		level.Warn(s.logger).Log("msg", "using fallback currencies", "err", err)
		fallback := make([]domain.Currency, len(domain.FallbackCurrencies))
		copy(fallback, domain.FallbackCurrencies)
		return fallback, nil
	}
	return currencies, nil
}

func (s *fallbackService) Tickers(ctx context.Context, currencies []domain.Currency) ([]domain.Ticker, error) {
	tickers, err := s.next.Tickers(ctx, currencies)
	if err != nil {
		level.Warn(s.logger).Log("msg", "no tickers loaded", "currencies", len(currencies), "err", err)
		return []domain.Ticker{}, nil
	}
	return tickers, nil
}
