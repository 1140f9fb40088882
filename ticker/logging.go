package ticker

import (
	"context"
	"time"

	"github.com/go-kit/log"

	"go-currency-exchange/domain"
)

// loggingService decorates a ticker.Service with logging
type loggingService struct {
	next   Service
	logger log.Logger
}

// NewLoggingService return a new logging service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Currencies(ctx context.Context) (currencies []domain.Currency, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "currencies",
			"count", len(currencies),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Currencies(ctx)
}

func (s *loggingService) Tickers(ctx context.Context, currencies []domain.Currency) (tickers []domain.Ticker, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "tickers",
			"currencies", len(currencies),
			"tickers", len(tickers),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Tickers(ctx, currencies)
}
