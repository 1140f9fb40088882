package exchange

import (
	"context"
	"time"

	"github.com/go-kit/log"

	"go-currency-exchange/domain"
)

// loggingService decorates an exchange.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Screen(ctx context.Context) Screen {
	return s.next.Screen(ctx)
}

func (s *loggingService) DisplayRate(ctx context.Context) (Rate, bool) {
	return s.next.DisplayRate(ctx)
}

func (s *loggingService) LoadCurrencies(ctx context.Context) (screen Screen, err error) {
	defer s.log(time.Now(), "load_currencies", &screen, &err)
	return s.next.LoadCurrencies(ctx)
}

func (s *loggingService) SetBaseCurrency(ctx context.Context, currency domain.Currency) (screen Screen, err error) {
	defer s.log(time.Now(), "set_base_currency", &screen, &err, "currency", currency)
	return s.next.SetBaseCurrency(ctx, currency)
}

func (s *loggingService) SetQuoteCurrency(ctx context.Context, currency domain.Currency) (screen Screen, err error) {
	defer s.log(time.Now(), "set_quote_currency", &screen, &err, "currency", currency)
	return s.next.SetQuoteCurrency(ctx, currency)
}

func (s *loggingService) SetBaseAmount(ctx context.Context, amount string) (screen Screen, err error) {
	defer s.log(time.Now(), "set_base_amount", &screen, &err, "amount", amount)
	return s.next.SetBaseAmount(ctx, amount)
}

func (s *loggingService) SetQuoteAmount(ctx context.Context, amount string) (screen Screen, err error) {
	defer s.log(time.Now(), "set_quote_amount", &screen, &err, "amount", amount)
	return s.next.SetQuoteAmount(ctx, amount)
}

func (s *loggingService) Swap(ctx context.Context) (screen Screen, err error) {
	defer s.log(time.Now(), "swap", &screen, &err)
	return s.next.Swap(ctx)
}

// log reads screen and err through pointers as they are only set once the deferred call runs
func (s *loggingService) log(begin time.Time, method string, screen *Screen, err *error, keyvals ...interface{}) {
	c := screen.Calculator
	s.logger.Log(append([]interface{}{
		"method", method,
	}, append(keyvals,
		"base", c.BaseCurrency,
		"quote", c.QuoteCurrency,
		"base_amount", c.BaseAmount,
		"quote_amount", c.QuoteAmount,
		"status", screen.Status,
		"took", time.Since(begin),
		"err", *err,
	)...)...)
}
