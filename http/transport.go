package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"go-currency-exchange/domain"
	"go-currency-exchange/exchange"
)

// Server dependencies for HTTP Server functions
type Server struct {
	Service exchange.Service
	Logger  log.Logger
	router  chi.Router
}

func NewServer(s exchange.Service, logger log.Logger) *Server {
	server := &Server{
		Service: s,
		Logger:  logger,
		router:  chi.NewRouter(),
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/screen", s.screen())
		r.Get("/rate", s.rate())
		r.Post("/currencies/load", s.loadCurrencies())
		r.Post("/swap", s.swap())
		r.Post("/base/currency", s.setCurrency(s.Service.SetBaseCurrency))
		r.Post("/quote/currency", s.setCurrency(s.Service.SetQuoteCurrency))
		r.Post("/base/amount", s.setAmount(s.Service.SetBaseAmount))
		r.Post("/quote/amount", s.setAmount(s.Service.SetQuoteAmount))
	})
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

// calculatorResponse the JSON form of calculator.State
type calculatorResponse struct {
	BaseCurrency  domain.Currency `json:"baseCurrency"`
	QuoteCurrency domain.Currency `json:"quoteCurrency"`
	BaseAmount    string          `json:"baseAmount"`
	QuoteAmount   string          `json:"quoteAmount"`
	FromStable    bool            `json:"isConvertingFromStable"`
	Rate          *string         `json:"rate"`
}

type tickerResponse struct {
	Bid         string `json:"bid"`
	Ask         string `json:"ask"`
	LastUpdated string `json:"lastUpdated"`
}

// screenResponse the JSON form of exchange.Screen
type screenResponse struct {
	Status     exchange.Status                    `json:"status"`
	Error      string                             `json:"error,omitempty"`
	Currencies []domain.Currency                  `json:"currencies"`
	Calculator calculatorResponse                 `json:"calculator"`
	Tickers    map[domain.Currency]tickerResponse `json:"tickers"`
}

func toScreen(sc exchange.Screen) screenResponse {
	c := sc.Calculator
	out := screenResponse{
		Status:     sc.Status,
		Error:      sc.Error,
		Currencies: sc.Currencies,
		Calculator: calculatorResponse{
			BaseCurrency:  c.BaseCurrency,
			QuoteCurrency: c.QuoteCurrency,
			BaseAmount:    c.BaseAmount,
			QuoteAmount:   c.QuoteAmount,
			FromStable:    c.FromStable,
		},
		Tickers: make(map[domain.Currency]tickerResponse, len(sc.Tickers)),
	}
	if out.Currencies == nil {
		out.Currencies = []domain.Currency{}
	}
	if c.Rate.Valid {
		rate := c.Rate.Decimal.String()
		out.Calculator.Rate = &rate
	}
	for code, t := range sc.Tickers {
		out.Tickers[code] = tickerResponse{
			Bid:         t.Bid.String(),
			Ask:         t.Ask.String(),
			LastUpdated: t.LastUpdated.UTC().Format(time.RFC3339Nano),
		}
	}
	return out
}

func (s *Server) screen() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		s.respond(rw, http.StatusOK, toScreen(s.Service.Screen(r.Context())))
	}
}

func (s *Server) rate() http.HandlerFunc {
	type response struct {
		Stable   domain.Currency `json:"stable"`
		Rate     string          `json:"rate"`
		Currency domain.Currency `json:"currency"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		rate, ok := s.Service.DisplayRate(r.Context())
		if !ok {
			s.fail(rw, http.StatusNotFound, "no exchange rate")
			return
		}
		s.respond(rw, http.StatusOK, response{
			Stable:   domain.Stable,
			Rate:     rate.Rate.String(),
			Currency: rate.Currency,
		})
	}
}

func (s *Server) loadCurrencies() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		s.result(rw)(s.Service.LoadCurrencies(r.Context()))
	}
}

func (s *Server) swap() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		s.result(rw)(s.Service.Swap(r.Context()))
	}
}

// setCurrency produces an HTTP handler for either currency slot
func (s *Server) setCurrency(set func(ctx context.Context, currency domain.Currency) (exchange.Screen, error)) http.HandlerFunc {
	type request struct {
		Currency domain.Currency `json:"currency"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(rw, r, &req) {
			return
		}
		s.result(rw)(set(r.Context(), req.Currency))
	}
}

// setAmount produces an HTTP handler for either amount
func (s *Server) setAmount(set func(ctx context.Context, amount string) (exchange.Screen, error)) http.HandlerFunc {
	type request struct {
		Amount string `json:"amount"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var req request
		if !s.decode(rw, r, &req) {
			return
		}
		s.result(rw)(set(r.Context(), req.Amount))
	}
}

// maxBodyBytes bounds every request body
const maxBodyBytes = 1 << 10

func (s *Server) decode(rw http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(rw, r.Body, maxBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.fail(rw, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// result writes the screen of a transition. A failed ticker load still returns
// the screen, with a bad gateway status.
func (s *Server) result(rw http.ResponseWriter) func(exchange.Screen, error) {
	return func(sc exchange.Screen, err error) {
		switch {
		case errors.Is(err, exchange.ErrInvalidCurrency):
			s.fail(rw, http.StatusBadRequest, err.Error())
		case err != nil:
			s.respond(rw, http.StatusBadGateway, toScreen(sc))
		default:
			s.respond(rw, http.StatusOK, toScreen(sc))
		}
	}
}

func (s *Server) fail(rw http.ResponseWriter, code int, msg string) {
	s.respond(rw, code, map[string]string{"error": msg})
}

func (s *Server) respond(rw http.ResponseWriter, code int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		level.Error(s.Logger).Log("msg", "failed json encoding", "err", err)
	}
}
