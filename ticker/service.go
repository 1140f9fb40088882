package ticker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"go-currency-exchange/domain"
)

const ApiUrlBase = "https://api.dolarapp.dev/v1"

// Service wraps the ticker REST API
type Service interface {
	// Currencies lists the currency codes tickers are available for
	Currencies(ctx context.Context) ([]domain.Currency, error)

	// Tickers loads the latest ticker of each currency
	Tickers(ctx context.Context, currencies []domain.Currency) ([]domain.Ticker, error)
}

// Option configures a service
type Option func(*service)

// WithUrl overrides the base API url
func WithUrl(u string) Option {
	return func(s *service) {
		s.url = strings.TrimRight(u, "/")
	}
}

// WithApiKey sends key as a bearer token with every request
func WithApiKey(key string) Option {
	return func(s *service) {
		s.apiKey = key
	}
}

// WithTimeout bounds each HTTP request
func WithTimeout(d time.Duration) Option {
	return func(s *service) {
		s.client.Timeout = d
	}
}

// service ticker API
type service struct {
	// url base API url
	url string

	// apiKey optional bearer token
	apiKey string

	// client for HTTP requests
	client http.Client

	// now stamps tickers whose date cannot be parsed
	now func() time.Time
}

// NewService constructs a valid ticker Service.
func NewService(opts ...Option) Service {
	s := &service{
		url: ApiUrlBase,
		client: http.Client{
			Timeout: 5 * time.Second,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Currencies loads the currency codes the API has tickers for.
func (s *service) Currencies(ctx context.Context) ([]domain.Currency, error) {
	var codes []string
	if err := s.get(ctx, s.url+"/tickers-currencies", &codes); err != nil {
		return nil, err
	}

	currencies := make([]domain.Currency, 0, len(codes))
	for _, c := range codes {
		currencies = append(currencies, domain.Currency(c))
	}
	return currencies, nil
}

// Tickers loads the current bid and ask of each currency against USDc.
func (s *service) Tickers(ctx context.Context, currencies []domain.Currency) ([]domain.Ticker, error) {
	if len(currencies) == 0 {
		return []domain.Ticker{}, nil
	}

	type Response struct {
		Ask  string `json:"ask"`
		Bid  string `json:"bid"`
		Book string `json:"book"` // e.g. usdc_mxn
		Date string `json:"date"`
	}

	codes := make([]string, 0, len(currencies))
	for _, c := range currencies {
		codes = append(codes, string(c))
	}
	query := url.Values{"currencies": {strings.Join(codes, ",")}}

	var response []Response
	if err := s.get(ctx, s.url+"/tickers?"+query.Encode(), &response); err != nil {
		return nil, err
	}

	tickers := make([]domain.Ticker, 0, len(response))
	for _, r := range response {
		tickers = append(tickers, domain.Ticker{
			Currency:    bookCurrency(r.Book),
			Bid:         parseDecimal(r.Bid),
			Ask:         parseDecimal(r.Ask),
			LastUpdated: s.parseDate(r.Date),
		})
	}
	return tickers, nil
}

func (s *service) get(ctx context.Context, endpoint string, v interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building http request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	httpResponse, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode/100 != 2 {
		return fmt.Errorf("http get: unexpected status %v", httpResponse.Status)
	}

	bytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return fmt.Errorf("reading json: %w", err)
	}

	err = json.Unmarshal(bytes, v)
	if err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}

// bookCurrency takes the quoted side of an order book name, usdc_mxn -> MXN
func bookCurrency(book string) domain.Currency {
	parts := strings.Split(book, "_")
	return domain.Currency(strings.ToUpper(parts[len(parts)-1]))
}

// parseDecimal reads a price, unparsable prices are zero
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseDate reads an ISO-8601 instant, falling back to now
func (s *service) parseDate(date string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return s.now()
	}
	return t
}
