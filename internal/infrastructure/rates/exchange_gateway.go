package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"urbanstyle_assistant/internal/usecase/interfaces"
)

var ErrMissingRatesEndpoint = errors.New("missing RATES_ENDPOINT")
var ErrRatesGatewayNotConfigured = errors.New("exchange rate gateway not configured")

// ExchangeRateGateway fetches live rates from a frankfurter-style HTTP API:
// GET {endpoint}?from=USD&to=EUR -> {"rates":{"EUR":0.92}}.
type ExchangeRateGateway struct {
	endpoint string
	http     *http.Client
	mockMode bool
}

var _ interfaces.IRateSource = (*ExchangeRateGateway)(nil)

func NewExchangeRateGateway(endpoint string) (*ExchangeRateGateway, error) {
	if isRatesGatewayMockEnabled() {
		log.Printf("[rates][gateway] mock mode enabled")
		return &ExchangeRateGateway{mockMode: true}, nil
	}

	if strings.TrimSpace(endpoint) == "" {
		log.Printf("[rates][gateway] missing RATES_ENDPOINT")
		return nil, ErrMissingRatesEndpoint
	}

	log.Printf("[rates][gateway] exchange rate client initialized endpoint=%s", endpoint)
	return &ExchangeRateGateway{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (g *ExchangeRateGateway) FetchRate(ctx context.Context, from, to string) (float64, error) {
	if g != nil && g.mockMode {
		rate := mockRate(from, to)
		log.Printf("[rates][gateway] mock fetch pair=%s/%s rate=%.4f", from, to, rate)
		return rate, nil
	}

	if g == nil || g.http == nil {
		log.Printf("[rates][gateway] gateway not configured")
		return 0, ErrRatesGatewayNotConfigured
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	endpoint := g.endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		log.Printf("[rates][gateway] fetch failed pair=%s/%s err=%v", from, to, err)
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[rates][gateway] fetch failed pair=%s/%s status=%s", from, to, resp.Status)
		return 0, fmt.Errorf("rate source status %s", resp.Status)
	}

	var decoded ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode rate response: %w", err)
	}
	rate, ok := decoded.Rates[strings.ToUpper(to)]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("rate source returned no rate for %s/%s", from, to)
	}
	log.Printf("[rates][gateway] fetch success pair=%s/%s rate=%.4f", from, to, rate)
	return rate, nil
}

// mockRate gives deterministic sandbox rates so local runs work offline.
func mockRate(from, to string) float64 {
	fixtures := map[string]float64{
		"USD/EUR": 0.92,
		"EUR/USD": 1.09,
		"USD/INR": 83.10,
		"INR/USD": 0.012,
		"EUR/INR": 90.40,
		"INR/EUR": 0.011,
	}
	if r, ok := fixtures[strings.ToUpper(from)+"/"+strings.ToUpper(to)]; ok {
		return r
	}
	return 1
}

func isRatesGatewayMockEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("RATES_MOCK")))
	switch v {
	case "1", "true", "yes", "on", "mock":
		return true
	}
	return false
}
