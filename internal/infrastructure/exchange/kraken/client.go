package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

const defaultBaseURL = "https://futures.kraken.com"

// Client is a Kraken Futures REST client covering the two read-only calls
// the collector needs. All requests are signed; see sign.go.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

func New(baseURL, apiKey, apiSecret string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// looseNumber parses quoted or bare JSON numbers. A value that cannot be
// coerced degrades to 0 instead of failing the surrounding decode, so one
// bad field never aborts conversion of the rest of the payload.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = looseNumber(f)
	return nil
}

type accountsResponse struct {
	Result   string `json:"result"`
	Error    string `json:"error"`
	Accounts []struct {
		Type      string `json:"type"`
		Auxiliary struct {
			MarginEquity looseNumber `json:"marginEquity"`
		} `json:"auxiliary"`
	} `json:"accounts"`
}

type openPositionsResponse struct {
	Result        string `json:"result"`
	Error         string `json:"error"`
	OpenPositions []struct {
		Symbol string      `json:"symbol"`
		Size   looseNumber `json:"size"`
		Side   string      `json:"side"`
	} `json:"openPositions"`
}

// MarginEquity returns the flex account's margin equity. A missing flex
// account or an unparseable figure yields 0 without error: only transport
// and API-level failures are reported.
func (c *Client) MarginEquity(ctx context.Context) (float64, error) {
	body, err := c.signedGet(ctx, "/derivatives/api/v3/accounts")
	if err != nil {
		return 0, err
	}
	var resp accountsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("kraken accounts decode: %w", err)
	}
	if resp.Result != "" && resp.Result != "success" {
		return 0, fmt.Errorf("kraken accounts: %s", resp.Error)
	}
	for _, acc := range resp.Accounts {
		if acc.Type == "flex" {
			return float64(acc.Auxiliary.MarginEquity), nil
		}
	}
	return 0, nil
}

// OpenPositions returns the currently open positions. Rows with an
// unparseable size keep the side and degrade the size to 0.
func (c *Client) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	body, err := c.signedGet(ctx, "/derivatives/api/v3/openpositions")
	if err != nil {
		return nil, err
	}
	var resp openPositionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kraken openpositions decode: %w", err)
	}
	if resp.Result != "" && resp.Result != "success" {
		return nil, fmt.Errorf("kraken openpositions: %s", resp.Error)
	}
	out := make([]domain.Position, 0, len(resp.OpenPositions))
	for _, p := range resp.OpenPositions {
		out = append(out, domain.Position{Symbol: p.Symbol, Size: float64(p.Size), Side: p.Side})
	}
	return domain.NormalizePositions(out), nil
}

var _ port.AccountSource = (*Client)(nil)
