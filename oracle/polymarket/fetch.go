package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/GPTx-global/drpost/oracle/log"
	"github.com/GPTx-global/drpost/oracle/report"
	"github.com/GPTx-global/drpost/oracle/retry"
)

// DefaultBaseURL is the PolyMarket gamma API queried by the oracle program.
const DefaultBaseURL = "https://gamma-api.polymarket.com"

var (
	once       sync.Once
	httpClient *http.Client
)

func fetchClient() *http.Client {
	once.Do(func() {
		transport := new(http.Transport)
		transport.MaxIdleConns = 10
		transport.IdleConnTimeout = 90 * time.Second

		httpClient = new(http.Client)
		httpClient.Timeout = 30 * time.Second
		httpClient.Transport = transport
	})

	return httpClient
}

// Preview fetches slug the same way the execution phase of the oracle
// program does and returns the JSON it would report.
func Preview(ctx context.Context, baseURL, slug string) ([]byte, error) {
	if slug == "" {
		return nil, fmt.Errorf("empty event slug")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	endpoint := strings.TrimSuffix(baseURL, "/") + "/events/slug/" + url.PathEscape(slug)
	log.Infof("Fetching event data from PolyMarket for event: %s", slug)

	var body []byte
	err := retry.Do(ctx, retry.NetworkConfig(), func() error {
		var err error
		body, err = fetchRawData(ctx, endpoint)
		return err
	}, retry.DefaultIsRetryable)
	if err != nil {
		return nil, err
	}

	markets, err := parseEvent(body)
	if err != nil {
		return nil, err
	}
	log.Infof("Collected %d first outcome prices from all markets", len(markets))

	return encodeMarkets(markets)
}

func fetchRawData(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "drpost/1.0")
	req.Header.Set("Accept", "application/json")

	res, err := fetchClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("PolyMarket HTTP Response was rejected: %w", &retry.HTTPStatusError{Code: res.StatusCode, Body: body})
	}

	return body, nil
}

// parseEvent keeps the first outcome price of every market. outcomePrices
// arrives as a JSON encoded string.
func parseEvent(body []byte) ([]report.Market, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("event response is not valid JSON")
	}

	list := gjson.GetBytes(body, "markets")
	if !list.IsArray() || len(list.Array()) == 0 {
		return nil, fmt.Errorf("event has no markets")
	}

	markets := make([]report.Market, 0, len(list.Array()))
	for _, market := range list.Array() {
		title := market.Get("groupItemTitle").String()

		prices := gjson.Parse(market.Get("outcomePrices").String())
		if !prices.IsArray() || len(prices.Array()) == 0 {
			return nil, fmt.Errorf("market %s has no outcome prices", title)
		}

		price, err := strconv.ParseFloat(prices.Array()[0].String(), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse first outcome price for market %s: %w", title, err)
		}

		markets = append(markets, report.Market{
			YesPrice: strconv.FormatFloat(price, 'f', -1, 64),
			Closed:   market.Get("closed").Bool(),
		})
	}

	return markets, nil
}

func encodeMarkets(markets []report.Market) ([]byte, error) {
	out, err := sjson.SetRawBytes([]byte(`{}`), "markets", []byte(`[]`))
	if err != nil {
		return nil, err
	}

	for _, m := range markets {
		entry, err := sjson.SetBytes([]byte(`{}`), "yes_price", m.YesPrice)
		if err != nil {
			return nil, err
		}
		if entry, err = sjson.SetBytes(entry, "closed", m.Closed); err != nil {
			return nil, err
		}
		if out, err = sjson.SetRawBytes(out, "markets.-1", entry); err != nil {
			return nil, err
		}
	}

	return out, nil
}
