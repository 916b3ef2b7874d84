// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package edgar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvfin/data"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const component = "edgar"

var (
	errRateLimited = errors.New("rate limited by EDGAR")
	errServer      = errors.New("EDGAR server error")
)

// rateLimitPhrases appear in the bodies of throttled responses that do not use status 429
var rateLimitPhrases = []string{"rate limit", "too many requests", "request rate threshold"}

type Config struct {
	UserAgent         string
	Retries           int
	InitialDelay      time.Duration
	RequestsPerSecond float64
	Timeout           time.Duration

	// base URLs, overridden in tests
	WWWBaseURL  string
	DataBaseURL string
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		UserAgent:         "pvfin research@example.com",
		Retries:           3,
		InitialDelay:      2 * time.Second,
		RequestsPerSecond: 10,
		Timeout:           30 * time.Second,
		WWWBaseURL:        "https://www.sec.gov",
		DataBaseURL:       "https://data.sec.gov",
	}
}

// Client talks to the SEC EDGAR public endpoints
type Client struct {
	config  Config
	http    *resty.Client
	limiter *rate.Limiter

	tickerLock sync.Mutex
	tickers    *haxmap.Map[string, *TickerEntry]
}

// TickerEntry is one row of the SEC ticker directory
type TickerEntry struct {
	Ticker string `json:"ticker"`
	CIK    string `json:"cik"`
	Name   string `json:"title"`
}

// New creates a client; zero valued fields of config fall back to DefaultConfig
func New(config Config) *Client {
	defaults := DefaultConfig()
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.WWWBaseURL == "" {
		config.WWWBaseURL = defaults.WWWBaseURL
	}
	if config.DataBaseURL == "" {
		config.DataBaseURL = defaults.DataBaseURL
	}

	config.WWWBaseURL = strings.TrimRight(config.WWWBaseURL, "/")
	config.DataBaseURL = strings.TrimRight(config.DataBaseURL, "/")

	client := resty.New().
		SetHeader("User-Agent", config.UserAgent).
		SetTimeout(config.Timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{
		config:  config,
		http:    client,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}
}

// Config returns the effective configuration of the client
func (client *Client) Config() Config {
	return client.config
}

func isRateLimited(resp *resty.Response) bool {
	if resp.StatusCode() == http.StatusTooManyRequests {
		return true
	}

	if resp.StatusCode() == http.StatusForbidden || resp.StatusCode() == http.StatusServiceUnavailable {
		body := strings.ToLower(resp.String())
		for _, phrase := range rateLimitPhrases {
			if strings.Contains(body, phrase) {
				return true
			}
		}
	}

	return false
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// get fetches url, decoding a JSON body into result when result is non-nil. Throttling,
// server errors and timeouts are retried with exponential backoff.
func (client *Client) get(ctx context.Context, url string, result any) (*resty.Response, error) {
	logger := zerolog.Ctx(ctx)

	operation := func() (*resty.Response, error) {
		if err := client.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		req := client.http.R().SetContext(ctx)
		if result != nil {
			req = req.SetResult(result).ForceContentType("application/json")
		}

		resp, err := req.Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			if isTimeout(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}

		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return resp, backoff.Permanent(data.NewError(data.ErrNotFound, component, nil, "%s", url))
		case isRateLimited(resp):
			return resp, fmt.Errorf("%w: status %d", errRateLimited, resp.StatusCode())
		case resp.StatusCode() >= 500:
			return resp, fmt.Errorf("%w: status %d", errServer, resp.StatusCode())
		case resp.StatusCode() >= 300:
			return resp, backoff.Permanent(fmt.Errorf("EDGAR returned status %d for %s", resp.StatusCode(), url))
		}

		return resp, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = client.config.InitialDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = 64 * client.config.InitialDelay
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Str("URL", url).Dur("Wait", wait).Msg("EDGAR request failed, retrying")
	}

	resp, err := backoff.RetryNotifyWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(client.config.Retries)), ctx), notify)
	if err != nil {
		if data.KindOf(err) != nil {
			return resp, err
		}

		if ctx.Err() != nil {
			return resp, ctx.Err()
		}

		if errors.Is(err, errRateLimited) || errors.Is(err, errServer) || isTimeout(err) {
			return resp, data.NewError(data.ErrUpstreamUnavailable, component, err, "giving up on %s after %d retries", url, client.config.Retries)
		}

		return resp, data.NewError(data.ErrUpstreamUnavailable, component, err, "request to %s failed", url)
	}

	return resp, nil
}

// getBytes fetches a document without decoding it
func (client *Client) getBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := client.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}
