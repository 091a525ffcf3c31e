package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"strconv"
	"time"

	pkgerrors "sjsage522/contactmerge/pkg/errors"

	"golang.org/x/net/html/charset"
)

const httpStage = "http"

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	}

	// HTTP client with timeout
	client = &http.Client{
		Timeout: 10 * time.Second,
	}

	// rateLimitCodes are the statuses treated as throttling
	rateLimitCodes = []int{http.StatusTooManyRequests, 430}
)

// SetTimeout changes the timeout of the shared HTTP client
func SetTimeout(d time.Duration) {
	if d > 0 {
		client.Timeout = d
	}
}

// FetchWithHeaders sends a GET request with a browser-like User-Agent,
// converts the response body to UTF-8 (if needed), and returns it as an
// io.Reader. Throttling statuses yield a rate limit error carrying the
// Retry-After delay.
func FetchWithHeaders(ctx context.Context, url string) (io.Reader, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.NewNetwork(httpStage, "failed to create request", err)
	}

	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "application/json,text/html;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, pkgerrors.NewNetwork(httpStage, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if slices.Contains(rateLimitCodes, resp.StatusCode) {
		return nil, pkgerrors.NewRateLimit(httpStage, retryAfter(resp.Header.Get("Retry-After")))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.NewNetwork(httpStage, fmt.Sprintf("fetch %s unexpected status code: %d", url, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewNetwork(httpStage, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, pkgerrors.NewParsing(httpStage, "failed to read converted UTF-8 body", err)
	}
	return &buf, nil
}

// FetchJSON fetches url and decodes the JSON body into v
func FetchJSON(ctx context.Context, url string, v interface{}) error {
	body, err := FetchWithHeaders(ctx, url)
	if err != nil {
		return err
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return pkgerrors.NewParsing(httpStage, "failed to decode JSON response", err)
	}
	return nil
}

// retryAfter parses a Retry-After header given in seconds, defaulting to a
// minute
func retryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Minute
}
