package helpers

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	apperrors "sjsage522/aptwatcher/pkg/errors"
)

const fetcherComponent = "fetcher"

// Browser-like headers sent unless the configuration overrides them
var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Cache-Control":   "no-cache",
	"Pragma":          "no-cache",
}

// NewHTTPClient builds the client used for the listing page. When caPath is
// set the PEM bundle it names replaces the system trust roots.
func NewHTTPClient(timeout time.Duration, caPath string) (*http.Client, error) {
	client := &http.Client{Timeout: timeout}
	if caPath == "" {
		return client, nil
	}

	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("read CA bundle %s", caPath), err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("no certificates found in %s", caPath), nil)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	client.Transport = transport
	return client, nil
}

// FetchPage sends one GET request to url with the given headers, converts
// the response body to UTF-8 (if needed), and returns it as an io.Reader.
// Every failure is a network error; 429/430 responses are rate limit errors.
func FetchPage(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewNetwork(fetcherComponent, "failed to create request", err)
	}

	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetwork(fetcherComponent, fmt.Sprintf("failed to fetch %s", url), err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return nil, apperrors.NewRateLimit(fetcherComponent, retryAfter(resp.Header.Get("Retry-After")))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewNetwork(fetcherComponent, fmt.Sprintf("fetch %s unexpected status code: %d", url, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetwork(fetcherComponent, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, apperrors.NewNetwork(fetcherComponent, "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}

func retryAfter(value string) time.Duration {
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}
