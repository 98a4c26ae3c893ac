// Package ddiclient implements the HTTP/JSON transport to a hawkBit Direct
// Device Integration server: authenticated REST calls and streaming artifact
// downloads that compute a running SHA-1 digest.
package ddiclient

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/gurre/hawkbit-agent-go/state/config"
)

const (
	userAgent      = "hawkbit-agent-go"
	maxRedirects   = 8
	maxErrorBody   = 4096
	lowSpeedBytes  = 100
	lowSpeedWindow = 60 * time.Second
)

// Client performs authenticated REST and download requests against a hawkBit
// DDI server, per the configured tenant/controller/token.
type Client struct {
	httpClient   *http.Client
	targetToken  string
	gatewayToken string
}

// New builds a Client from the agent config: connect timeout becomes the
// dialer timeout, request timeout bounds the entire request/response cycle,
// and TLSVerify toggles peer and hostname certificate verification.
//
//	client := ddiclient.New(cfg)
func New(cfg config.Agent) *Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext:     dialer.DialContext,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerify}, //nolint:gosec // operator-controlled toggle
	}
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("ddiclient: stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		targetToken:  cfg.TargetToken,
		gatewayToken: cfg.GatewayToken,
	}
}

// authHeader returns the Authorization header value for the configured
// token, preferring TargetToken over GatewayToken, or "" if neither is set.
func (c *Client) authHeader() string {
	switch {
	case c.targetToken != "":
		return "TargetToken " + c.targetToken
	case c.gatewayToken != "":
		return "GatewayToken " + c.gatewayToken
	default:
		return ""
	}
}

// REST performs a GET/PUT/POST against url. body is marshalled to JSON and
// sent as the request payload when non-nil. The response body is returned
// raw (unparsed) on HTTP 200; any other status yields an *HTTPError.
//
//	raw, err := client.REST(ctx, http.MethodGet, baseURL, nil)
func (c *Client) REST(ctx context.Context, method, url string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ddiclient: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("ddiclient: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json;charset=UTF-8")
	if auth := c.authHeader(); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}

// Download streams url to destPath (truncating any existing file),
// computing a running SHA-1 digest, and aborts if throughput drops below
// 100 bytes/s for 60 continuous seconds. Returns the lowercase hex digest
// and the average transfer rate in bytes/s.
//
//	sha1hex, bps, err := client.Download(ctx, artifact.URL, cfg.BundleDownloadPath)
func (c *Client) Download(ctx context.Context, url, destPath string) (string, float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("ddiclient: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/octet-stream")
	if auth := c.authHeader(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	resp, err := c.httpClient.Do(req.WithContext(watchCtx))
	if err != nil {
		return "", 0, &TransportError{Op: "GET " + url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", 0, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	f, err := os.Create(destPath)
	if err != nil {
		return "", 0, fmt.Errorf("ddiclient: create %s: %w", destPath, err)
	}
	defer func() { _ = f.Close() }()

	hasher := sha1.New() //nolint:gosec // server-declared checksum algorithm, not a security boundary
	var transferred atomic.Int64

	watchdogDone := make(chan struct{})
	go lowSpeedWatchdog(watchCtx, cancelWatch, &transferred, watchdogDone)
	defer func() { <-watchdogDone }()

	start := time.Now()
	counting := &countingWriter{inner: io.MultiWriter(f, hasher), total: &transferred}
	n, copyErr := io.Copy(counting, resp.Body)
	stalled := watchCtx.Err() != nil && ctx.Err() == nil
	cancelWatch()
	elapsed := time.Since(start).Seconds()

	if copyErr != nil {
		if stalled {
			return "", 0, &StallError{Threshold: lowSpeedBytes, Window: lowSpeedWindow.String()}
		}
		return "", 0, &TransportError{Op: "download body", Err: copyErr}
	}

	bytesPerSec := 0.0
	if elapsed > 0 {
		bytesPerSec = float64(n) / elapsed
	}

	return hex.EncodeToString(hasher.Sum(nil)), bytesPerSec, nil
}

// countingWriter tracks bytes written so the low-speed watchdog can sample
// cumulative progress without coupling to the hash or file writers.
type countingWriter struct {
	inner io.Writer
	total *atomic.Int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.inner.Write(p)
	w.total.Add(int64(n))
	return n, err
}

// lowSpeedWatchdog samples transferred once per second; if every one-second
// sample across lowSpeedWindow consecutive seconds shows fewer than
// lowSpeedBytes, it cancels the download context. Mirrors CURLOPT_LOW_SPEED_LIMIT/CURLOPT_LOW_SPEED_TIME,
// which net/http has no built-in equivalent of.
func lowSpeedWatchdog(ctx context.Context, cancel context.CancelFunc, transferred *atomic.Int64, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	windowSeconds := int(lowSpeedWindow / time.Second)
	last := transferred.Load()
	stalledFor := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := transferred.Load()
			delta := current - last
			last = current
			if delta < lowSpeedBytes {
				stalledFor++
			} else {
				stalledFor = 0
			}
			if stalledFor >= windowSeconds {
				cancel()
				return
			}
		}
	}
}
