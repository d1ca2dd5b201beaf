// Package backend holds one client per downstream AI service. Each client
// translates relay requests into the downstream wire shape, bounds every call
// by the operation's timeout, and applies the operation's failure policy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/skRookies2team/Backend-Relay/internal/config"
	"github.com/skRookies2team/Backend-Relay/internal/httputil"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
)

const maxResponseBytes = 32 << 20

// base is the transport shared by all clients: one pooled http.Client per
// downstream plus the descriptor it was built from.
type base struct {
	desc    config.ServiceConfig
	baseURL string
	client  *http.Client
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func newBase(desc config.ServiceConfig, metrics *telemetry.Metrics, logger *slog.Logger) base {
	desc = desc.Clone()
	if logger == nil {
		logger = slog.Default()
	}
	maxIdle := desc.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	dialer := &net.Dialer{
		Timeout:   desc.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return base{
		desc:    desc,
		baseURL: strings.TrimRight(desc.BaseURL, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: desc.ConnectTimeout,
				MaxIdleConns:        maxIdle,
				MaxIdleConnsPerHost: maxIdle,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		metrics: metrics,
		logger:  logger.With("service", desc.Name),
	}
}

// Descriptor returns a copy of the client's service descriptor.
func (b *base) Descriptor() config.ServiceConfig {
	return b.desc.Clone()
}

// do sends one request bounded by op's timeout and returns the trimmed body.
// A 2xx with an empty or null body is ErrEmptyResponse.
func (b *base) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.desc.Timeout(op))
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if reqID := httputil.RequestIDFromContext(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 512)}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrEmptyResponse
	}
	return data, nil
}

// postJSON posts body and decodes the response into out. Numbers are kept as
// json.Number so open payloads survive a round trip unchanged.
func (b *base) postJSON(ctx context.Context, op, path string, body, out any) error {
	data, err := b.do(ctx, op, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decode(data, out)
}

func (b *base) getJSON(ctx context.Context, op, path string, out any) error {
	data, err := b.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(data, out)
}

// probeStatus reports whether GET path answers with the expected "status"
// value. It never returns an error.
func (b *base) probeStatus(ctx context.Context, path, want string) bool {
	var body struct {
		Status any `json:"status"`
	}
	if err := b.getJSON(ctx, config.OpProbe, path, &body); err != nil {
		b.logger.WarnContext(ctx, "health probe failed", "error", err)
		return false
	}
	got := fmt.Sprint(body.Status)
	if got != want {
		b.logger.WarnContext(ctx, "health probe returned unexpected status", "status", got, "want", want)
		return false
	}
	return true
}

func (b *base) record(op, outcome string, start time.Time) {
	if b.metrics == nil {
		return
	}
	b.metrics.RecordDownstream(b.desc.Name, op, outcome, float64(time.Since(start).Milliseconds()))
}

func decode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
