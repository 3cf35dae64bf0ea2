package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

// NewHTTPClient creates the HTTP client used for every remote call.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// transport performs bearer-authenticated HTTP calls.
type transport struct {
	client *http.Client
	token  string
	logger *zap.Logger
}

func newTransport(client *http.Client, token string, logger *zap.Logger) *transport {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transport{client: client, token: token, logger: logger}
}

type call struct {
	op          string
	method      string
	url         string
	body        []byte
	contentType string
	// anonymous calls go to presigned URLs and carry no bearer token.
	anonymous bool
}

// do runs c and returns the response body of a 2xx response.
func (t *transport) do(ctx context.Context, c call) ([]byte, error) {
	var body io.Reader
	if c.body != nil {
		body = bytes.NewReader(c.body)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, c.url, body)
	if err != nil {
		return nil, &TransportError{Op: c.op, Method: c.method, URL: c.url, Err: err}
	}
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}
	if !c.anonymous && t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: c.op, Method: c.method, URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: c.op, Method: c.method, URL: c.url, Status: resp.StatusCode, Err: err}
	}

	t.logger.Debug("Remote call",
		zap.String("op", c.op),
		zap.String("method", c.method),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := data
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &TransportError{Op: c.op, Method: c.method, URL: c.url, Status: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	return data, nil
}

// doJSON sends in as a JSON body (when non-nil) and decodes the response into out (when non-nil).
func (t *transport) doJSON(ctx context.Context, op, method, url string, in, out any) error {
	c := call{op: op, method: method, url: url}
	if in != nil {
		data, err := jsonBody(in)
		if err != nil {
			return err
		}
		c.body = data
		c.contentType = "application/json"
	}

	data, err := t.do(ctx, c)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, Method: method, URL: url, Status: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func jsonBody(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}
