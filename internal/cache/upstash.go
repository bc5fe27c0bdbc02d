package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 2 << 20

type UpstashConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type UpstashOption func(*UpstashCache)

func WithHTTPClient(client *http.Client) UpstashOption {
	return func(c *UpstashCache) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// UpstashCache talks to Upstash Redis over its REST API.
type UpstashCache struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewUpstashCache(cfg UpstashConfig, opts ...UpstashOption) (*UpstashCache, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &UpstashCache{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *UpstashCache) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.exec(ctx, []any{"GET", key})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, ErrMiss
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode cached payload: %w", err)
	}
	return []byte(encoded), nil
}

func (c *UpstashCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := []any{"SET", key, string(value)}
	if ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(ttl))
	}
	_, err := c.exec(ctx, cmd)
	return err
}

func (c *UpstashCache) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *UpstashCache) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}
