package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/resilience"
)

var (
	ErrTextgenDisabled = errors.New("textgen disabled")
	ErrRequestFailed   = errors.New("textgen request failed")
	ErrResponseInvalid = errors.New("textgen response invalid")
)

// Client 文案生成客户端
// 仅用于生成通知文案等辅助内容，任何失败都以兜底文案收场。
type Client struct {
	cfg        config.TextgenConfig
	policy     resilience.Policy
	httpClient *http.Client
}

// NewClient 创建文案生成客户端
func NewClient(cfg config.TextgenConfig, policy resilience.Policy) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		cfg:        cfg,
		policy:     policy,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled 判断文案生成是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.BaseURL != ""
}

// Complete 生成文案，失败或未启用时返回兜底文案
func (c *Client) Complete(ctx context.Context, prompt, fallback string) string {
	if !c.Enabled() || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	result, usedFallback := resilience.DoWithFallback(ctx, c.policy, func(ctx context.Context) (string, error) {
		return c.complete(ctx, prompt)
	}, fallback)
	_ = usedFallback
	return result
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  c.cfg.Model,
		"prompt": prompt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/completions", strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Text) == "" {
		return "", ErrResponseInvalid
	}
	return strings.TrimSpace(parsed.Choices[0].Text), nil
}
