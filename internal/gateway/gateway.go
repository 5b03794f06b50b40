package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prato-next/internal/config"
	"github.com/prato-next/internal/resilience"
)

var (
	ErrGatewayDisabled  = errors.New("payment gateway disabled")
	ErrRequestFailed    = errors.New("payment gateway request failed")
	ErrResponseInvalid  = errors.New("payment gateway response invalid")
	ErrSignatureInvalid = errors.New("payment gateway signature invalid")
)

// 远端返回的交易状态
const (
	ChargeStatusPending = "pending"
	ChargeStatusPaid    = "paid"
	ChargeStatusExpired = "expired"
)

// Client 支付网关客户端
type Client struct {
	cfg        config.GatewayConfig
	policy     resilience.Policy
	httpClient *http.Client
}

// NewClient 创建支付网关客户端
func NewClient(cfg config.GatewayConfig, policy resilience.Policy) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		cfg:        cfg,
		policy:     policy,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled 判断网关是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.BaseURL != ""
}

// ChargeInput 创建收款入参
type ChargeInput struct {
	OrderID  uint
	Amount   string
	Currency string
	Method   string
}

// ChargeResult 创建收款结果
type ChargeResult struct {
	ChargeID   string                 // 网关交易号
	Status     string                 // 交易状态
	PaymentURL string                 // 收银台地址
	Raw        map[string]interface{} // 原始响应
}

// CreateCharge 创建收款交易
func (c *Client) CreateCharge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	if !c.Enabled() {
		return nil, ErrGatewayDisabled
	}
	if input.OrderID == 0 || strings.TrimSpace(input.Amount) == "" {
		return nil, fmt.Errorf("%w: order_id and amount are required", ErrRequestFailed)
	}

	params := map[string]interface{}{
		"app_id":   c.cfg.AppID,
		"order_id": fmt.Sprintf("%d", input.OrderID),
		"amount":   input.Amount,
		"currency": input.Currency,
		"method":   input.Method,
	}
	params["signature"] = Sign(params, c.cfg.AppSecret)

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			ChargeID   string `json:"charge_id"`
			Status     string `json:"status"`
			PaymentURL string `json:"payment_url"`
		} `json:"data"`
	}
	raw, err := c.postJSON(ctx, "/api/v1/charges", params, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	return &ChargeResult{
		ChargeID:   resp.Data.ChargeID,
		Status:     resp.Data.Status,
		PaymentURL: resp.Data.PaymentURL,
		Raw:        raw,
	}, nil
}

// GetBalance 查询商户余额
func (c *Client) GetBalance(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return "", ErrGatewayDisabled
	}
	params := map[string]interface{}{
		"app_id": c.cfg.AppID,
	}
	params["signature"] = Sign(params, c.cfg.AppSecret)

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Balance  string `json:"balance"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	if _, err := c.postJSON(ctx, "/api/v1/balance", params, &resp); err != nil {
		return "", err
	}
	if resp.Code != 0 {
		return "", fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	return resp.Data.Balance, nil
}

// WithdrawInput 提现入参
type WithdrawInput struct {
	Amount  string
	Account string
	Remark  string
}

// WithdrawResult 提现结果
type WithdrawResult struct {
	WithdrawID string
	Status     string
}

// Withdraw 发起商户提现
func (c *Client) Withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error) {
	if !c.Enabled() {
		return nil, ErrGatewayDisabled
	}
	if strings.TrimSpace(input.Amount) == "" || strings.TrimSpace(input.Account) == "" {
		return nil, fmt.Errorf("%w: amount and account are required", ErrRequestFailed)
	}
	params := map[string]interface{}{
		"app_id":  c.cfg.AppID,
		"amount":  input.Amount,
		"account": input.Account,
		"remark":  input.Remark,
	}
	params["signature"] = Sign(params, c.cfg.AppSecret)

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			WithdrawID string `json:"withdraw_id"`
			Status     string `json:"status"`
		} `json:"data"`
	}
	if _, err := c.postJSON(ctx, "/api/v1/withdrawals", params, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	return &WithdrawResult{WithdrawID: resp.Data.WithdrawID, Status: resp.Data.Status}, nil
}

// VerifyCallback 验证异步回调签名
func (c *Client) VerifyCallback(params map[string]interface{}, signature string) error {
	expected := Sign(params, c.cfg.AppSecret)
	if !strings.EqualFold(expected, signature) {
		return ErrSignatureInvalid
	}
	return nil
}

// Sign 生成签名
// 签名规则：
// 1. 筛选所有非空且非 signature 的参数
// 2. 按参数名 ASCII 码从小到大排序
// 3. 按 key=value 格式拼接，使用 & 连接
// 4. 在末尾追加 AppSecret（无 & 符号）
// 5. MD5 加密并转小写
func Sign(params map[string]interface{}, secret string) string {
	var keys []string
	for k, v := range params {
		if k == "signature" {
			continue
		}
		if isEmptyValue(v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, params[k]))
	}

	content := strings.Join(pairs, "&") + secret
	sum := md5.Sum([]byte(content))
	return strings.ToLower(hex.EncodeToString(sum[:]))
}

func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func (c *Client) postJSON(ctx context.Context, path string, params map[string]interface{}, dest interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	endpoint := c.cfg.BaseURL + path

	var respBytes []byte
	err = resilience.Do(ctx, c.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("http status %d", resp.StatusCode)
		}
		respBytes, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if dest != nil {
		if err := json.Unmarshal(respBytes, dest); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
	}
	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)
	return raw, nil
}
