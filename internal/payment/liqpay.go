// Package payment talks to the LiqPay gateway: it builds signed checkout
// forms, verifies server callbacks and queries order status.
package payment

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fusaf/fusaf-service/internal/config"
	"github.com/fusaf/fusaf-service/internal/model"
)

const apiVersion = 3

var (
	// ErrInvalidSignature means a callback was not signed with our private key.
	ErrInvalidSignature = errors.New("invalid liqpay signature")
	// ErrNotConfigured is returned when keys are missing.
	ErrNotConfigured = errors.New("liqpay keys are not configured")
	// ErrOrderNotFound means the gateway has no payment for the order yet,
	// which is the normal answer before the payer submits the checkout form.
	ErrOrderNotFound = errors.New("liqpay order not found")
)

const errCodePaymentNotFound = "payment_not_found"

// CheckoutRequest describes one order to pay.
type CheckoutRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// CheckoutForm is what the browser posts to the gateway.
type CheckoutForm struct {
	Action    string `json:"action"`
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

// Callback is the decoded payload of a server callback or status response.
type Callback struct {
	Action         string  `json:"action"`
	Status         string  `json:"status"`
	OrderID        string  `json:"order_id"`
	PaymentID      int64   `json:"payment_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
	ErrCode        string  `json:"err_code,omitempty"`
	ErrDescription string  `json:"err_description,omitempty"`
	Result         string  `json:"result,omitempty"`
}

// Client signs and sends LiqPay requests.
type Client struct {
	cfg  config.LiqPay
	http *http.Client
	log  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg config.LiqPay, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  logger.With().Str("module", "payment").Str("component", "liqpay").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether both keys are present.
func (c *Client) Configured() bool { return c.cfg.PublicKey != "" && c.cfg.PrivateKey != "" }

// Sign returns base64(sha1(private_key + data + private_key)).
func (c *Client) Sign(data string) string {
	sum := sha1.Sum([]byte(c.cfg.PrivateKey + data + c.cfg.PrivateKey))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (c *Client) encode(params map[string]any) (string, string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", "", fmt.Errorf("encode liqpay params: %w", err)
	}
	data := base64.StdEncoding.EncodeToString(raw)
	return data, c.Sign(data), nil
}

// Checkout builds the signed form for a pay action.
func (c *Client) Checkout(req CheckoutRequest) (CheckoutForm, error) {
	if !c.Configured() {
		return CheckoutForm{}, ErrNotConfigured
	}
	params := map[string]any{
		"version":     apiVersion,
		"public_key":  c.cfg.PublicKey,
		"action":      "pay",
		"amount":      req.Amount.StringFixed(2),
		"currency":    req.Currency,
		"description": req.Description,
		"order_id":    req.OrderID,
		"language":    "uk",
	}
	if c.cfg.ResultURL != "" {
		params["result_url"] = c.cfg.ResultURL
	}
	if c.cfg.ServerURL != "" {
		params["server_url"] = c.cfg.ServerURL
	}
	if c.cfg.Sandbox {
		params["sandbox"] = 1
	}
	data, sig, err := c.encode(params)
	if err != nil {
		return CheckoutForm{}, err
	}
	return CheckoutForm{Action: c.cfg.CheckoutURL, Data: data, Signature: sig}, nil
}

// VerifyCallback checks the signature in constant time and decodes data.
func (c *Client) VerifyCallback(data, signature string) (Callback, error) {
	if !c.Configured() {
		return Callback{}, ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(c.Sign(data)), []byte(signature)) != 1 {
		return Callback{}, ErrInvalidSignature
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Callback{}, fmt.Errorf("decode callback data: %w", err)
	}
	var cb Callback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return Callback{}, fmt.Errorf("decode callback json: %w", err)
	}
	return cb, nil
}

// Status asks the gateway for the current state of an order.
func (c *Client) Status(ctx context.Context, orderID string) (Callback, error) {
	if !c.Configured() {
		return Callback{}, ErrNotConfigured
	}
	data, sig, err := c.encode(map[string]any{
		"version":    apiVersion,
		"public_key": c.cfg.PublicKey,
		"action":     "status",
		"order_id":   orderID,
	})
	if err != nil {
		return Callback{}, err
	}
	form := url.Values{"data": {data}, "signature": {sig}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Callback{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Callback{}, fmt.Errorf("liqpay status: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Callback{}, fmt.Errorf("read liqpay status: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Callback{}, fmt.Errorf("liqpay status: http %d", resp.StatusCode)
	}
	var cb Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return Callback{}, fmt.Errorf("decode liqpay status: %w", err)
	}
	// result=error is a failed API call, not a failed payment
	if cb.Result == "error" {
		if cb.ErrCode == errCodePaymentNotFound {
			return Callback{OrderID: orderID}, ErrOrderNotFound
		}
		return Callback{}, fmt.Errorf("liqpay status: %s: %s", cb.ErrCode, cb.ErrDescription)
	}
	c.log.Debug().Str("order_id", orderID).Str("status", cb.Status).Dur("took", time.Since(start)).Msg("liqpay status fetched")
	return cb, nil
}

// MapStatus folds a LiqPay status into a payment status. Anything not
// explicitly final stays pending.
func MapStatus(liqpayStatus string) string {
	switch liqpayStatus {
	case "success", "sandbox":
		return model.PaymentPaid
	case "failure", "error", "reversed":
		return model.PaymentFailed
	default:
		return model.PaymentPending
	}
}
