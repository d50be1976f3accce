package momo

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coursepay/internal/usecase"
)

const createPath = "/v2/gateway/api/create"

var (
	ErrSignatureMismatch   = errors.New("momo: signature mismatch")
	ErrPartnerCodeMismatch = errors.New("momo: partner code mismatch")
)

type Config struct {
	Endpoint    string
	PartnerCode string
	AccessKey   string
	SecretKey   string
	RequestType string
	RedirectURL string
	IPNURL      string
	Lang        string
	Timeout     time.Duration
}

type Client struct {
	cfg   Config
	http  *http.Client
	idGen usecase.IDGenerator
}

func NewClient(cfg Config, idGen usecase.IDGenerator) *Client {
	if cfg.RequestType == "" {
		cfg.RequestType = "captureWallet"
	}
	if cfg.Lang == "" {
		cfg.Lang = "vi"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		idGen: idGen,
	}
}

type createRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type createResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message"`
	ResultCode   int    `json:"resultCode"`
	PayURL       string `json:"payUrl"`
}

// 決済セッションを作る。resultCode 0 かつ payUrl ありで成功。
func (c *Client) CreatePayment(ctx context.Context, req usecase.PaymentRequest) (usecase.PaymentSession, error) {
	body := createRequest{
		PartnerCode: c.cfg.PartnerCode,
		AccessKey:   c.cfg.AccessKey,
		RequestID:   c.idGen.NewID(),
		Amount:      req.Amount,
		OrderID:     req.OrderNumber,
		OrderInfo:   req.OrderInfo,
		RedirectURL: c.cfg.RedirectURL,
		IpnURL:      c.cfg.IPNURL,
		ExtraData:   "",
		RequestType: c.cfg.RequestType,
		Lang:        c.cfg.Lang,
	}
	body.Signature = Sign(c.cfg.SecretKey, createRawSignature(c.cfg.AccessKey, body))

	payload, err := json.Marshal(body)
	if err != nil {
		return usecase.PaymentSession{}, fmt.Errorf("momo: marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + createPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return usecase.PaymentSession{}, fmt.Errorf("momo: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return usecase.PaymentSession{}, fmt.Errorf("momo: create payment: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return usecase.PaymentSession{}, fmt.Errorf("momo: read response: %w", err)
	}

	var out createResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return usecase.PaymentSession{}, fmt.Errorf("momo: decode response (http %d): %w", resp.StatusCode, err)
	}
	if out.ResultCode != 0 || out.PayURL == "" {
		return usecase.PaymentSession{}, fmt.Errorf("momo: create payment rejected: resultCode=%d message=%q", out.ResultCode, out.Message)
	}

	return usecase.PaymentSession{RequestID: body.RequestID, PayURL: out.PayURL}, nil
}

// 署名とpartnerCodeを検証する
func (c *Client) VerifyCallback(cb usecase.PaymentCallback) error {
	if cb.PartnerCode != c.cfg.PartnerCode {
		return ErrPartnerCodeMismatch
	}
	expected := Sign(c.cfg.SecretKey, CallbackRawSignature(c.cfg.AccessKey, cb))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(cb.Signature))) {
		return ErrSignatureMismatch
	}
	return nil
}
