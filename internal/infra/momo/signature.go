package momo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"coursepay/internal/usecase"
)

// HMAC-SHA256の16進文字列
func Sign(secretKey string, raw string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// 決済作成リクエストの署名対象（キーはアルファベット順）
func createRawSignature(accessKey string, req createRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		accessKey,
		req.Amount,
		req.ExtraData,
		req.IpnURL,
		req.OrderID,
		req.OrderInfo,
		req.PartnerCode,
		req.RedirectURL,
		req.RequestID,
		req.RequestType,
	)
}

// コールバック（IPN・リダイレクト共通）の署名対象
func CallbackRawSignature(accessKey string, cb usecase.PaymentCallback) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		accessKey,
		cb.Amount,
		cb.ExtraData,
		cb.Message,
		cb.OrderID,
		cb.OrderInfo,
		cb.OrderType,
		cb.PartnerCode,
		cb.PayType,
		cb.RequestID,
		cb.ResponseTime,
		cb.ResultCode,
		cb.TransID,
	)
}
