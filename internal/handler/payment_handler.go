package handler

import (
	"context"
	"net/http"

	"coursepay/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentCallbackService interface {
	HandleNotification(ctx context.Context, cb usecase.PaymentCallback) (usecase.CallbackResult, error)
	HandleReturn(ctx context.Context, cb usecase.PaymentCallback) (usecase.CallbackResult, error)
}

// MoMoからのコールバック。認証は署名で行う（JWTは使わない）
type PaymentHandler struct {
	uc PaymentCallbackService
}

func NewPaymentHandler(uc PaymentCallbackService) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// IPNはJSON、リダイレクトはquery。数値はqueryだと文字列なのでbindで変換する
type MomoCallbackRequest struct {
	PartnerCode  string `json:"partnerCode" query:"partnerCode"`
	OrderID      string `json:"orderId" query:"orderId"`
	RequestID    string `json:"requestId" query:"requestId"`
	Amount       int64  `json:"amount" query:"amount"`
	OrderInfo    string `json:"orderInfo" query:"orderInfo"`
	OrderType    string `json:"orderType" query:"orderType"`
	TransID      int64  `json:"transId" query:"transId"`
	ResultCode   int    `json:"resultCode" query:"resultCode"`
	Message      string `json:"message" query:"message"`
	PayType      string `json:"payType" query:"payType"`
	ResponseTime int64  `json:"responseTime" query:"responseTime"`
	ExtraData    string `json:"extraData" query:"extraData"`
	Signature    string `json:"signature" query:"signature"`
}

func (r MomoCallbackRequest) toCallback() usecase.PaymentCallback {
	return usecase.PaymentCallback{
		PartnerCode:  r.PartnerCode,
		OrderID:      r.OrderID,
		RequestID:    r.RequestID,
		Amount:       r.Amount,
		OrderInfo:    r.OrderInfo,
		OrderType:    r.OrderType,
		TransID:      r.TransID,
		ResultCode:   r.ResultCode,
		Message:      r.Message,
		PayType:      r.PayType,
		ResponseTime: r.ResponseTime,
		ExtraData:    r.ExtraData,
		Signature:    r.Signature,
	}
}

type CallbackStatusResponse struct {
	Status      string `json:"status"`
	OrderNumber string `json:"order_number,omitempty"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/payments/momo")
	g.POST("/ipn", h.ipn)
	g.GET("/return", h.redirectReturn)
}

func (h *PaymentHandler) ipn(c echo.Context) error {
	var req MomoCallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.OrderID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid orderId"})
	}

	res, err := h.uc.HandleNotification(c.Request().Context(), req.toCallback())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, CallbackStatusResponse{Status: string(res.Status)})
}

func (h *PaymentHandler) redirectReturn(c echo.Context) error {
	var req MomoCallbackRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}
	if req.OrderID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid orderId"})
	}

	res, err := h.uc.HandleReturn(c.Request().Context(), req.toCallback())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, CallbackStatusResponse{
		Status:      string(res.Status),
		OrderNumber: res.OrderNumber,
	})
}
