package handler

import (
	"context"
	"net/http"

	"coursepay/internal/config"
	"coursepay/internal/middleware"
	"coursepay/internal/repository"
	"coursepay/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutService interface {
	BuyNow(ctx context.Context, userID int64, in usecase.BuyNowInput) (usecase.CheckoutOutput, error)
	CartCheckout(ctx context.Context, userID int64) (usecase.CheckoutOutput, error)
}

// /checkoutのHTTP
type CheckoutHandler struct {
	uc CheckoutService
}

// DI
func NewCheckoutHandler(uc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type BuyNowRequest struct {
	CourseID   int64  `json:"course_id"`
	CouponCode string `json:"coupon_code"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/checkout")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("/buy-now", h.buyNow)
	g.POST("/cart", h.cart)
}

func (h *CheckoutHandler) buyNow(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req BuyNowRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.BuyNow(c.Request().Context(), userID, usecase.BuyNowInput{
		CourseID:   req.CourseID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) cart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.CartCheckout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
