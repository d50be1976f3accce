package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"coursepay/internal/config"
	"coursepay/internal/middleware"
	"coursepay/internal/repository"
	"coursepay/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
	admin.POST("/orders/:id/expire", h.expire)
}

// GET /admin/orders?page=&limit=&status=&user_id=&from=&to=
type AdminOrderQuery struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Status string `query:"status"`
	UserID int64  `query:"user_id"`
	From   string `query:"from"` // RFC3339
	To     string `query:"to"`   // RFC3339
}

func (q AdminOrderQuery) toFilter() (repository.AdminOrderListFilter, error) {
	f := repository.AdminOrderListFilter{
		Page:   q.Page,
		Limit:  q.Limit,
		Status: strings.ToUpper(strings.TrimSpace(q.Status)),
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if q.UserID > 0 {
		uid := q.UserID
		f.UserID = &uid
	}
	for _, p := range []struct {
		raw string
		dst **time.Time
	}{{q.From, &f.From}, {q.To, &f.To}} {
		if p.raw == "" {
			continue
		}
		tm, err := time.Parse(time.RFC3339, p.raw)
		if err != nil {
			return repository.AdminOrderListFilter{}, err
		}
		*p.dst = &tm
	}
	return f, nil
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	var q AdminOrderQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}
	f, err := q.toFilter()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid period"})
	}

	out, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) expire(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	// ★操作した管理者IDを取得（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Expire(c.Request().Context(), adminID, orderID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "expired"})
}
