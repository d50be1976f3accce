package middleware

import (
	"net/http"

	"coursepay/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// AuthJWTが入れたroleが指定のどれかであることを確認する。
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(string)
			if !ok || role == "" {
				return unauthorized(c)
			}

			for _, r := range roles {
				if model.Role(role) == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
		}
	}
}

// 管理者用API（注文一覧・期限切れ）
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}
