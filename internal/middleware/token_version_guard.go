package middleware

import (
	"coursepay/internal/repository"

	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろに置く。
// tvがDBのtoken_versionと違う、または利用停止中なら強制ログアウト扱い（401）。
func TokenVersionGuard(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(CtxUserIDKey).(int64)
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if userID <= 0 || !ok || tv < 0 {
				return unauthorized(c)
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil {
				return unauthorized(c)
			}
			if user.TokenVersion != tv || !user.IsActive {
				return unauthorized(c)
			}

			return next(c)
		}
	}
}
