package middleware

import (
	"net/http"

	"farmmarket/internal/domain/model"

	"github.com/labstack/echo/v4"
)

//contextに入っているroleがFARMERかどうかを確認します。

func FarmerRoleGuard() echo.MiddlewareFunc {
	return requireRole(string(model.RoleFarmer), "farmer only")
}

//contextに入っているroleがBUYERかどうかを確認します。

func BuyerRoleGuard() echo.MiddlewareFunc {
	return requireRole(string(model.RoleBuyer), "buyer only")
}

func requireRole(want string, deniedMsg string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//役割が違えば403
			if role != want {
				return c.JSON(http.StatusForbidden, errorJSON(deniedMsg))
			}

			return next(c)
		}
	}
}
