package server

import (
	"farmmarket/internal/config"
	"farmmarket/internal/handler"
	"farmmarket/internal/middleware"
	"farmmarket/internal/repository"

	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ルート登録に必要なhandler一式。
type Handlers struct {
	Auth          *handler.AuthHandler
	Product       *handler.ProductHandler
	FarmerProduct *handler.FarmerProductHandler
	Order         *handler.OrderHandler
	FarmerOrder   *handler.FarmerOrderHandler
	Audit         *handler.AuditHandler
}

func New(cfg config.Config, h Handlers, userRepo repository.UserRepository) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowCredentials: true,
	}))

	RegisterRoutes(e, cfg, h, userRepo)

	return e
}

func Start(e *echo.Echo, cfg config.Config) error {
	return e.Start(":" + cfg.Port)
}
