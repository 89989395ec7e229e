package handler

import (
	"net/http"
	"strconv"

	"farmmarket/internal/config"
	"farmmarket/internal/middleware"
	"farmmarket/internal/repository"
	"farmmarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ProductUpsertRequest は作成と更新で共用します。
type ProductUpsertRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Stock       int64           `json:"stock"`
	IsAvailable bool            `json:"is_available"`
}

// StockUpdateRequest は在庫更新の入力です。
type StockUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// /farmer/products をまとめる
type FarmerProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewFarmerProductHandler(uc *usecase.ProductUsecase) *FarmerProductHandler {
	return &FarmerProductHandler{uc: uc}
}

// farmerを登録
func (h *FarmerProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	farmer := e.Group("/farmer")

	farmer.Use(middleware.AuthJWT(cfg))
	farmer.Use(middleware.TokenVersionGuard(userRepo))
	farmer.Use(middleware.FarmerRoleGuard())

	farmer.GET("/products", h.listMyProducts)
	farmer.POST("/products", h.createProduct)
	farmer.PUT("/products/:id", h.updateProduct)
	farmer.DELETE("/products/:id", h.deleteProduct)
	farmer.PUT("/products/:id/stock", h.updateStock)
}

func (h *FarmerProductHandler) listMyProducts(c echo.Context) error {
	ownerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	items, err := h.uc.ListMyProducts(c.Request().Context(), ownerID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, items)
}

func (h *FarmerProductHandler) createProduct(c echo.Context) error {
	var req ProductUpsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	ownerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	p, err := h.uc.CreateProduct(
		c.Request().Context(),
		ownerID,
		usecase.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Unit:        req.Unit,
			UnitPrice:   req.UnitPrice,
			Stock:       req.Stock,
			IsAvailable: req.IsAvailable,
		},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *FarmerProductHandler) updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ProductUpsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	ownerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	err = h.uc.UpdateProduct(
		c.Request().Context(),
		ownerID,
		id,
		usecase.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Unit:        req.Unit,
			UnitPrice:   req.UnitPrice,
			Stock:       req.Stock,
			IsAvailable: req.IsAvailable,
		},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *FarmerProductHandler) deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	ownerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.DeleteProduct(c.Request().Context(), ownerID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *FarmerProductHandler) updateStock(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	ownerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.UpdateStock(
		c.Request().Context(),
		ownerID,
		id,
		req.Stock,
		req.Reason,
	); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}
