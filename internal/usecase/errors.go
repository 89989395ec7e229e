package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"farmmarket/internal/domain/model"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 入力不正（呼び出し側が直して再試行できる）
func NewValidationError(message string) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

// 参照先が存在しない
func NewNotFoundError() error {
	return NewHTTPError(http.StatusNotFound, "not found")
}

// 必要なrole/所有関係がない
func NewAuthorizationError() error {
	return NewHTTPError(http.StatusForbidden, "forbidden")
}

// 在庫不足。どの商品で失敗したかをメッセージに含める
func NewInsufficientStockError(productID int64) error {
	return NewHTTPError(http.StatusConflict, fmt.Sprintf("insufficient stock for product %d", productID))
}

// 現在のステータスから許可されていない遷移
func NewInvalidTransitionError(from, to model.OrderStatus) error {
	return NewHTTPError(http.StatusConflict, fmt.Sprintf("invalid transition %s -> %s", from, to))
}
