package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"farmmarket/internal/domain/model"
	repo "farmmarket/internal/repository"

	"github.com/shopspring/decimal"
)

// 出品者（農家）側の注文操作。
type SellerOrderUsecase struct {
	tx repo.TransactionManager
}

func NewSellerOrderUsecase(tx repo.TransactionManager) *SellerOrderUsecase {
	return &SellerOrderUsecase{tx: tx}
}

// 出品者に見せる注文。明細は自分の商品の分だけ。
type SellerOrderOutput struct {
	ID      int64  `json:"id"`
	BuyerID int64  `json:"buyer_id"`
	Status  string `json:"status"`
	//自分の明細分の小計
	SellerSubtotal  decimal.Decimal   `json:"seller_subtotal"`
	DeliveryAddress string            `json:"delivery_address"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type SellerUpdateOrderStatusInput struct {
	Status string
}

// 自分の商品を含む注文の一覧（明細は自分の分だけに絞る）
func (u *SellerOrderUsecase) ListSellerOrders(ctx context.Context, sellerID int64, page int, limit int) ([]SellerOrderOutput, error) {
	if sellerID <= 0 {
		return []SellerOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return []SellerOrderOutput{}, NewValidationError("invalid page")
	}
	if limit < 1 || limit > 100 {
		return []SellerOrderOutput{}, NewValidationError("invalid limit")
	}

	var outs []SellerOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListBySellerID(ctx, sellerID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]SellerOrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toSellerOrderOutput(o, items, sellerID))
		}
		return nil
	})

	if err != nil {
		return []SellerOrderOutput{}, err
	}
	return outs, nil
}

// ステータス更新。遷移テーブル外は拒否、CANCELLEDなら在庫戻し。
// 在庫戻しとステータス書き込みは同じtxで行う。
func (u *SellerOrderUsecase) UpdateStatus(ctx context.Context, sellerID int64, orderID int64, in SellerUpdateOrderStatusInput) error {
	if sellerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewValidationError("invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !model.IsValidOrderStatus(newStatus) {
		return NewValidationError("invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewNotFoundError()
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//自分の商品を1つ以上含む注文だけ操作できる
		if !containsSeller(items, sellerID) {
			return NewAuthorizationError()
		}

		//遷移テーブル外は拒否（終端は不変）
		if !model.CanTransition(o.Status, newStatus) {
			return NewInvalidTransitionError(o.Status, newStatus)
		}

		//キャンセルは予約の逆操作：全明細の在庫を戻す
		if newStatus == model.OrderStatusCancelled {
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if err == repo.ErrNotFound {
				return NewNotFoundError()
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログ（注文ステータス更新）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  sellerID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   fmt.Sprintf(`{"status":%q}`, o.Status),
			AfterJSON:    fmt.Sprintf(`{"status":%q}`, newStatus),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}

func containsSeller(items []model.OrderItem, sellerID int64) bool {
	for _, it := range items {
		if it.ProductOwnerID == sellerID {
			return true
		}
	}
	return false
}

func toSellerOrderOutput(o model.Order, items []model.OrderItem, sellerID int64) SellerOrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	subtotal := decimal.Zero

	for _, it := range items {
		if it.ProductOwnerID != sellerID {
			//他の出品者の明細は見せない
			continue
		}
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			OwnerID:   it.ProductOwnerID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
		subtotal = subtotal.Add(it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)))
	}

	return SellerOrderOutput{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		Status:          string(o.Status),
		SellerSubtotal:  subtotal,
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
