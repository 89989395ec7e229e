package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"farmmarket/internal/domain/model"
	repo "farmmarket/internal/repository"
	"farmmarket/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByBuyerID(ctx context.Context, buyerID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, buyerID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) ListBySellerID(ctx context.Context, sellerID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, sellerID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) MarkPaid(ctx context.Context, orderID int64, paidAt time.Time) error {
	args := m.Called(ctx, orderID, paidAt)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, buyerID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) ListByOwnerID(ctx context.Context, ownerID int64) ([]model.Product, error) {
	args := m.Called(ctx, ownerID)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func newOrderTxFixture() (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *InventoryRepoMock, *ProductRepoMock, *AuditRepoMock) {
	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	inv := new(InventoryRepoMock)
	products := new(ProductRepoMock)
	audit := new(AuditRepoMock)

	tx.Repos = &TxReposMock{
		orders:     orders,
		orderItems: items,
		inventory:  inv,
		products:   products,
		auditLogs:  audit,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	return tx, orders, items, inv, products, audit
}

// =====================
// PlaceOrder tests
// =====================

func TestOrderUsecase_PlaceOrder_NoItems(t *testing.T) {
	tx := new(TxManagerMock)
	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:           nil,
		DeliveryAddress: "somewhere",
		IdempotencyKey:  "key-1",
	})
	assertErrContains(t, err, "items required")
}

func TestOrderUsecase_PlaceOrder_InvalidQuantity(t *testing.T) {
	tx := new(TxManagerMock)
	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{ProductID: 10, Quantity: 0}},
		DeliveryAddress: "somewhere",
		IdempotencyKey:  "key-1",
	})
	assertErrContains(t, err, "quantity")
}

func TestOrderUsecase_PlaceOrder_MissingAddress(t *testing.T) {
	tx := new(TxManagerMock)
	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{ProductID: 10, Quantity: 1}},
		DeliveryAddress: "  ",
		IdempotencyKey:  "key-1",
	})
	assertErrContains(t, err, "delivery_address")
}

func TestOrderUsecase_PlaceOrder_MissingIdempotencyKey(t *testing.T) {
	tx := new(TxManagerMock)
	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.PlaceOrder(context.Background(), 1, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{ProductID: 10, Quantity: 1}},
		DeliveryAddress: "somewhere",
		IdempotencyKey:  "",
	})
	assertErrContains(t, err, "idempotency_key")
}

func TestOrderUsecase_PlaceOrder_Success_SnapshotsAndTotal(t *testing.T) {
	ctx := context.Background()
	tx, orders, items, inv, products, _ := newOrderTxFixture()

	buyerID := int64(7)
	key := "key-success"

	orders.On("FindByIdempotencyKey", mock.Anything, buyerID, key).Return(model.Order{}, false, nil)

	products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, OwnerID: 100, Name: "トマト", UnitPrice: decimal.NewFromInt(300), IsAvailable: true,
	}, nil)
	products.On("FindByID", mock.Anything, int64(11)).Return(model.Product{
		ID: 11, OwnerID: 101, Name: "にんじん", UnitPrice: decimal.NewFromInt(150), IsAvailable: true,
	}, nil)

	inv.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).Return(true, nil)
	inv.On("DecreaseStockIfEnough", mock.Anything, int64(11), int64(4)).Return(true, nil)

	orders.On("Create", mock.Anything, mock.Anything).Return(int64(55), nil)
	items.On("CreateBulk", mock.Anything, int64(55), mock.Anything).Return(nil)

	uc := usecase.NewOrderUsecase(tx)

	out, err := uc.PlaceOrder(ctx, buyerID, usecase.PlaceOrderInput{
		Items: []usecase.OrderLineInput{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 4},
		},
		DeliveryAddress: "東京都どこか1-2-3",
		IdempotencyKey:  key,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(55), out.ID)
	assert.Equal(t, string(model.OrderStatusPending), out.Status)

	// 300*2 + 150*4 = 1200
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(1200)), "total=%s", out.TotalAmount)

	// スナップショットが商品から写されている
	assert.Equal(t, 2, len(out.Items))
	assert.Equal(t, "トマト", out.Items[0].Name)
	assert.Equal(t, int64(100), out.Items[0].OwnerID)

	orders.AssertExpectations(t)
	items.AssertExpectations(t)
	inv.AssertExpectations(t)
}

func TestOrderUsecase_PlaceOrder_InsufficientStock_AbortsWholeOrder(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, inv, products, _ := newOrderTxFixture()

	buyerID := int64(7)
	key := "key-short"

	orders.On("FindByIdempotencyKey", mock.Anything, buyerID, key).Return(model.Order{}, false, nil)

	products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, OwnerID: 100, Name: "トマト", UnitPrice: decimal.NewFromInt(300), IsAvailable: true,
	}, nil)
	products.On("FindByID", mock.Anything, int64(11)).Return(model.Product{
		ID: 11, OwnerID: 101, Name: "にんじん", UnitPrice: decimal.NewFromInt(150), IsAvailable: true,
	}, nil)

	//1行目は成功、2行目で在庫不足
	inv.On("DecreaseStockIfEnough", mock.Anything, int64(10), int64(2)).Return(true, nil)
	inv.On("DecreaseStockIfEnough", mock.Anything, int64(11), int64(99)).Return(false, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.PlaceOrder(ctx, buyerID, usecase.PlaceOrderInput{
		Items: []usecase.OrderLineInput{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 99},
		},
		DeliveryAddress: "somewhere",
		IdempotencyKey:  key,
	})

	assertErrContains(t, err, "insufficient stock for product 11")

	//注文は一切作られない（txロールバック前提）
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_PlaceOrder_NotAvailableProduct(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, inv, products, _ := newOrderTxFixture()

	orders.On("FindByIdempotencyKey", mock.Anything, int64(7), "key-x").Return(model.Order{}, false, nil)
	products.On("FindByID", mock.Anything, int64(10)).Return(model.Product{
		ID: 10, OwnerID: 100, Name: "非公開", UnitPrice: decimal.NewFromInt(300), IsAvailable: false,
	}, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.PlaceOrder(ctx, 7, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{ProductID: 10, Quantity: 1}},
		DeliveryAddress: "somewhere",
		IdempotencyKey:  "key-x",
	})

	assertErrContains(t, err, "not available")
	inv.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_PlaceOrder_IdempotentReplay_ReturnsExisting(t *testing.T) {
	ctx := context.Background()
	tx, orders, items, inv, products, _ := newOrderTxFixture()

	buyerID := int64(7)
	key := "key-replay"

	existing := model.Order{
		ID:          55,
		BuyerID:     buyerID,
		Status:      model.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(1200),
	}

	orders.On("FindByIdempotencyKey", mock.Anything, buyerID, key).Return(existing, true, nil)
	items.On("ListByOrderID", mock.Anything, int64(55)).Return([]model.OrderItem{}, nil)

	uc := usecase.NewOrderUsecase(tx)

	out, err := uc.PlaceOrder(ctx, buyerID, usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{ProductID: 10, Quantity: 2}},
		DeliveryAddress: "somewhere",
		IdempotencyKey:  key,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(55), out.ID)

	//再送では在庫も注文作成も触らない
	inv.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// =====================
// Cancel / Pay tests
// =====================

func TestOrderUsecase_CancelMyOrder_Pending_RestocksItems(t *testing.T) {
	ctx := context.Background()
	tx, orders, items, inv, _, _ := newOrderTxFixture()

	orderID := int64(55)
	buyerID := int64(7)

	orders.On("FindByID", mock.Anything, orderID).Return(model.Order{
		ID: orderID, BuyerID: buyerID, Status: model.OrderStatusPending,
	}, nil)

	items.On("ListByOrderID", mock.Anything, orderID).Return([]model.OrderItem{
		{ProductID: 10, ProductOwnerID: 100, Quantity: 2},
		{ProductID: 11, ProductOwnerID: 101, Quantity: 4},
	}, nil)

	inv.On("IncreaseStock", mock.Anything, int64(10), int64(2)).Return(nil)
	inv.On("IncreaseStock", mock.Anything, int64(11), int64(4)).Return(nil)

	orders.On("UpdateStatus", mock.Anything, orderID, model.OrderStatusCancelled).Return(nil)

	uc := usecase.NewOrderUsecase(tx)

	out, err := uc.CancelMyOrder(ctx, buyerID, orderID)
	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusCancelled), out.Status)

	orders.AssertExpectations(t)
	inv.AssertExpectations(t)
}

func TestOrderUsecase_CancelMyOrder_AlreadyCancelled_NoRestock(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, inv, _, _ := newOrderTxFixture()

	orders.On("FindByID", mock.Anything, int64(55)).Return(model.Order{
		ID: 55, BuyerID: 7, Status: model.OrderStatusCancelled,
	}, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.CancelMyOrder(ctx, 7, 55)
	assertErrContains(t, err, "invalid transition")

	//二重キャンセルで在庫が二重に戻らない
	inv.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_CancelMyOrder_Confirmed_BuyerCannot(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, inv, _, _ := newOrderTxFixture()

	orders.On("FindByID", mock.Anything, int64(55)).Return(model.Order{
		ID: 55, BuyerID: 7, Status: model.OrderStatusConfirmed,
	}, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.CancelMyOrder(ctx, 7, 55)
	assertErrContains(t, err, "invalid transition")
	inv.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_CancelMyOrder_OtherBuyer_Forbidden(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _ := newOrderTxFixture()

	orders.On("FindByID", mock.Anything, int64(55)).Return(model.Order{
		ID: 55, BuyerID: 999, Status: model.OrderStatusPending,
	}, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.CancelMyOrder(ctx, 7, 55)
	assertErrContains(t, err, "forbidden")
}

func TestOrderUsecase_PayMyOrder_Success(t *testing.T) {
	ctx := context.Background()
	tx, orders, items, _, _, _ := newOrderTxFixture()

	orders.On("FindByID", mock.Anything, int64(55)).Return(model.Order{
		ID: 55, BuyerID: 7, Status: model.OrderStatusPending,
	}, nil)
	orders.On("MarkPaid", mock.Anything, int64(55), mock.Anything).Return(nil)
	items.On("ListByOrderID", mock.Anything, int64(55)).Return([]model.OrderItem{}, nil)

	uc := usecase.NewOrderUsecase(tx)

	out, err := uc.PayMyOrder(ctx, 7, 55)
	assert.NoError(t, err)
	assert.NotNil(t, out.PaidAt)

	orders.AssertExpectations(t)
}

func TestOrderUsecase_PayMyOrder_AlreadyPaid(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _ := newOrderTxFixture()

	paidAt := time.Now()
	orders.On("FindByID", mock.Anything, int64(55)).Return(model.Order{
		ID: 55, BuyerID: 7, Status: model.OrderStatusConfirmed, PaidAt: &paidAt,
	}, nil)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.PayMyOrder(ctx, 7, 55)
	assertErrContains(t, err, "already paid")
	orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_GetMyOrderDetail_OtherBuyer_NotFound(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _ := newOrderTxFixture()

	orders.On("FindByID", mock.Anything, int64(55)).Return(model.Order{
		ID: 55, BuyerID: 999, Status: model.OrderStatusPending,
	}, nil)

	uc := usecase.NewOrderUsecase(tx)

	//他人の注文は存在自体を知らせない
	_, err := uc.GetMyOrderDetail(ctx, 7, 55)
	assertErrContains(t, err, "not found")
}

func TestOrderUsecase_GetMyOrderDetail_NotFound(t *testing.T) {
	ctx := context.Background()
	tx, orders, _, _, _, _ := newOrderTxFixture()

	orders.On("FindByID", mock.Anything, int64(404)).Return(model.Order{}, repo.ErrNotFound)

	uc := usecase.NewOrderUsecase(tx)

	_, err := uc.GetMyOrderDetail(ctx, 7, 404)
	assertErrContains(t, err, "not found")
}
