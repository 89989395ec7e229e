package usecase_test

import (
	"context"
	"testing"

	"farmmarket/internal/domain/model"
	repo "farmmarket/internal/repository"
	"farmmarket/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newProductFixture() (*usecase.ProductUsecase, *ProductRepoMock, *InventoryRepoMock, *AuditRepoMock) {
	products := new(ProductRepoMock)
	inv := new(InventoryRepoMock)
	audit := new(AuditRepoMock)

	uc := usecase.NewProductUsecase(products, inv, audit)
	return uc, products, inv, audit
}

func validCreateInput() usecase.CreateProductInput {
	return usecase.CreateProductInput{
		Name:        "朝採れトマト",
		Description: "完熟",
		Category:    "vegetables",
		Unit:        "kg",
		UnitPrice:   decimal.NewFromInt(300),
		Stock:       10,
		IsAvailable: true,
	}
}

// =====================
// List tests
// =====================

func TestProductUsecase_List_InvalidPage(t *testing.T) {
	uc, _, _, _ := newProductFixture()

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 0, Limit: 20})
	assertErrContains(t, err, "invalid page")
}

func TestProductUsecase_List_InvalidSort(t *testing.T) {
	uc, _, _, _ := newProductFixture()

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20, Sort: "oldest"})
	assertErrContains(t, err, "invalid sort")
}

func TestProductUsecase_List_InvalidCategory(t *testing.T) {
	uc, _, _, _ := newProductFixture()

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20, Category: "cars"})
	assertErrContains(t, err, "invalid category")
}

func TestProductUsecase_List_PassesQueryToRepo(t *testing.T) {
	uc, products, _, _ := newProductFixture()

	want := repo.ProductListQuery{
		Page: 1, Limit: 20, Q: "トマト", Category: "vegetables", OnlyAvailable: true, Sort: "price_asc",
	}
	products.On("List", mock.Anything, want).Return([]model.Product{{ID: 1}}, int64(1), nil)

	out, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{
		Page: 1, Limit: 20, Q: "トマト", Category: "vegetables", OnlyAvailable: true, Sort: "price_asc",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, 1, len(out.Items))

	products.AssertExpectations(t)
}

// =====================
// Create / Update / Delete tests
// =====================

func TestProductUsecase_Create_InvalidCategory(t *testing.T) {
	uc, _, _, _ := newProductFixture()

	in := validCreateInput()
	in.Category = "cars"

	_, err := uc.CreateProduct(context.Background(), 100, in)
	assertErrContains(t, err, "invalid category")
}

func TestProductUsecase_Create_NegativePrice(t *testing.T) {
	uc, _, _, _ := newProductFixture()

	in := validCreateInput()
	in.UnitPrice = decimal.NewFromInt(-1)

	_, err := uc.CreateProduct(context.Background(), 100, in)
	assertErrContains(t, err, "unit_price")
}

func TestProductUsecase_Create_Success(t *testing.T) {
	uc, products, _, _ := newProductFixture()

	products.On("Create", mock.Anything, mock.Anything).Return(model.Product{ID: 1, OwnerID: 100}, nil)

	p, err := uc.CreateProduct(context.Background(), 100, validCreateInput())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	products.AssertExpectations(t)
}

func TestProductUsecase_Update_OtherOwner_Forbidden(t *testing.T) {
	uc, products, _, _ := newProductFixture()

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, OwnerID: 999}, nil)

	err := uc.UpdateProduct(context.Background(), 100, 1, validCreateInput())
	assertErrContains(t, err, "forbidden")
	products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProductUsecase_Update_NotFound(t *testing.T) {
	uc, products, _, _ := newProductFixture()

	products.On("FindByID", mock.Anything, int64(404)).Return(model.Product{}, repo.ErrNotFound)

	err := uc.UpdateProduct(context.Background(), 100, 404, validCreateInput())
	assertErrContains(t, err, "not found")
}

func TestProductUsecase_Delete_RepeatedDelete_NotFound(t *testing.T) {
	uc, products, _, _ := newProductFixture()

	//1回目の削除後はFindByIDがErrNotFoundを返すのでもう一度消すと404
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{}, repo.ErrNotFound)

	err := uc.DeleteProduct(context.Background(), 100, 1)
	assertErrContains(t, err, "not found")
	products.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestProductUsecase_Delete_OtherOwner_Forbidden(t *testing.T) {
	uc, products, _, _ := newProductFixture()

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, OwnerID: 999}, nil)

	err := uc.DeleteProduct(context.Background(), 100, 1)
	assertErrContains(t, err, "forbidden")
}

// =====================
// UpdateStock tests
// =====================

func TestProductUsecase_UpdateStock_NegativeStock(t *testing.T) {
	uc, _, _, _ := newProductFixture()

	err := uc.UpdateStock(context.Background(), 100, 1, -5, "棚卸し")
	assertErrContains(t, err, "stock must be >= 0")
}

func TestProductUsecase_UpdateStock_ReasonRequired(t *testing.T) {
	uc, _, _, _ := newProductFixture()

	err := uc.UpdateStock(context.Background(), 100, 1, 5, "  ")
	assertErrContains(t, err, "reason required")
}

func TestProductUsecase_UpdateStock_Success_WritesAdjustmentAndAudit(t *testing.T) {
	uc, products, inv, audit := newProductFixture()

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, OwnerID: 100, Stock: 10}, nil)
	inv.On("SetStock", mock.Anything, int64(1), int64(25)).Return(nil)

	//差分（25-10=15）が履歴に残る
	inv.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.ProductID == 1 && a.ActorUserID == 100 && a.Delta == 15
	})).Return(nil)

	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateStock && l.ResourceID == 1
	})).Return(nil)

	err := uc.UpdateStock(context.Background(), 100, 1, 25, "収穫を追加")
	assert.NoError(t, err)

	inv.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestProductUsecase_UpdateStock_OtherOwner_Forbidden(t *testing.T) {
	uc, products, inv, _ := newProductFixture()

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, OwnerID: 999, Stock: 10}, nil)

	err := uc.UpdateStock(context.Background(), 100, 1, 25, "棚卸し")
	assertErrContains(t, err, "forbidden")
	inv.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
}
