package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newCartServiceForTest(t *testing.T) (*CartService, *fakeCartRepo, *model.Product) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)

	dao := db.NewDbDao(conn)
	require.NoError(t, dao.InitMigrate())

	productRepo := db.NewProductRepo(dao)
	product := &model.Product{
		Name:        "Quần jean slim",
		Description: "Quần jean co giãn",
		Price:       decimal.NewFromInt(250000),
		Category:    "Men",
		SubCategory: "Bottomwear",
		Variants: []model.ProductVariant{
			{Size: "30", Color: "Xanh", Stock: 2},
			{Size: "32", Color: "Xanh", Stock: 0},
		},
	}
	require.NoError(t, productRepo.CreateProduct(context.Background(), product))

	cartRepo := newFakeCartRepo()
	return NewCartService(cartRepo, productRepo), cartRepo, product
}

func TestCartAddOne_BoundedByStock(t *testing.T) {
	svc, cartRepo, product := newCartServiceForTest(t)
	ctx := context.Background()

	require.NoError(t, svc.AddOne(ctx, 1, product.ProductID, "30", "Xanh"))
	require.NoError(t, svc.AddOne(ctx, 1, product.ProductID, "30", "Xanh"))

	// 庫存 2 件，第三件要擋下
	err := svc.AddOne(ctx, 1, product.ProductID, "30", "Xanh")
	require.ErrorIs(t, err, ErrOutOfStock)

	items, _ := cartRepo.Get(ctx, 1)
	require.Equal(t, 2, items["1|30|Xanh"])
}

func TestCartAddOne_ZeroStockVariant(t *testing.T) {
	svc, _, product := newCartServiceForTest(t)

	err := svc.AddOne(context.Background(), 1, product.ProductID, "32", "Xanh")
	require.ErrorIs(t, err, ErrOutOfStock)
}

func TestCartAddOne_UnknownVariant(t *testing.T) {
	svc, _, product := newCartServiceForTest(t)

	err := svc.AddOne(context.Background(), 1, product.ProductID, "28", "Xanh")
	require.ErrorIs(t, err, ErrVariantNotExist)
}

func TestCartSetQuantity(t *testing.T) {
	svc, cartRepo, product := newCartServiceForTest(t)
	ctx := context.Background()

	require.NoError(t, svc.SetQuantity(ctx, 1, product.ProductID, "30", "Xanh", 2))

	items, _ := cartRepo.Get(ctx, 1)
	require.Equal(t, 2, items["1|30|Xanh"])

	// 超過庫存
	err := svc.SetQuantity(ctx, 1, product.ProductID, "30", "Xanh", 3)
	require.ErrorIs(t, err, ErrOutOfStock)

	// 負數
	err = svc.SetQuantity(ctx, 1, product.ProductID, "30", "Xanh", -1)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	// 設 0 移除項目
	require.NoError(t, svc.SetQuantity(ctx, 1, product.ProductID, "30", "Xanh", 0))
	items, _ = cartRepo.Get(ctx, 1)
	require.Empty(t, items)
}

func TestGetCart_GroupedByProduct(t *testing.T) {
	svc, cartRepo, product := newCartServiceForTest(t)
	ctx := context.Background()

	cartRepo.Set(ctx, 1, "1|30|Xanh", 2)
	cartRepo.Set(ctx, 1, "1|32|Xanh", 1)

	cart, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	require.Equal(t, 2, cart[product.ProductID]["30|Xanh"])
	require.Equal(t, 1, cart[product.ProductID]["32|Xanh"])
}
