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

func newCatalogServiceForTest(t *testing.T) *CatalogService {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)

	dao := db.NewDbDao(conn)
	require.NoError(t, dao.InitMigrate())

	return NewCatalogService(db.NewProductRepo(dao))
}

func baseProductInput() AddProductInput {
	return AddProductInput{
		Name:        "Váy hoa nhí",
		Description: "Váy voan hoa nhí",
		Price:       decimal.NewFromInt(320000),
		Category:    "Women",
		SubCategory: "Dress",
		Sizes:       []string{"S", "M"},
		Colors:      []string{"Trắng"},
		Variants: []model.ProductVariant{
			{Size: "S", Color: "Trắng", Stock: 4, Cost: decimal.NewFromInt(180000)},
			{Size: "M", Color: "Trắng", Stock: 2, Cost: decimal.NewFromInt(180000)},
		},
	}
}

func TestAddProduct(t *testing.T) {
	svc := newCatalogServiceForTest(t)
	ctx := context.Background()

	product, err := svc.AddProduct(ctx, baseProductInput())
	require.NoError(t, err)
	require.NotZero(t, product.ProductID)

	got, err := svc.GetProduct(ctx, product.ProductID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 2)
}

func TestAddProduct_DuplicateVariant(t *testing.T) {
	svc := newCatalogServiceForTest(t)

	input := baseProductInput()
	input.Variants = append(input.Variants, model.ProductVariant{Size: "S", Color: "Trắng", Stock: 1})

	_, err := svc.AddProduct(context.Background(), input)
	require.ErrorIs(t, err, ErrDuplicateVariant)
}

func TestAddProduct_NegativePrice(t *testing.T) {
	svc := newCatalogServiceForTest(t)

	input := baseProductInput()
	input.Variants[0].Price = decimal.NewFromInt(-1)

	_, err := svc.AddProduct(context.Background(), input)
	require.ErrorIs(t, err, ErrNegativeValue)
}

func TestEditProduct_PartialUpdate(t *testing.T) {
	svc := newCatalogServiceForTest(t)
	ctx := context.Background()

	product, err := svc.AddProduct(ctx, baseProductInput())
	require.NoError(t, err)

	newName := "Váy hoa nhí v2"
	newPrice := decimal.NewFromInt(350000)
	got, err := svc.EditProduct(ctx, product.ProductID, EditProductInput{
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)

	// 沒帶的欄位不動
	require.Equal(t, "Váy hoa nhí v2", got.Name)
	require.True(t, got.Price.Equal(newPrice))
	require.Equal(t, "Women", got.Category)
	require.Len(t, got.Variants, 2)
}

func TestEditProduct_ReplacesVariantMatrix(t *testing.T) {
	svc := newCatalogServiceForTest(t)
	ctx := context.Background()

	product, err := svc.AddProduct(ctx, baseProductInput())
	require.NoError(t, err)

	// 變體為整組替換，庫存是絕對值
	got, err := svc.EditProduct(ctx, product.ProductID, EditProductInput{
		Variants: []model.ProductVariant{
			{Size: "L", Color: "Đỏ", Stock: 10},
		},
	})
	require.NoError(t, err)
	require.Len(t, got.Variants, 1)
	require.Equal(t, "L", got.Variants[0].Size)
	require.Equal(t, uint(10), got.Variants[0].Stock)
}

func TestEditProduct_NotExist(t *testing.T) {
	svc := newCatalogServiceForTest(t)

	_, err := svc.EditProduct(context.Background(), 9999, EditProductInput{})
	require.ErrorIs(t, err, ErrProductNotExist)
}

func TestRemoveProduct(t *testing.T) {
	svc := newCatalogServiceForTest(t)
	ctx := context.Background()

	product, err := svc.AddProduct(ctx, baseProductInput())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveProduct(ctx, product.ProductID))

	_, err = svc.GetProduct(ctx, product.ProductID)
	require.ErrorIs(t, err, ErrProductNotExist)

	require.ErrorIs(t, svc.RemoveProduct(ctx, product.ProductID), ErrProductNotExist)
}

func TestSearchProducts(t *testing.T) {
	svc := newCatalogServiceForTest(t)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, baseProductInput())
	require.NoError(t, err)

	second := baseProductInput()
	second.Name = "Áo sơ mi trắng"
	second.Category = "Men"
	_, err = svc.AddProduct(ctx, second)
	require.NoError(t, err)

	// 名稱模糊比對
	products, err := svc.SearchProducts(ctx, "sơ mi", "")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Áo sơ mi trắng", products[0].Name)

	// 分類精確比對
	products, err = svc.SearchProducts(ctx, "", "Women")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Váy hoa nhí", products[0].Name)

	// 兩個條件同時成立才命中
	products, err = svc.SearchProducts(ctx, "sơ mi", "Women")
	require.NoError(t, err)
	require.Empty(t, products)

	// 都空等同列出全部
	products, err = svc.SearchProducts(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestRestock_PerItemResults(t *testing.T) {
	svc := newCatalogServiceForTest(t)
	ctx := context.Background()

	product, err := svc.AddProduct(ctx, baseProductInput())
	require.NoError(t, err)

	results, err := svc.Restock(ctx, product.ProductID, []RestockItem{
		{Size: "S", Color: "Trắng", Quantity: 6},
		{Size: "XL", Color: "Trắng", Quantity: 3}, // 不存在的變體
		{Size: "M", Color: "Trắng", Quantity: 0},  // 非法數量
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.True(t, results[0].Applied)
	require.False(t, results[1].Applied)
	require.Equal(t, "variant not found", results[1].Reason)
	require.False(t, results[2].Applied)
	require.Equal(t, "quantity must be positive", results[2].Reason)

	got, _ := svc.GetProduct(ctx, product.ProductID)
	require.Equal(t, uint(10), got.FindVariant("S", "Trắng").Stock)
	require.Equal(t, uint(2), got.FindVariant("M", "Trắng").Stock)
}
