package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateVariant = errors.New("duplicate (size, color) variant")
	ErrNegativeValue    = errors.New("stock/price/cost must not be negative")
)

// AddProductInput 新增商品。圖片已由上層上傳完成，這裡只收 URL
type AddProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	SubCategory string
	Bestseller  bool
	Sizes       []string
	Colors      []string
	ColorImages map[string][]string
	Images      []string
	Variants    []model.ProductVariant
}

// EditProductInput 部分更新，nil 欄位不動
type EditProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	SubCategory *string
	Bestseller  *bool
	Sizes       []string
	Colors      []string
	ColorImages map[string][]string
	Images      []string
	Variants    []model.ProductVariant
}

type RestockItem struct {
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

type ICatalogService interface {
	AddProduct(ctx context.Context, input AddProductInput) (*model.Product, error)
	EditProduct(ctx context.Context, productID uint, input EditProductInput) (*model.Product, error)
	RemoveProduct(ctx context.Context, productID uint) error
	GetProduct(ctx context.Context, productID uint) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, name, category string) ([]model.Product, error)
	Restock(ctx context.Context, productID uint, items []RestockItem) ([]RestockResult, error)
}

type CatalogService struct {
	productRepo db.IProductRepository
}

func NewCatalogService(productRepo db.IProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

// validateVariants 同一 (size, color) 最多一個變體
func validateVariants(variants []model.ProductVariant) error {
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		key := v.Size + "|" + v.Color
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: (%s/%s)", ErrDuplicateVariant, v.Size, v.Color)
		}
		seen[key] = struct{}{}

		if v.Price.IsNegative() || v.Cost.IsNegative() {
			return fmt.Errorf("%w: (%s/%s)", ErrNegativeValue, v.Size, v.Color)
		}
	}
	return nil
}

func (s *CatalogService) AddProduct(ctx context.Context, input AddProductInput) (*model.Product, error) {
	if err := validateVariants(input.Variants); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		Bestseller:  input.Bestseller,
		Sizes:       input.Sizes,
		Colors:      input.Colors,
		ColorImages: input.ColorImages,
		Images:      input.Images,
		Variants:    input.Variants,
	}

	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// EditProduct 管理端整組替換變體矩陣：庫存填的是絕對值，不是增量
func (s *CatalogService) EditProduct(ctx context.Context, productID uint, input EditProductInput) (*model.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotExist
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.SubCategory != nil {
		product.SubCategory = *input.SubCategory
	}
	if input.Bestseller != nil {
		product.Bestseller = *input.Bestseller
	}
	if input.Sizes != nil {
		product.Sizes = input.Sizes
	}
	if input.Colors != nil {
		product.Colors = input.Colors
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if len(input.ColorImages) > 0 {
		if product.ColorImages == nil {
			product.ColorImages = map[string][]string{}
		}
		for color, urls := range input.ColorImages {
			product.ColorImages[color] = urls
		}
	}

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	if input.Variants != nil {
		if err := validateVariants(input.Variants); err != nil {
			return nil, err
		}
		if err := s.productRepo.ReplaceVariants(ctx, productID, input.Variants); err != nil {
			return nil, err
		}
	}

	return s.productRepo.GetProductByID(ctx, productID)
}

func (s *CatalogService) RemoveProduct(ctx context.Context, productID uint) error {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotExist
	}
	return s.productRepo.HardDeleteProduct(ctx, productID)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID uint) (*model.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotExist
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.GetAllProducts(ctx)
}

// SearchProducts 名稱/分類搜尋，兩個條件都空時等同列出全部
func (s *CatalogService) SearchProducts(ctx context.Context, name, category string) ([]model.Product, error) {
	return s.productRepo.SearchProducts(ctx, name, category)
}

// Restock 補貨為加法操作。數量 <= 0 或比對不到變體的項目照舊跳過，
// 但逐項回報結果，呼叫端可以看見被跳過的項目
func (s *CatalogService) Restock(ctx context.Context, productID uint, items []RestockItem) ([]RestockResult, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotExist
	}

	results := make([]RestockResult, 0, len(items))
	for _, item := range items {
		result := RestockResult{
			Size:      item.Size,
			Color:     item.Color,
			Requested: item.Quantity,
		}

		if item.Quantity <= 0 {
			result.Reason = "quantity must be positive"
			results = append(results, result)
			continue
		}

		applied, err := s.productRepo.AddVariantStock(ctx, productID, item.Size, item.Color, uint(item.Quantity))
		if err != nil {
			return results, err
		}
		result.Applied = applied
		if !applied {
			result.Reason = "variant not found"
		}
		results = append(results, result)
	}

	return results, nil
}

var _ ICatalogService = (*CatalogService)(nil)
