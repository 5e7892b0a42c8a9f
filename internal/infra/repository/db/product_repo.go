package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrVariantNotFound 變體 (size, color) 不存在
	ErrVariantNotFound = errors.New("product variant not found")
	// ErrStockNotEnough 變體庫存不足，guarded update 沒有命中任何 row
	ErrStockNotEnough = errors.New("product variant stock not enough")
)

type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, productID uint) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, name, category string) ([]model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	HardDeleteProduct(ctx context.Context, productID uint) error
	ReplaceVariants(ctx context.Context, productID uint, variants []model.ProductVariant) error
	AddVariantStock(ctx context.Context, productID uint, size, color string, quantity uint) (bool, error)
	DeductVariantStock(ctx context.Context, productID uint, size, color string, quantity uint) error
}

type ProductRepo struct {
	db *DbDao
}

func NewProductRepo(db *DbDao) *ProductRepo {
	return &ProductRepo{db: db}
}

func (s *ProductRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	return s.db.WithContext(ctx).Create(product).Error
}

func (s *ProductRepo) GetProductByID(ctx context.Context, productID uint) (*model.Product, error) {
	var product model.Product
	err := s.db.WithContext(ctx).Preload("Variants").First(&product, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductRepo) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := s.db.WithContext(ctx).Preload("Variants").Find(&products).Error
	return products, err
}

// SearchProducts 名稱模糊比對、分類精確比對，條件都是可選的
func (s *ProductRepo) SearchProducts(ctx context.Context, name, category string) ([]model.Product, error) {
	query := s.db.WithContext(ctx).Model(&model.Product{})
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var products []model.Product
	err := query.Preload("Variants").Find(&products).Error
	return products, err
}

// Update - 更新商品主檔，variants 另走 ReplaceVariants
func (s *ProductRepo) UpdateProduct(ctx context.Context, product *model.Product) error {
	return s.db.WithContext(ctx).Omit("Variants").Save(product).Error
}

// Delete - 硬刪除商品，變體跟著級聯刪除
func (s *ProductRepo) HardDeleteProduct(ctx context.Context, productID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("product_id = ?", productID).Delete(&model.ProductVariant{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Product{}, "product_id = ?", productID).Error
	})
}

// ReplaceVariants 管理端整組替換變體矩陣，庫存為絕對值而非增量
func (s *ProductRepo) ReplaceVariants(ctx context.Context, productID uint, variants []model.ProductVariant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("product_id = ?", productID).Delete(&model.ProductVariant{}).Error; err != nil {
			return err
		}
		for i := range variants {
			variants[i].VariantID = 0
			variants[i].ProductID = productID
		}
		if len(variants) == 0 {
			return nil
		}
		return tx.Create(&variants).Error
	})
}

// AddVariantStock 補貨。沒有命中變體時回傳 (false, nil)，由呼叫端決定要不要回報
func (s *ProductRepo) AddVariantStock(ctx context.Context, productID uint, size, color string, quantity uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("product_id = ? AND size = ? AND color = ?", productID, size, color).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeductVariantStock guarded 扣庫存，條件 stock >= quantity 由資料庫原子判定
func (s *ProductRepo) DeductVariantStock(ctx context.Context, productID uint, size, color string, quantity uint) error {
	return deductVariantStock(s.db.WithContext(ctx), productID, size, color, quantity)
}

func deductVariantStock(tx *gorm.DB, productID uint, size, color string, quantity uint) error {
	res := tx.Model(&model.ProductVariant{}).
		Where("product_id = ? AND size = ? AND color = ? AND stock >= ?", productID, size, color, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d (%s/%s)", ErrStockNotEnough, productID, size, color)
	}
	return nil
}

var _ IProductRepository = (*ProductRepo)(nil)
