package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
)

var (
	// ErrOutOfStock 要求數量超過變體目前庫存
	ErrOutOfStock = errors.New("requested quantity exceeds variant stock")
)

type ICartService interface {
	AddOne(ctx context.Context, userID, productID uint, size, color string) error
	SetQuantity(ctx context.Context, userID, productID uint, size, color string, quantity int) error
	GetCart(ctx context.Context, userID uint) (map[uint]map[string]int, error)
}

// CartService 加入購物車時用現時庫存做軟性檢查，
// 下單時 Order Reconciliation Engine 還會再硬性把關一次
type CartService struct {
	cartRepo    redis_repo.ICartRepository
	productRepo db.IProductRepository
}

func NewCartService(cartRepo redis_repo.ICartRepository, productRepo db.IProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *CartService) findVariantStock(ctx context.Context, productID uint, size, color string) (uint, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, fmt.Errorf("%w: product %d", ErrProductNotExist, productID)
	}

	variant := product.FindVariant(size, color)
	if variant == nil {
		return 0, fmt.Errorf("%w: product %d (%s/%s)", ErrVariantNotExist, productID, size, color)
	}
	return variant.Stock, nil
}

// AddOne 數量 +1，現有數量 +1 超過庫存時拒絕
func (s *CartService) AddOne(ctx context.Context, userID, productID uint, size, color string) error {
	stock, err := s.findVariantStock(ctx, productID, size, color)
	if err != nil {
		return err
	}

	field := redis_repo.MakeItemField(productID, size, color)
	items, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return err
	}

	current := items[field]
	if stock == 0 || current+1 > int(stock) {
		return fmt.Errorf("%w: product %d (%s/%s)", ErrOutOfStock, productID, size, color)
	}

	return s.cartRepo.Delta(ctx, userID, field, 1)
}

// SetQuantity 設定絕對數量，0 代表移除該項目
func (s *CartService) SetQuantity(ctx context.Context, userID, productID uint, size, color string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	stock, err := s.findVariantStock(ctx, productID, size, color)
	if err != nil {
		return err
	}

	if quantity > int(stock) {
		return fmt.Errorf("%w: product %d (%s/%s)", ErrOutOfStock, productID, size, color)
	}

	field := redis_repo.MakeItemField(productID, size, color)
	return s.cartRepo.Set(ctx, userID, field, quantity)
}

// GetCart 回傳 productID -> "size|color" -> 數量 的巢狀結構
func (s *CartService) GetCart(ctx context.Context, userID uint) (map[uint]map[string]int, error) {
	items, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart := make(map[uint]map[string]int)
	for field, quantity := range items {
		productID, variantKey, err := redis_repo.SplitItemField(field)
		if err != nil {
			continue
		}
		if cart[productID] == nil {
			cart[productID] = make(map[string]int)
		}
		cart[productID][variantKey] = quantity
	}
	return cart, nil
}

var _ ICartService = (*CartService)(nil)
