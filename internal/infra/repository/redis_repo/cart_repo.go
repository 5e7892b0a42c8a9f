package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var ErrInsufficientQuantity = errors.New("insufficient quantity")

// 購物車放 redis，一個 user 一個 hash
// field 格式: productID|size|color，value 為數量
type CartRepo struct {
	CartCache *redis.Client
}

type ICartRepository interface {
	Get(ctx context.Context, userID uint) (map[string]int, error)
	Delta(ctx context.Context, userID uint, field string, delta int) error
	Set(ctx context.Context, userID uint, field string, quantity int) error
	Clear(ctx context.Context, userID uint) error
}

func NewCartRepo(cartCache *redis.Client) *CartRepo {
	return &CartRepo{CartCache: cartCache}
}

func generateCartItemKey(userID uint) string {
	return fmt.Sprintf("cart:%d:items", userID)
}

// MakeItemField 組出 hash field，variant key 沿用前台的 "size|color" 形式
func MakeItemField(productID uint, size, color string) string {
	return fmt.Sprintf("%d|%s|%s", productID, size, color)
}

// SplitItemField 反向拆解 field，回傳 productID 與 "size|color"
func SplitItemField(field string) (uint, string, error) {
	parts := strings.SplitN(field, "|", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid cart item field: %s", field)
	}
	productID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid cart item field: %s", field)
	}
	return uint(productID), parts[1], nil
}

func (r *CartRepo) Get(ctx context.Context, userID uint) (map[string]int, error) {
	itemsKey := generateCartItemKey(userID)

	items, err := r.CartCache.HGetAll(ctx, itemsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}

	result := make(map[string]int, len(items))
	for field, quantityStr := range items {
		quantity, err := strconv.Atoi(quantityStr)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity for item %s: %w", field, err)
		}
		if quantity > 0 {
			result[field] = quantity
		}
	}
	return result, nil
}

// Delta 原子增減數量，扣到 0 時直接刪掉 field
func (r *CartRepo) Delta(ctx context.Context, userID uint, field string, delta int) error {
	itemsKey := generateCartItemKey(userID)

	// 使用 Lua 腳本確保原子性
	luaScript := `
		local key = KEYS[1]
		local field = ARGV[1]
		local delta = tonumber(ARGV[2])

		if delta < 0 then
			local current = tonumber(redis.call('HGET', key, field) or "0")
			if current + delta < 0 then
				return -2
			end
			if current == -delta then
				redis.call('HDEL', key, field)
				return 0
			end
		end

		return redis.call('HINCRBY', key, field, delta)
	`

	result, err := r.CartCache.Eval(ctx, luaScript, []string{itemsKey}, field, delta).Result()
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	switch v := result.(type) {
	case int64:
		if v == -2 {
			return fmt.Errorf("%w: item %s", ErrInsufficientQuantity, field)
		}
		return nil
	default:
		return fmt.Errorf("unexpected result type: %T", result)
	}
}

// Set 設定絕對數量，0 等於刪除
func (r *CartRepo) Set(ctx context.Context, userID uint, field string, quantity int) error {
	itemsKey := generateCartItemKey(userID)

	if quantity == 0 {
		if err := r.CartCache.HDel(ctx, itemsKey, field).Err(); err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}
		return nil
	}

	if err := r.CartCache.HSet(ctx, itemsKey, field, quantity).Err(); err != nil {
		return fmt.Errorf("failed to set cart item: %w", err)
	}
	return nil
}

// Clear 清空購物車，下單成功後呼叫
func (r *CartRepo) Clear(ctx context.Context, userID uint) error {
	itemsKey := generateCartItemKey(userID)

	if err := r.CartCache.Del(ctx, itemsKey).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

var _ ICartRepository = (*CartRepo)(nil)
