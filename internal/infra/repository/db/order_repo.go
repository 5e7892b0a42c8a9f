package db

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound 訂單不存在
	ErrOrderNotFound = errors.New("order not found")
)

type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	CreateOrderWithStockDeduction(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderByTxnRef(ctx context.Context, txnRef string) (*model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error)
	SearchOrders(ctx context.Context, userID uint, status model.OrderStatus, start, end *time.Time) ([]model.Order, error)
	GetDeliveredOrders(ctx context.Context, start, end *time.Time) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	SetTerminalStatus(ctx context.Context, orderID string, status model.OrderStatus) (bool, error)
	MarkPaidIfUnpaid(ctx context.Context, txnRef, transactionNo string) (bool, error)
	MarkPaymentFailed(ctx context.Context, txnRef string) error
	SavePaymentCallback(ctx context.Context, cb *model.PaymentCallback) error
}

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create - 建立訂單，不碰庫存 (VNPay 下單走這裡)
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

// CreateOrderWithStockDeduction COD 下單：逐項 guarded 扣庫存 + 寫入訂單，
// 全部包在同一個交易裡，任何一項庫存不足就整筆回滾
func (s *OrderRepo) CreateOrderWithStockDeduction(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := deductVariantStock(tx, item.ProductID, item.Size, item.Color, uint(item.Quantity)); err != nil {
				return err
			}
		}
		return tx.Create(order).Error
	})
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderRepo) GetOrderByTxnRef(ctx context.Context, txnRef string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "vnpay_txn_ref = ?", txnRef).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderRepo) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("Items").Order("order_date DESC").Find(&orders).Error
	return orders, err
}

func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).Order("order_date DESC").Find(&orders).Error
	return orders, err
}

// 管理端搜尋，條件都是可選的
func (s *OrderRepo) SearchOrders(ctx context.Context, userID uint, status model.OrderStatus, start, end *time.Time) ([]model.Order, error) {
	query := s.db.WithContext(ctx).Model(&model.Order{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if start != nil && end != nil {
		query = query.Where("order_date BETWEEN ? AND ?", *start, *end)
	}

	var orders []model.Order
	err := query.Preload("Items").Order("order_date DESC").Find(&orders).Error
	return orders, err
}

// 營收報表用，只抓已送達的訂單
func (s *OrderRepo) GetDeliveredOrders(ctx context.Context, start, end *time.Time) ([]model.Order, error) {
	query := s.db.WithContext(ctx).Where("status = ?", model.OrderStatusDelivered)
	if start != nil && end != nil {
		query = query.Where("order_date BETWEEN ? AND ?", *start, *end)
	}

	var orders []model.Order
	err := query.Preload("Items").Find(&orders).Error
	return orders, err
}

func (s *OrderRepo) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ?", orderID).
		Update("status", status).Error
}

// SetTerminalStatus 設定取消/退貨終態，條件是目前還不是終態。
// 回傳 true 代表這次呼叫真的完成了轉移，庫存回補只跟著第一次走
func (s *OrderRepo) SetTerminalStatus(ctx context.Context, orderID string, status model.OrderStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status NOT IN ?", orderID, []model.OrderStatus{model.OrderStatusCancelled, model.OrderStatusReturned}).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// terminalStatuses 終態訂單不接受任何付款端的轉移
var terminalStatuses = []model.OrderStatus{model.OrderStatusCancelled, model.OrderStatusReturned}

// MarkPaidIfUnpaid 付款確認的冪等 guard：只有 payment 還是 false 且訂單尚未
// 取消/退貨時才會轉移。回傳 true 的那一次呼叫負責扣庫存，
// 重複送達或遲到的回調在這裡變成 no-op
func (s *OrderRepo) MarkPaidIfUnpaid(ctx context.Context, txnRef, transactionNo string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("vnpay_txn_ref = ? AND payment = ? AND status NOT IN ?", txnRef, false, terminalStatuses).
		Updates(map[string]interface{}{
			"payment":              true,
			"payment_status":       model.PaymentStatusPaid,
			"status":               model.OrderStatusPaid,
			"vnpay_transaction_no": transactionNo,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkPaymentFailed 同樣擋掉已付款與已終態的訂單，失敗回調不會蓋掉成功或取消狀態
func (s *OrderRepo) MarkPaymentFailed(ctx context.Context, txnRef string) error {
	return s.db.WithContext(ctx).Model(&model.Order{}).
		Where("vnpay_txn_ref = ? AND payment = ? AND status NOT IN ?", txnRef, false, terminalStatuses).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusFailed,
			"status":         model.OrderStatusPayFailed,
		}).Error
}

func (s *OrderRepo) SavePaymentCallback(ctx context.Context, cb *model.PaymentCallback) error {
	return s.db.WithContext(ctx).Create(cb).Error
}

var _ IOrderRepository = (*OrderRepo)(nil)
