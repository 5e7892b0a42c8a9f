package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/mq"
	"github.com/RoyceAzure/lab/storefront/internal/infra/payment/vnpay"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotExist     = errors.New("order is not exist")
	ErrProductNotExist   = errors.New("product is not exist")
	ErrVariantNotExist   = errors.New("product variant is not exist")
	ErrPricing           = errors.New("resolved sale price must be positive")
	ErrInvalidQuantity   = errors.New("quantity is invalid")
	ErrInvalidAction     = errors.New("action must be cancel or return")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrTerminalViaStatus 取消/退貨必須走 restock 流程，不能從狀態端點直接設終態
	ErrTerminalViaStatus = errors.New("terminal status must go through the cancel/return flow")
)

// PlaceItem 下單請求項目，價格/成本由伺服器端快照，不收客戶端的值
type PlaceItem struct {
	ProductID uint   `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// RestockResult 回補/補貨的逐項結果，被跳過的項目帶原因
type RestockResult struct {
	ProductID uint   `json:"productId,omitempty"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Requested int    `json:"requested"`
	Applied   bool   `json:"applied"`
	Reason    string `json:"reason,omitempty"`
}

// CallbackOutcome 回調處理結果，handler 依通道決定回應形式
type CallbackOutcome struct {
	RspCode   string // VNPay IPN 回應碼: 00/01/02/97
	Message   string
	PaymentOK bool // 簽章有效且閘道回報成功
	Order     *model.Order
}

type IOrderService interface {
	PlaceOrderCOD(ctx context.Context, userID uint, items []PlaceItem, address model.Address) (*model.Order, error)
	PlaceOrderVNPay(ctx context.Context, userID uint, items []PlaceItem, address model.Address, clientIP string) (*model.Order, string, error)
	HandleCallback(ctx context.Context, channel string, query url.Values) (*CallbackOutcome, error)
	CancelOrReturn(ctx context.Context, orderID, action string) ([]RestockResult, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error)
	SearchOrders(ctx context.Context, userID uint, status model.OrderStatus, start, end *time.Time) ([]model.Order, error)
}

// OrderService 訂單對帳引擎：庫存只會從這裡異動。
// 併發控制完全依賴資料庫的 guarded update (stock >= n / payment = false)
type OrderService struct {
	orderRepo   db.IOrderRepository
	productRepo db.IProductRepository
	cartRepo    redis_repo.ICartRepository
	gateway     *vnpay.Gateway
	events      mq.IOrderEventProducer
	logger      zerolog.Logger
}

func NewOrderService(
	orderRepo db.IOrderRepository,
	productRepo db.IProductRepository,
	cartRepo redis_repo.ICartRepository,
	gateway *vnpay.Gateway,
	events mq.IOrderEventProducer,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		gateway:     gateway,
		events:      events,
		logger:      logger,
	}
}

// snapshotItems 讀取現價/成本做成不可變快照，之後商品改價不影響已成立的訂單
func (s *OrderService) snapshotItems(ctx context.Context, items []PlaceItem) ([]model.OrderItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Decimal{}, fmt.Errorf("%w: order has no items", ErrInvalidQuantity)
	}

	snapshots := make([]model.OrderItem, 0, len(items))
	amount := decimal.NewFromInt(0)

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, decimal.Decimal{}, fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ProductID)
		}

		product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, decimal.Decimal{}, err
		}
		if product == nil {
			return nil, decimal.Decimal{}, fmt.Errorf("%w: product %d", ErrProductNotExist, item.ProductID)
		}

		variant := product.FindVariant(item.Size, item.Color)
		if variant == nil {
			return nil, decimal.Decimal{}, fmt.Errorf("%w: product %d (%s/%s)", ErrVariantNotExist, item.ProductID, item.Size, item.Color)
		}

		price := variant.ResolvePrice(product.Price)
		if !price.IsPositive() {
			return nil, decimal.Decimal{}, fmt.Errorf("%w: product %d (%s/%s)", ErrPricing, item.ProductID, item.Size, item.Color)
		}

		snapshots = append(snapshots, model.OrderItem{
			ProductID: product.ProductID,
			Name:      product.Name,
			Images:    product.ImagesForColor(item.Color),
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			Price:     price,
			Cost:      variant.Cost,
		})
		amount = amount.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return snapshots, amount, nil
}

// PlaceOrderCOD COD 下單即扣庫存，扣庫存與寫單在同一個交易，
// 任一項不足整筆回滾
func (s *OrderService) PlaceOrderCOD(ctx context.Context, userID uint, items []PlaceItem, address model.Address) (*model.Order, error) {
	snapshots, amount, err := s.snapshotItems(ctx, items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderID:       uuid.NewString(),
		UserID:        userID,
		Items:         snapshots,
		Amount:        amount,
		Address:       address,
		Status:        model.OrderStatusNew,
		PaymentMethod: model.PaymentMethodCOD,
		Payment:       false,
		OrderDate:     time.Now(),
	}

	if err := s.orderRepo.CreateOrderWithStockDeduction(ctx, order); err != nil {
		return nil, err
	}

	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to clear cart after order placed")
	}

	s.publish(ctx, mq.EventOrderPlaced, order)
	return order, nil
}

// PlaceOrderVNPay 先成單但不扣庫存，等閘道回調確認付款才扣
func (s *OrderService) PlaceOrderVNPay(ctx context.Context, userID uint, items []PlaceItem, address model.Address, clientIP string) (*model.Order, string, error) {
	snapshots, amount, err := s.snapshotItems(ctx, items)
	if err != nil {
		return nil, "", err
	}

	txnRef := vnpay.NewTxnRef(time.Now())
	order := &model.Order{
		OrderID:       uuid.NewString(),
		UserID:        userID,
		Items:         snapshots,
		Amount:        amount,
		Address:       address,
		Status:        model.OrderStatusNew,
		PaymentMethod: model.PaymentMethodVNPay,
		Payment:       false,
		PaymentStatus: model.PaymentStatusPending,
		VnpayTxnRef:   txnRef,
		OrderDate:     time.Now(),
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, "", err
	}

	paymentURL, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		TxnRef:    txnRef,
		OrderInfo: fmt.Sprintf("Thanh toán đơn hàng %s", txnRef),
		Amount:    amount,
		ClientIP:  clientIP,
	})
	if err != nil {
		return nil, "", err
	}

	s.publish(ctx, mq.EventOrderPlaced, order)
	return order, paymentURL, nil
}

// HandleCallback return-redirect 與 IPN 共用的對帳流程。
// 兩條通道可能重複、也可能亂序，冪等 guard 在 MarkPaidIfUnpaid
func (s *OrderService) HandleCallback(ctx context.Context, channel string, query url.Values) (*CallbackOutcome, error) {
	data, verifyErr := s.gateway.VerifyCallback(query)

	// 原始回調先落盤，之後才做冪等判斷
	cb := &model.PaymentCallback{
		TxnRef:       data.TxnRef,
		Channel:      channel,
		RawQuery:     query.Encode(),
		SignatureOK:  verifyErr == nil,
		ResponseCode: data.ResponseCode,
		ReceivedAt:   time.Now(),
	}
	if err := s.orderRepo.SavePaymentCallback(ctx, cb); err != nil {
		s.logger.Error().Err(err).Str("txn_ref", data.TxnRef).Msg("failed to persist payment callback")
	}

	if verifyErr != nil {
		// 簽章不符硬拒絕，log 帶上計算值與收到的值供營運診斷
		s.logger.Error().Err(verifyErr).
			Str("channel", channel).
			Str("txn_ref", data.TxnRef).
			Msg("vnpay callback signature mismatch")
		return &CallbackOutcome{RspCode: "97", Message: "Invalid signature"}, nil
	}

	order, err := s.orderRepo.GetOrderByTxnRef(ctx, data.TxnRef)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return &CallbackOutcome{RspCode: "01", Message: "Order not found"}, nil
	}

	// 取消/退貨後才到的回調一律不再改變訂單，repo 的 guarded update
	// 也排除終態，就算回調和取消同時進來也不會復活訂單或多扣庫存
	if order.Status.IsTerminal() {
		return &CallbackOutcome{RspCode: "02", Message: "Order already finalized", Order: order}, nil
	}

	if !data.Success() {
		if err := s.orderRepo.MarkPaymentFailed(ctx, data.TxnRef); err != nil {
			return nil, err
		}
		return &CallbackOutcome{RspCode: "00", Message: "Confirm success", Order: order}, nil
	}

	won, err := s.orderRepo.MarkPaidIfUnpaid(ctx, data.TxnRef, data.TransactionNo)
	if err != nil {
		return nil, err
	}
	if !won {
		// guard 沒命中：可能已付款 (重複送達)，也可能剛被取消
		current, err := s.orderRepo.GetOrderByTxnRef(ctx, data.TxnRef)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status.IsTerminal() {
			return &CallbackOutcome{RspCode: "02", Message: "Order already finalized", Order: current}, nil
		}
		// 重複送達：已付款訂單不再扣庫存
		return &CallbackOutcome{RspCode: "02", Message: "Order already confirmed", PaymentOK: true, Order: current}, nil
	}

	// 第一次確認才扣庫存。付款已被接受，個別扣失敗只記 log 不回報閘道
	for _, item := range order.Items {
		if err := s.productRepo.DeductVariantStock(ctx, item.ProductID, item.Size, item.Color, uint(item.Quantity)); err != nil {
			s.logger.Error().Err(err).
				Str("order_id", order.OrderID).
				Uint("product_id", item.ProductID).
				Str("size", item.Size).
				Str("color", item.Color).
				Msg("stock deduction failed after payment confirmed")
		}
	}

	s.publish(ctx, mq.EventOrderPaid, order)
	return &CallbackOutcome{RspCode: "00", Message: "Confirm success", PaymentOK: true, Order: order}, nil
}

// CancelOrReturn 取消/退貨。冪等：已是終態時直接回成功、不再動庫存。
// 只有實際扣過庫存的訂單 (COD，或已付款的 VNPay) 才回補
func (s *OrderService) CancelOrReturn(ctx context.Context, orderID, action string) ([]RestockResult, error) {
	var target model.OrderStatus
	var eventType string
	switch action {
	case "cancel":
		target = model.OrderStatusCancelled
		eventType = mq.EventOrderCancelled
	case "return":
		target = model.OrderStatusReturned
		eventType = mq.EventOrderReturned
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotExist
	}
	if order.Status.IsTerminal() {
		return nil, nil
	}

	// guarded 轉移，同一張訂單只有一次呼叫會拿到 true
	won, err := s.orderRepo.SetTerminalStatus(ctx, orderID, target)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, nil
	}

	var results []RestockResult
	if order.StockTaken() {
		for _, item := range order.Items {
			applied, err := s.productRepo.AddVariantStock(ctx, item.ProductID, item.Size, item.Color, uint(item.Quantity))
			if err != nil {
				return results, err
			}
			result := RestockResult{
				ProductID: item.ProductID,
				Size:      item.Size,
				Color:     item.Color,
				Requested: item.Quantity,
				Applied:   applied,
			}
			if !applied {
				result.Reason = "variant not found"
				s.logger.Warn().
					Str("order_id", orderID).
					Uint("product_id", item.ProductID).
					Str("size", item.Size).
					Str("color", item.Color).
					Msg("restock skipped: variant not found")
			}
			results = append(results, result)
		}
	}

	s.publish(ctx, eventType, order)
	return results, nil
}

// UpdateStatus 管理端推進狀態。終態必須走 CancelOrReturn，
// 這裡只允許封閉字彙內的合法轉移
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	if status == model.OrderStatusCancelled || status == model.OrderStatusReturned {
		return ErrTerminalViaStatus
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotExist
	}

	if !order.Status.CanAdminTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, status)
	}

	return s.orderRepo.UpdateOrderStatus(ctx, orderID, status)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotExist
	}
	return order, nil
}

func (s *OrderService) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	return s.orderRepo.GetAllOrders(ctx)
}

func (s *OrderService) GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error) {
	return s.orderRepo.GetOrdersByUserID(ctx, userID)
}

func (s *OrderService) SearchOrders(ctx context.Context, userID uint, status model.OrderStatus, start, end *time.Time) ([]model.Order, error) {
	return s.orderRepo.SearchOrders(ctx, userID, status, start, end)
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *model.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, order); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.OrderID).Str("event", eventType).Msg("failed to publish order event")
	}
}

var _ IOrderService = (*OrderService)(nil)
