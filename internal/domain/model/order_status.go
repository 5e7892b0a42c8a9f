package model

// OrderStatus 訂單狀態，沿用前台既有的越南文字彙
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "Chờ xác nhận"        // 待確認
	OrderStatusPaid      OrderStatus = "Đã thanh toán"       // 已付款 (VNPay)
	OrderStatusConfirmed OrderStatus = "Đã xác nhận"         // 已確認
	OrderStatusPacking   OrderStatus = "Đang đóng gói"       // 包裝中
	OrderStatusShipping  OrderStatus = "Đang giao"           // 配送中
	OrderStatusDelivered OrderStatus = "Đã giao"             // 已送達
	OrderStatusCancelled OrderStatus = "Đã hủy"              // 已取消
	OrderStatusReturned  OrderStatus = "Đã trả hàng"         // 已退貨
	OrderStatusPayFailed OrderStatus = "Thanh toán thất bại" // 付款失敗 (VNPay)
)

// adminTransitions 管理端合法的狀態推進，取消/退貨走獨立的 restock 流程
var adminTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:       {OrderStatusConfirmed},
	OrderStatusPaid:      {OrderStatusConfirmed},
	OrderStatusPayFailed: {},
	OrderStatusConfirmed: {OrderStatusPacking},
	OrderStatusPacking:   {OrderStatusShipping},
	OrderStatusShipping:  {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
	OrderStatusReturned:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := adminTransitions[s]
	return ok
}

// IsTerminal 取消/退貨為終態，庫存回補只會發生一次
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

// CanAdminTransitionTo 管理端是否允許由 s 推進到 next
func (s OrderStatus) CanAdminTransitionTo(next OrderStatus) bool {
	for _, allowed := range adminTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
