package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCOD   PaymentMethod = "COD"
	PaymentMethodVNPay PaymentMethod = "VNPay"
)

// PaymentStatus 只在 VNPay 訂單上有意義
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

type Address struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Ward     string `json:"ward"`
	District string `json:"district"`
	City     string `json:"city"`
}

type Order struct {
	OrderID string `gorm:"primaryKey;type:varchar(36)" json:"orderId"`
	UserID  uint   `gorm:"not null;index" json:"userId"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	Amount  decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"amount"`
	Address Address         `gorm:"serializer:json;type:text" json:"address"`

	Status        OrderStatus   `gorm:"not null;type:varchar(50)" json:"status"`
	PaymentMethod PaymentMethod `gorm:"not null;type:varchar(20)" json:"paymentMethod"`
	Payment       bool          `gorm:"not null;default:false" json:"payment"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20)" json:"paymentStatus,omitempty"`

	// VNPay 交易參照，下單時產生；TransactionNo 於付款確認後寫入
	VnpayTxnRef        string `gorm:"index;type:varchar(50)" json:"vnpayTxnRef,omitempty"`
	VnpayTransactionNo string `gorm:"type:varchar(50)" json:"vnpayTransactionNo,omitempty"`

	OrderDate time.Time `gorm:"not null;index" json:"date"`
	BaseModel
}

// OrderItem 下單時的快照，price/cost 之後不會再跟著商品異動
type OrderItem struct {
	ItemID    uint     `gorm:"primaryKey" json:"itemId"`
	OrderID   string   `gorm:"not null;index;type:varchar(36)" json:"orderId"`
	ProductID uint     `gorm:"not null" json:"productId"`
	Name      string   `gorm:"not null;type:varchar(255)" json:"name"`
	Images    []string `gorm:"serializer:json;type:text" json:"image"`
	Size      string   `gorm:"not null;type:varchar(50)" json:"size"`
	Color     string   `gorm:"not null;type:varchar(50)" json:"color"`
	Quantity  int      `gorm:"not null" json:"quantity"`

	Price decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"price"`
	Cost  decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"costPrice"`
}

// StockTaken 該訂單是否已實際扣過庫存
// COD 下單即扣，VNPay 要等第一次付款確認
func (o *Order) StockTaken() bool {
	return o.PaymentMethod == PaymentMethodCOD ||
		(o.PaymentMethod == PaymentMethodVNPay && o.Payment)
}
