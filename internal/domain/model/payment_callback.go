package model

import "time"

// PaymentCallback 閘道回調的原始內容，先落盤再判斷冪等，供除錯/重放用
type PaymentCallback struct {
	CallbackID   uint      `gorm:"primaryKey" json:"callbackId"`
	TxnRef       string    `gorm:"index;type:varchar(50)" json:"txnRef"`
	Channel      string    `gorm:"not null;type:varchar(20)" json:"channel"` // return | ipn
	RawQuery     string    `gorm:"not null;type:text" json:"rawQuery"`
	SignatureOK  bool      `gorm:"not null" json:"signatureOk"`
	ResponseCode string    `gorm:"type:varchar(10)" json:"responseCode"`
	ReceivedAt   time.Time `gorm:"not null" json:"receivedAt"`
}
