package model

import "time"

type User struct {
	UserID   uint   `gorm:"primaryKey" json:"userId"`
	Name     string `gorm:"not null;type:varchar(100)" json:"name"`
	Email    string `gorm:"not null;type:varchar(255);unique" json:"email"`
	Password string `gorm:"not null;type:varchar(255)" json:"-"`

	// 密碼重設連結
	ResetToken          string    `gorm:"type:varchar(64);index" json:"-"`
	ResetTokenExpiresAt time.Time `json:"-"`
	BaseModel
}
