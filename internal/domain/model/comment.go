package model

import "time"

type Comment struct {
	CommentID uint      `gorm:"primaryKey" json:"commentId"`
	ProductID uint      `gorm:"not null;index" json:"productId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Content   string    `gorm:"not null;type:text" json:"comment"`
	Rating    int       `gorm:"not null" json:"rating"` // 1~5
	Date      time.Time `gorm:"not null" json:"date"`
	BaseModel
}
