package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

// CommentWithUser 留言帶上留言者名稱，給前台列表用
type CommentWithUser struct {
	model.Comment
	UserName string `json:"userName"`
}

type ICommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentsByProduct(ctx context.Context, productID uint) ([]CommentWithUser, error)
	GetAverageRating(ctx context.Context, productID uint) (float64, int64, error)
	HardDeleteComment(ctx context.Context, commentID uint) error
}

type CommentRepo struct {
	db *DbDao
}

func NewCommentRepo(db *DbDao) *CommentRepo {
	return &CommentRepo{db: db}
}

func (s *CommentRepo) CreateComment(ctx context.Context, comment *model.Comment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}

// 依留言時間新到舊
func (s *CommentRepo) GetCommentsByProduct(ctx context.Context, productID uint) ([]CommentWithUser, error) {
	var comments []CommentWithUser
	err := s.db.WithContext(ctx).Model(&model.Comment{}).
		Select("comments.*, users.name AS user_name").
		Joins("JOIN users ON users.user_id = comments.user_id").
		Where("comments.product_id = ?", productID).
		Order("comments.date DESC").
		Find(&comments).Error
	return comments, err
}

func (s *CommentRepo) GetAverageRating(ctx context.Context, productID uint) (float64, int64, error) {
	var result struct {
		Average float64
		Count   int64
	}
	err := s.db.WithContext(ctx).Model(&model.Comment{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&result).Error
	return result.Average, result.Count, err
}

func (s *CommentRepo) HardDeleteComment(ctx context.Context, commentID uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&model.Comment{}, "comment_id = ?", commentID).Error
}

var _ ICommentRepository = (*CommentRepo)(nil)
