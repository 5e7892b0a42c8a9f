package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
)

var (
	ErrUserNotExist     = errors.New("user is not exist")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrEmptyComment     = errors.New("comment content is empty")
)

type ICommentService interface {
	AddComment(ctx context.Context, userID, productID uint, content string, rating int) (*db.CommentWithUser, error)
	GetCommentsByProduct(ctx context.Context, productID uint) ([]db.CommentWithUser, error)
	GetAverageRating(ctx context.Context, productID uint) (float64, int64, error)
	DeleteComment(ctx context.Context, commentID uint) error
}

type CommentService struct {
	commentRepo db.ICommentRepository
	productRepo db.IProductRepository
	userRepo    db.IUserRepository
}

func NewCommentService(commentRepo db.ICommentRepository, productRepo db.IProductRepository, userRepo db.IUserRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// AddComment 商品與用戶都必須存在，rating 限 1~5
func (s *CommentService) AddComment(ctx context.Context, userID, productID uint, content string, rating int) (*db.CommentWithUser, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyComment
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: %d", ErrRatingOutOfRange, rating)
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %d", ErrProductNotExist, productID)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", ErrUserNotExist, userID)
	}

	comment := &model.Comment{
		ProductID: productID,
		UserID:    userID,
		Content:   content,
		Rating:    rating,
		Date:      time.Now(),
	}
	if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	return &db.CommentWithUser{Comment: *comment, UserName: user.Name}, nil
}

func (s *CommentService) GetCommentsByProduct(ctx context.Context, productID uint) ([]db.CommentWithUser, error) {
	return s.commentRepo.GetCommentsByProduct(ctx, productID)
}

func (s *CommentService) GetAverageRating(ctx context.Context, productID uint) (float64, int64, error) {
	return s.commentRepo.GetAverageRating(ctx, productID)
}

func (s *CommentService) DeleteComment(ctx context.Context, commentID uint) error {
	return s.commentRepo.HardDeleteComment(ctx, commentID)
}

var _ ICommentService = (*CommentService)(nil)
