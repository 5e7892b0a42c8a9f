package dto

type AddCommentDTO struct {
	ProductID uint   `json:"productId"`
	Content   string `json:"comment"`
	Rating    int    `json:"rating"`
}

type CommentIDDTO struct {
	CommentID uint `json:"commentId"`
}
