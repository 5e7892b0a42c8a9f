package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type CommentHandler struct {
	commentService service.ICommentService
}

func NewCommentHandler(commentService service.ICommentService) *CommentHandler {
	if commentService == nil {
		panic("commentService cannot be nil")
	}
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req dto.AddCommentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	comment, err := h.commentService.AddComment(r.Context(), claims.UserID, req.ProductID, req.Content, req.Rating)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"comment": comment})
}

func productIDFromURL(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "productId"), 10, 64)
	return uint(id), err
}

func (h *CommentHandler) ProductComments(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDFromURL(r)
	if err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	comments, err := h.commentService.GetCommentsByProduct(r.Context(), productID)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"comments": comments})
}

func (h *CommentHandler) AverageRating(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDFromURL(r)
	if err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	average, count, err := h.commentService.GetAverageRating(r.Context(), productID)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{
		"averageRating": average,
		"totalComments": count,
	})
}

func (h *CommentHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	var req dto.CommentIDDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), req.CommentID); err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessMsgJSON(w, "Xóa bình luận thành công")
}
