package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type CartHandler struct {
	cartService service.ICartService
}

func NewCartHandler(cartService service.ICartService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req dto.AddToCartDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if err := h.cartService.AddOne(r.Context(), claims.UserID, req.ProductID, req.Size, req.Color); err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessMsgJSON(w, "Đã thêm vào giỏ hàng")
}

func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCartDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if err := h.cartService.SetQuantity(r.Context(), claims.UserID, req.ProductID, req.Size, req.Color, req.Quantity); err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessMsgJSON(w, "Đã cập nhật giỏ hàng")
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"cartData": cart})
}
