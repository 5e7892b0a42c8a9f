package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/payment/vnpay"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/rs/zerolog"
)

// RedirectURLs 付款完成後導回前端的結果頁
type RedirectURLs struct {
	Success string
	Fail    string
}

type OrderHandler struct {
	orderService service.IOrderService
	redirects    RedirectURLs
	logger       zerolog.Logger
}

func NewOrderHandler(orderService service.IOrderService, redirects RedirectURLs, logger zerolog.Logger) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{
		orderService: orderService,
		redirects:    redirects,
		logger:       logger,
	}
}

func toPlaceItems(dtos []dto.PlaceItemDTO) []service.PlaceItem {
	items := make([]service.PlaceItem, 0, len(dtos))
	for _, it := range dtos {
		items = append(items, service.PlaceItem{
			ProductID: it.ProductID,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
		})
	}
	return items
}

func toAddress(d dto.AddressDTO) model.Address {
	return model.Address{
		FullName: d.FullName,
		Phone:    d.Phone,
		Street:   d.Street,
		Ward:     d.Ward,
		District: d.District,
		City:     d.City,
	}
}

// PlaceOrder COD 下單，成單當下就扣庫存
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	order, err := h.orderService.PlaceOrderCOD(r.Context(), claims.UserID, toPlaceItems(req.Items), toAddress(req.Address))
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{
		"message": "Đặt hàng thành công",
		"order":   order,
	})
}

// PlaceOrderVNPay 先成單不扣庫存，回傳閘道付款連結
func (h *OrderHandler) PlaceOrderVNPay(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	clientIP := vnpay.NormalizeClientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)

	claims := middleware.ClaimsFromContext(r.Context())
	order, paymentURL, err := h.orderService.PlaceOrderVNPay(r.Context(), claims.UserID, toPlaceItems(req.Items), toAddress(req.Address), clientIP)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{
		"message":    "Đặt hàng thành công",
		"order":      order,
		"paymentUrl": paymentURL,
	})
}

// VnpayReturn 瀏覽器導回通道。簽章錯回 400，其餘 302 導去前端結果頁
func (h *OrderHandler) VnpayReturn(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.orderService.HandleCallback(r.Context(), "return", r.URL.Query())
	if err != nil {
		h.logger.Error().Err(err).Msg("vnpay return handling failed")
		http.Redirect(w, r, h.redirects.Fail, http.StatusFound)
		return
	}

	if outcome.RspCode == "97" {
		http.Error(w, "invalid checksum", http.StatusBadRequest)
		return
	}

	if outcome.PaymentOK {
		http.Redirect(w, r, h.redirects.Success, http.StatusFound)
		return
	}
	http.Redirect(w, r, h.redirects.Fail, http.StatusFound)
}

// VnpayIPN 伺服器對伺服器通道，依廠商契約回 {"RspCode","Message"}
func (h *OrderHandler) VnpayIPN(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.orderService.HandleCallback(r.Context(), "ipn", r.URL.Query())
	if err != nil {
		h.logger.Error().Err(err).Msg("vnpay ipn handling failed")
		outcome = &service.CallbackOutcome{RspCode: "99", Message: "Unknown error"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"RspCode": outcome.RspCode,
		"Message": outcome.Message,
	})
}

func (h *OrderHandler) AllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.GetAllOrders(r.Context())
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"orders": orders})
}

func (h *OrderHandler) UserOrders(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	orders, err := h.orderService.GetOrdersByUserID(r.Context(), claims.UserID)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"orders": orders})
}

func (h *OrderHandler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchOrdersDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	var start, end *time.Time
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			api.ErrorJSON(w, msgInvalidRequest)
			return
		}
		start = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			api.ErrorJSON(w, msgInvalidRequest)
			return
		}
		// 含整個結束日
		t = t.Add(24*time.Hour - time.Nanosecond)
		end = &t
	}

	orders, err := h.orderService.SearchOrders(r.Context(), req.UserID, model.OrderStatus(req.Status), start, end)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"orders": orders})
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	if err := h.orderService.UpdateStatus(r.Context(), req.OrderID, model.OrderStatus(req.Status)); err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessMsgJSON(w, "Cập nhật trạng thái thành công")
}

// CancelOrReturn 取消/退貨，回補結果逐項回報
func (h *OrderHandler) CancelOrReturn(w http.ResponseWriter, r *http.Request) {
	var req dto.OrderActionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	results, err := h.orderService.CancelOrReturn(r.Context(), req.OrderID, req.Action)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{
		"message": "Cập nhật đơn hàng thành công",
		"results": results,
	})
}
