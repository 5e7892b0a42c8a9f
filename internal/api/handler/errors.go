package handler

import (
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

// 前台顯示用訊息。已知的業務錯誤翻成越南文，
// 其餘一律回通用訊息，不把內部錯誤細節洩漏給前端
var errMessages = []struct {
	err error
	msg string
}{
	{service.ErrProductNotExist, "Sản phẩm không tồn tại"},
	{service.ErrVariantNotExist, "Biến thể sản phẩm không tồn tại"},
	{service.ErrOrderNotExist, "Đơn hàng không tồn tại"},
	{service.ErrUserNotExist, "Người dùng không tồn tại"},
	{service.ErrUserAlreadyExists, "Người dùng đã tồn tại"},
	{service.ErrInvalidEmail, "Vui lòng nhập email hợp lệ"},
	{service.ErrWeakPassword, "Vui lòng nhập mật khẩu mạnh (tối thiểu 8 ký tự)"},
	{service.ErrInvalidCredentials, "Thông tin đăng nhập không đúng"},
	{service.ErrInvalidResetToken, "Liên kết đặt lại mật khẩu không hợp lệ hoặc đã hết hạn"},
	{service.ErrOutOfStock, "Số lượng trong kho không đủ"},
	{db.ErrStockNotEnough, "Số lượng trong kho không đủ"},
	{service.ErrInvalidQuantity, "Số lượng không hợp lệ"},
	{service.ErrInvalidAction, "Thao tác không hợp lệ"},
	{service.ErrInvalidStatus, "Trạng thái đơn hàng không hợp lệ"},
	{service.ErrIllegalTransition, "Không thể chuyển sang trạng thái này"},
	{service.ErrTerminalViaStatus, "Vui lòng dùng chức năng hủy/trả hàng"},
	{service.ErrDuplicateVariant, "Biến thể (size, màu) bị trùng"},
	{service.ErrNegativeValue, "Giá trị không được âm"},
	{service.ErrPricing, "Giá bán không hợp lệ"},
	{service.ErrRatingOutOfRange, "Đánh giá phải từ 1 đến 5 sao"},
	{service.ErrEmptyComment, "Nội dung bình luận không được để trống"},
}

const (
	msgInternalError  = "Đã xảy ra lỗi, vui lòng thử lại sau"
	msgInvalidRequest = "Dữ liệu gửi lên không hợp lệ"
)

func messageFor(err error) string {
	for _, m := range errMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return msgInternalError
}
