package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/payment/vnpay"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testHashSecret = "SECRETSECRETSECRETSECRET"

// fakeCartRepo 記憶體版購物車，省掉測試對 redis 的依賴
type fakeCartRepo struct {
	carts map[uint]map[string]int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[uint]map[string]int{}}
}

func (f *fakeCartRepo) items(userID uint) map[string]int {
	if f.carts[userID] == nil {
		f.carts[userID] = map[string]int{}
	}
	return f.carts[userID]
}

func (f *fakeCartRepo) Get(ctx context.Context, userID uint) (map[string]int, error) {
	out := map[string]int{}
	for k, v := range f.items(userID) {
		out[k] = v
	}
	return out, nil
}

func (f *fakeCartRepo) Delta(ctx context.Context, userID uint, field string, delta int) error {
	items := f.items(userID)
	next := items[field] + delta
	if next <= 0 {
		delete(items, field)
		return nil
	}
	items[field] = next
	return nil
}

func (f *fakeCartRepo) Set(ctx context.Context, userID uint, field string, quantity int) error {
	items := f.items(userID)
	if quantity <= 0 {
		delete(items, field)
		return nil
	}
	items[field] = quantity
	return nil
}

func (f *fakeCartRepo) Clear(ctx context.Context, userID uint) error {
	delete(f.carts, userID)
	return nil
}

type OrderServiceTestSuite struct {
	suite.Suite
	db           *gorm.DB
	productRepo  *db.ProductRepo
	orderRepo    *db.OrderRepo
	cartRepo     *fakeCartRepo
	orderService *OrderService
	report       *ReportService
	ctx          context.Context
}

func (suite *OrderServiceTestSuite) SetupTest() {
	conn, err := gorm.Open(sqlite.Open(filepath.Join(suite.T().TempDir(), "test.db")), &gorm.Config{})
	require.NoError(suite.T(), err)

	dao := db.NewDbDao(conn)
	require.NoError(suite.T(), dao.InitMigrate())

	gateway, err := vnpay.New(vnpay.Config{
		TmnCode:    "TESTTMN1",
		HashSecret: testHashSecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/order/vnpay-return",
	})
	require.NoError(suite.T(), err)

	suite.db = conn
	suite.productRepo = db.NewProductRepo(dao)
	suite.orderRepo = db.NewOrderRepo(dao)
	suite.cartRepo = newFakeCartRepo()
	suite.orderService = NewOrderService(suite.orderRepo, suite.productRepo, suite.cartRepo, gateway, nil, zerolog.Nop())
	suite.report = NewReportService(suite.orderRepo)
	suite.ctx = context.Background()
}

// createProduct 庫存 3 件，售價 100、成本 60
func (suite *OrderServiceTestSuite) createProduct() *model.Product {
	product := &model.Product{
		Name:        "Áo khoác dù",
		Description: "Áo khoác chống nước",
		Price:       decimal.NewFromInt(100),
		Category:    "Men",
		SubCategory: "Outerwear",
		Variants: []model.ProductVariant{
			{Size: "M", Color: "Đen", Stock: 3, Cost: decimal.NewFromInt(60)},
		},
	}
	require.NoError(suite.T(), suite.productRepo.CreateProduct(suite.ctx, product))
	return product
}

func (suite *OrderServiceTestSuite) variantStock(productID uint) uint {
	var variant model.ProductVariant
	require.NoError(suite.T(), suite.db.First(&variant, "product_id = ?", productID).Error)
	return variant.Stock
}

var testAddress = model.Address{
	FullName: "Nguyễn Văn A",
	Phone:    "0900000000",
	Street:   "12 Lê Lợi",
	Ward:     "Bến Nghé",
	District: "Quận 1",
	City:     "TP.HCM",
}

// signedCallback 依閘道規則簽好一組回調參數
func signedCallback(params map[string]string) url.Values {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	mac := hmac.New(sha512.New, []byte(testHashSecret))
	mac.Write([]byte(query.Encode()))
	query.Set("vnp_SecureHash", hex.EncodeToString(mac.Sum(nil)))
	return query
}

func (suite *OrderServiceTestSuite) TestCODLifecycle() {
	product := suite.createProduct()
	suite.cartRepo.Set(suite.ctx, 1, "1|M|Đen", 2)

	order, err := suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress)
	require.NoError(suite.T(), err)

	// COD 成單當下即扣庫存，購物車清空
	require.Equal(suite.T(), uint(1), suite.variantStock(product.ProductID))
	require.Empty(suite.T(), suite.cartRepo.items(1))
	require.True(suite.T(), order.Amount.Equal(decimal.NewFromInt(200)))
	require.Equal(suite.T(), model.OrderStatusNew, order.Status)

	// 管理端逐步推進到已送達
	for _, status := range []model.OrderStatus{
		model.OrderStatusConfirmed,
		model.OrderStatusPacking,
		model.OrderStatusShipping,
		model.OrderStatusDelivered,
	} {
		require.NoError(suite.T(), suite.orderService.UpdateStatus(suite.ctx, order.OrderID, status))
	}

	summary, daily, err := suite.report.RevenueReport(suite.ctx, nil, nil)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, summary.OrdersCount)
	require.True(suite.T(), summary.TotalRevenue.Equal(decimal.NewFromInt(200)))
	require.True(suite.T(), summary.TotalCost.Equal(decimal.NewFromInt(120)))
	require.True(suite.T(), summary.TotalProfit.Equal(decimal.NewFromInt(80)))
	require.Len(suite.T(), daily, 1)
}

func (suite *OrderServiceTestSuite) TestCOD_InsufficientStock() {
	product := suite.createProduct()

	_, err := suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 4},
	}, testAddress)
	require.ErrorIs(suite.T(), err, db.ErrStockNotEnough)
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))
}

func (suite *OrderServiceTestSuite) TestVNPay_DeferredDeduction() {
	product := suite.createProduct()

	order, paymentURL, err := suite.orderService.PlaceOrderVNPay(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress, "203.0.113.7")
	require.NoError(suite.T(), err)
	require.Contains(suite.T(), paymentURL, "vnp_SecureHash=")
	require.Contains(suite.T(), paymentURL, "vnp_Amount=20000")

	// 成單但未付款，庫存不動
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))

	query := signedCallback(map[string]string{
		"vnp_TxnRef":        order.VnpayTxnRef,
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "VNP0001",
		"vnp_Amount":        "20000",
	})

	outcome, err := suite.orderService.HandleCallback(suite.ctx, "return", query)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "00", outcome.RspCode)
	require.True(suite.T(), outcome.PaymentOK)

	// 第一次確認才扣庫存
	require.Equal(suite.T(), uint(1), suite.variantStock(product.ProductID))

	// 同一筆交易的 IPN 重複送達：承認但不再扣庫存
	outcome, err = suite.orderService.HandleCallback(suite.ctx, "ipn", query)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "02", outcome.RspCode)
	require.Equal(suite.T(), uint(1), suite.variantStock(product.ProductID))

	got, err := suite.orderService.GetOrder(suite.ctx, order.OrderID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), got.Payment)
	require.Equal(suite.T(), model.OrderStatusPaid, got.Status)
	require.Equal(suite.T(), "VNP0001", got.VnpayTransactionNo)
}

func (suite *OrderServiceTestSuite) TestVNPay_TamperedCallbackChangesNothing() {
	product := suite.createProduct()

	order, _, err := suite.orderService.PlaceOrderVNPay(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress, "203.0.113.7")
	require.NoError(suite.T(), err)

	query := signedCallback(map[string]string{
		"vnp_TxnRef":        order.VnpayTxnRef,
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "VNP0001",
		"vnp_Amount":        "20000",
	})
	query.Set("vnp_Amount", "1") // 壞簽章

	outcome, err := suite.orderService.HandleCallback(suite.ctx, "ipn", query)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "97", outcome.RspCode)
	require.False(suite.T(), outcome.PaymentOK)

	// 任何狀態都不能動
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))
	got, _ := suite.orderService.GetOrder(suite.ctx, order.OrderID)
	require.False(suite.T(), got.Payment)
	require.Equal(suite.T(), model.OrderStatusNew, got.Status)

	// 原始回調仍要留審計紀錄
	var cb model.PaymentCallback
	require.NoError(suite.T(), suite.db.First(&cb).Error)
	require.False(suite.T(), cb.SignatureOK)
	require.Equal(suite.T(), "ipn", cb.Channel)
}

func (suite *OrderServiceTestSuite) TestVNPay_FailureCallback() {
	product := suite.createProduct()

	order, _, err := suite.orderService.PlaceOrderVNPay(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress, "203.0.113.7")
	require.NoError(suite.T(), err)

	query := signedCallback(map[string]string{
		"vnp_TxnRef":       order.VnpayTxnRef,
		"vnp_ResponseCode": "24", // 用戶取消
		"vnp_Amount":       "20000",
	})

	outcome, err := suite.orderService.HandleCallback(suite.ctx, "ipn", query)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "00", outcome.RspCode)
	require.False(suite.T(), outcome.PaymentOK)

	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))
	got, _ := suite.orderService.GetOrder(suite.ctx, order.OrderID)
	require.Equal(suite.T(), model.OrderStatusPayFailed, got.Status)
	require.Equal(suite.T(), model.PaymentStatusFailed, got.PaymentStatus)
}

func (suite *OrderServiceTestSuite) TestVNPay_UnknownTxnRef() {
	suite.createProduct()

	query := signedCallback(map[string]string{
		"vnp_TxnRef":       "0000000000",
		"vnp_ResponseCode": "00",
	})

	outcome, err := suite.orderService.HandleCallback(suite.ctx, "ipn", query)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "01", outcome.RspCode)
}

func (suite *OrderServiceTestSuite) TestVNPay_CallbackAfterCancelDoesNothing() {
	product := suite.createProduct()

	order, _, err := suite.orderService.PlaceOrderVNPay(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress, "203.0.113.7")
	require.NoError(suite.T(), err)

	// 管理端先取消，付款確認之後才到
	_, err = suite.orderService.CancelOrReturn(suite.ctx, order.OrderID, "cancel")
	require.NoError(suite.T(), err)

	query := signedCallback(map[string]string{
		"vnp_TxnRef":        order.VnpayTxnRef,
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "VNP0001",
		"vnp_Amount":        "20000",
	})

	outcome, err := suite.orderService.HandleCallback(suite.ctx, "ipn", query)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "02", outcome.RspCode)
	require.False(suite.T(), outcome.PaymentOK)

	// 已取消的訂單不能復活，也絕不扣庫存
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))
	got, err := suite.orderService.GetOrder(suite.ctx, order.OrderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusCancelled, got.Status)
	require.False(suite.T(), got.Payment)

	// 失敗回調也一樣不能蓋掉終態
	query = signedCallback(map[string]string{
		"vnp_TxnRef":       order.VnpayTxnRef,
		"vnp_ResponseCode": "24",
		"vnp_Amount":       "20000",
	})
	outcome, err = suite.orderService.HandleCallback(suite.ctx, "ipn", query)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "02", outcome.RspCode)
	got, err = suite.orderService.GetOrder(suite.ctx, order.OrderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusCancelled, got.Status)
}

func (suite *OrderServiceTestSuite) TestCancel_RestocksOnce() {
	product := suite.createProduct()

	order, err := suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), uint(1), suite.variantStock(product.ProductID))

	results, err := suite.orderService.CancelOrReturn(suite.ctx, order.OrderID, "cancel")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), results, 1)
	require.True(suite.T(), results[0].Applied)
	require.Equal(suite.T(), 2, results[0].Requested)
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))

	// 冪等：重複取消不報錯也不再回補
	results, err = suite.orderService.CancelOrReturn(suite.ctx, order.OrderID, "cancel")
	require.NoError(suite.T(), err)
	require.Nil(suite.T(), results)
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))
}

func (suite *OrderServiceTestSuite) TestCancel_UnpaidVNPayDoesNotRestock() {
	product := suite.createProduct()

	order, _, err := suite.orderService.PlaceOrderVNPay(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress, "203.0.113.7")
	require.NoError(suite.T(), err)

	// 未付款的 VNPay 訂單沒扣過庫存，取消不回補
	results, err := suite.orderService.CancelOrReturn(suite.ctx, order.OrderID, "cancel")
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), results)
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))
}

func (suite *OrderServiceTestSuite) TestCancel_InvalidAction() {
	_, err := suite.orderService.CancelOrReturn(suite.ctx, "whatever", "refund")
	require.ErrorIs(suite.T(), err, ErrInvalidAction)
}

func (suite *OrderServiceTestSuite) TestReturn_AfterDelivered() {
	product := suite.createProduct()

	order, err := suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress)
	require.NoError(suite.T(), err)

	for _, status := range []model.OrderStatus{
		model.OrderStatusConfirmed,
		model.OrderStatusPacking,
		model.OrderStatusShipping,
		model.OrderStatusDelivered,
	} {
		require.NoError(suite.T(), suite.orderService.UpdateStatus(suite.ctx, order.OrderID, status))
	}

	// 已送達仍可退貨，退貨也要回補
	results, err := suite.orderService.CancelOrReturn(suite.ctx, order.OrderID, "return")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), results, 1)
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))
}

func (suite *OrderServiceTestSuite) TestUpdateStatus_Rejections() {
	product := suite.createProduct()

	order, err := suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 1},
	}, testAddress)
	require.NoError(suite.T(), err)

	// 封閉字彙以外的值
	err = suite.orderService.UpdateStatus(suite.ctx, order.OrderID, "Shipped")
	require.ErrorIs(suite.T(), err, ErrInvalidStatus)

	// 終態必須走取消/退貨流程
	err = suite.orderService.UpdateStatus(suite.ctx, order.OrderID, model.OrderStatusCancelled)
	require.ErrorIs(suite.T(), err, ErrTerminalViaStatus)

	// 跳關
	err = suite.orderService.UpdateStatus(suite.ctx, order.OrderID, model.OrderStatusDelivered)
	require.ErrorIs(suite.T(), err, ErrIllegalTransition)
}

func (suite *OrderServiceTestSuite) TestPriceSnapshotImmutable() {
	product := suite.createProduct()

	order, err := suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 2},
	}, testAddress)
	require.NoError(suite.T(), err)

	// 下單後改價
	product.Price = decimal.NewFromInt(999)
	require.NoError(suite.T(), suite.productRepo.UpdateProduct(suite.ctx, product))

	got, err := suite.orderService.GetOrder(suite.ctx, order.OrderID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), got.Items[0].Price.Equal(decimal.NewFromInt(100)))
	require.True(suite.T(), got.Amount.Equal(decimal.NewFromInt(200)))
}

func (suite *OrderServiceTestSuite) TestPlaceOrder_ZeroResolvedPriceRejected() {
	// 變體售價與商品底價都是 0，定價解析不出正數就整張單失敗
	product := &model.Product{
		Name:        "Hàng chưa định giá",
		Description: "Chưa có giá bán",
		Price:       decimal.Zero,
		Category:    "Men",
		SubCategory: "Outerwear",
		Variants: []model.ProductVariant{
			{Size: "M", Color: "Đen", Stock: 3, Cost: decimal.NewFromInt(60)},
		},
	}
	require.NoError(suite.T(), suite.productRepo.CreateProduct(suite.ctx, product))

	_, err := suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 1},
	}, testAddress)
	require.ErrorIs(suite.T(), err, ErrPricing)
	require.Equal(suite.T(), uint(3), suite.variantStock(product.ProductID))

	_, _, err = suite.orderService.PlaceOrderVNPay(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 1},
	}, testAddress, "203.0.113.7")
	require.ErrorIs(suite.T(), err, ErrPricing)
}

func (suite *OrderServiceTestSuite) TestPlaceOrder_Validation() {
	product := suite.createProduct()

	_, err := suite.orderService.PlaceOrderCOD(suite.ctx, 1, nil, testAddress)
	require.ErrorIs(suite.T(), err, ErrInvalidQuantity)

	_, err = suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "M", Color: "Đen", Quantity: 0},
	}, testAddress)
	require.ErrorIs(suite.T(), err, ErrInvalidQuantity)

	_, err = suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: 9999, Size: "M", Color: "Đen", Quantity: 1},
	}, testAddress)
	require.ErrorIs(suite.T(), err, ErrProductNotExist)

	_, err = suite.orderService.PlaceOrderCOD(suite.ctx, 1, []PlaceItem{
		{ProductID: product.ProductID, Size: "XL", Color: "Đen", Quantity: 1},
	}, testAddress)
	require.ErrorIs(suite.T(), err, ErrVariantNotExist)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}
