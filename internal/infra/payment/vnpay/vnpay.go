package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrSignatureMismatch 回調簽章驗證失敗，一律硬拒絕，不碰任何狀態
	ErrSignatureMismatch = errors.New("vnpay secure hash mismatch")
	// ErrMissingCredentials 商戶設定不完整
	ErrMissingCredentials = errors.New("vnpay merchant credentials missing")
)

// VNPay 回應碼
const (
	RespCodeSuccess = "00"
)

// Config 商戶設定，程序啟動時建好注入，業務邏輯不讀全域狀態
type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	IPNURL     string
}

func (c Config) Validate() error {
	if c.TmnCode == "" || c.HashSecret == "" || c.PayURL == "" || c.ReturnURL == "" {
		return ErrMissingCredentials
	}
	return nil
}

type Gateway struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gateway{cfg: cfg, now: time.Now}, nil
}

// PaymentRequest 建立付款連結的輸入
type PaymentRequest struct {
	TxnRef    string
	OrderInfo string
	Amount    decimal.Decimal
	ClientIP  string
}

// CallbackData 驗證過簽章的回調內容
type CallbackData struct {
	TxnRef        string
	TransactionNo string
	ResponseCode  string
	Amount        string
}

func (c CallbackData) Success() bool {
	return c.ResponseCode == RespCodeSuccess
}

// NewTxnRef 產生交易參照: HHmmss + 4 位隨機數
func NewTxnRef(now time.Time) string {
	return fmt.Sprintf("%s%04d", now.Format("150405"), rand.Intn(10000))
}

// BuildPaymentURL 組出帶簽章的重導 URL
// 金額依閘道慣例乘上 100 且四捨五入為整數 (最小幣值單位，無小數)
func (g *Gateway) BuildPaymentURL(req PaymentRequest) (string, error) {
	amount := req.Amount.Mul(decimal.NewFromInt(100)).Round(0)

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Locale":     "vn",
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Amount":     amount.String(),
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": g.now().Format("20060102150405"),
	}
	if g.cfg.IPNURL != "" {
		params["vnp_IpnUrl"] = g.cfg.IPNURL
	}

	params["vnp_SecureHash"] = g.sign(params)

	return g.cfg.PayURL + "?" + canonicalQuery(params), nil
}

// VerifyCallback 兩條回調通道共用的驗證：
// 拿掉 vnp_SecureHash / vnp_SecureHashType 後重算簽章，byte 比對
func (g *Gateway) VerifyCallback(query url.Values) (CallbackData, error) {
	params := make(map[string]string, len(query))
	for key := range query {
		params[key] = query.Get(key)
	}

	received := params["vnp_SecureHash"]
	delete(params, "vnp_SecureHash")
	delete(params, "vnp_SecureHashType")

	data := CallbackData{
		TxnRef:        params["vnp_TxnRef"],
		TransactionNo: params["vnp_TransactionNo"],
		ResponseCode:  params["vnp_ResponseCode"],
		Amount:        params["vnp_Amount"],
	}

	computed := g.sign(params)
	if received == "" || !hmac.Equal([]byte(computed), []byte(received)) {
		return data, fmt.Errorf("%w: computed %s received %s", ErrSignatureMismatch, computed, received)
	}
	return data, nil
}

func (g *Gateway) sign(params map[string]string) string {
	mac := hmac.New(sha512.New, []byte(g.cfg.HashSecret))
	mac.Write([]byte(canonicalQuery(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery 閘道固定的標準編碼：
// key 升冪排序，值 percent-encode 後空白用 '+'，以 key=value&... 相連
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(queryEscape(key))
		sb.WriteByte('=')
		sb.WriteString(queryEscape(params[key]))
	}
	return sb.String()
}

// 閘道端用 encodeURIComponent 編碼，! ' ( ) * 不跳脫，
// url.QueryEscape 會多編這五個字元，簽章就會對不上
var bareSubDelims = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func queryEscape(s string) string {
	return bareSubDelims.Replace(url.QueryEscape(s))
}

// NormalizeClientIP 取 forwarded-for 第一個位址，
// 去掉 IPv6-mapped-IPv4 前綴，loopback IPv6 轉回 127.0.0.1
func NormalizeClientIP(forwardedFor, remoteAddr string) string {
	ip := remoteAddr
	if forwardedFor != "" {
		ip = strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if host, _, err := splitHostPort(ip); err == nil {
		ip = host
	}
	ip = strings.TrimPrefix(ip, "::ffff:")
	if ip == "::1" {
		ip = "127.0.0.1"
	}
	if ip == "" {
		ip = "127.0.0.1"
	}
	return ip
}

func splitHostPort(addr string) (string, string, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", "", errors.New("no port")
	}
	host := addr[:idx]
	// IPv6 位址本身就帶冒號，只有 [host]:port 形式才拆
	if strings.Count(addr, ":") > 1 && !strings.HasPrefix(addr, "[") {
		return "", "", errors.New("bare ipv6")
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	return host, addr[idx+1:], nil
}
