package config

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AuthTokenKey      string        `mapstructure:"AUTH_TOKEN_KEY"`
	AuthTokenDuration time.Duration `mapstructure:"AUTH_TOKEN_DURATION"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	VnpayTmnCode    string `mapstructure:"VNPAY_TMN_CODE"`
	VnpayHashSecret string `mapstructure:"VNPAY_HASH_SECRET"`
	VnpayPayURL     string `mapstructure:"VNPAY_PAY_URL"`
	VnpayReturnURL  string `mapstructure:"VNPAY_RETURN_URL"`
	VnpayIpnURL     string `mapstructure:"VNPAY_IPN_URL"`

	// 付款完成後導回前端的結果頁
	FrontendURL        string `mapstructure:"FRONTEND_URL"`
	PaymentSuccessPath string `mapstructure:"PAYMENT_SUCCESS_PATH"`
	PaymentFailPath    string `mapstructure:"PAYMENT_FAIL_PATH"`

	SmtpHost     string `mapstructure:"SMTP_HOST"`
	SmtpPort     int    `mapstructure:"SMTP_PORT"`
	SmtpSender   string `mapstructure:"SMTP_SENDER"`
	EmailAccount string `mapstructure:"EMAIL_ACCOUNT"`
	SmtpAuthKey  string `mapstructure:"SMTP_AUTH_KEY"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`

	UploadDir     string `mapstructure:"UPLOAD_DIR"`
	UploadBaseURL string `mapstructure:"UPLOAD_BASE_URL"`
}

// LoadConfig 讀取 .env 並監聽變更，onChange 可為 nil
func LoadConfig(path string, onChange func(*Config)) (*Config, error) {
	viper.SetConfigFile(fmt.Sprintf("%s/.env", path))
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// .env 不存在時允許只吃環境變數
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cf := &Config{}
	if err := viper.Unmarshal(cf); err != nil {
		return nil, err
	}

	if onChange != nil {
		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			next := &Config{}
			if err := viper.Unmarshal(next); err == nil {
				onChange(next)
			}
		})
	}

	return cf, nil
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AUTH_TOKEN_DURATION", "24h")
	viper.SetDefault("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html")
	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("PAYMENT_SUCCESS_PATH", "/payment-result?status=success")
	viper.SetDefault("PAYMENT_FAIL_PATH", "/payment-result?status=fail")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("UPLOAD_BASE_URL", "/static")
}
