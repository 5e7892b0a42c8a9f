package appcontext

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/mail"
	"github.com/RoyceAzure/lab/storefront/internal/infra/mq"
	"github.com/RoyceAzure/lab/storefront/internal/infra/payment/vnpay"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/infra/upload"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/token"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type ApplicationContext struct {
	Cf     *config.Config
	Logger zerolog.Logger

	DbConn      *gorm.DB
	DbDao       *db.DbDao
	RedisClient *redis.Client

	TokenMaker *token.Maker
	Gateway    *vnpay.Gateway
	MailSender mail.EmailSender
	Uploader   upload.ImageUploader
	Events     mq.IOrderEventProducer

	CatalogService service.ICatalogService
	CartService    service.ICartService
	OrderService   service.IOrderService
	ReportService  service.IReportService
	CommentService service.ICommentService
	UserService    service.IUserService
}

func NewApplicationContext(cf *config.Config, logger zerolog.Logger) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		Logger: logger,
	}

	if err := app.init(); err != nil {
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) init() error {
	if err := app.setUpDb(); err != nil {
		return err
	}
	if err := app.setUpRedis(); err != nil {
		return err
	}
	if err := app.setUpTokenMaker(); err != nil {
		return err
	}
	if err := app.setUpGateway(); err != nil {
		return err
	}
	if err := app.setUpUploader(); err != nil {
		return err
	}
	app.setUpMailSender()
	app.setUpEvents()
	app.setUpServices()
	return nil
}

func (app *ApplicationContext) setUpDb() error {
	log.Printf("Start setup database connection")
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return err
	}
	app.DbConn = conn
	app.DbDao = db.NewDbDao(conn)

	if err := app.DbDao.InitMigrate(); err != nil {
		return err
	}
	log.Printf("Finish setup database connection")
	return nil
}

func (app *ApplicationContext) setUpRedis() error {
	log.Printf("Start setup redis client")
	app.RedisClient = redis.NewClient(&redis.Options{
		Addr:     app.Cf.RedisAddr,
		Password: app.Cf.RedisPassword,
	})

	if err := app.RedisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	log.Printf("Finish setup redis client")
	return nil
}

func (app *ApplicationContext) setUpTokenMaker() error {
	log.Printf("Start setup token maker")
	tokenMaker, err := token.NewMaker(app.Cf.AuthTokenKey, app.Cf.AuthTokenDuration)
	if err != nil {
		return err
	}
	app.TokenMaker = tokenMaker
	log.Printf("Finish setup token maker")
	return nil
}

func (app *ApplicationContext) setUpGateway() error {
	log.Printf("Start setup vnpay gateway")
	gateway, err := vnpay.New(vnpay.Config{
		TmnCode:    app.Cf.VnpayTmnCode,
		HashSecret: app.Cf.VnpayHashSecret,
		PayURL:     app.Cf.VnpayPayURL,
		ReturnURL:  app.Cf.VnpayReturnURL,
		IPNURL:     app.Cf.VnpayIpnURL,
	})
	if err != nil {
		return err
	}
	app.Gateway = gateway
	log.Printf("Finish setup vnpay gateway")
	return nil
}

func (app *ApplicationContext) setUpUploader() error {
	log.Printf("Start setup image uploader")
	uploader, err := upload.NewLocalUploader(app.Cf.UploadDir, app.Cf.UploadBaseURL)
	if err != nil {
		return err
	}
	app.Uploader = uploader
	log.Printf("Finish setup image uploader")
	return nil
}

func (app *ApplicationContext) setUpMailSender() {
	log.Printf("Start setup mail sender")
	app.MailSender = mail.NewSMTPSender(
		app.Cf.SmtpSender,
		app.Cf.EmailAccount,
		app.Cf.SmtpAuthKey,
		app.Cf.SmtpHost,
		app.Cf.SmtpPort,
	)
	log.Printf("Finish setup mail sender")
}

// setUpEvents kafka 沒設定就不發事件，訂單流程照常運作
func (app *ApplicationContext) setUpEvents() {
	if app.Cf.KafkaBrokers == "" || app.Cf.KafkaOrderTopic == "" {
		log.Printf("Kafka brokers not configured, order events disabled")
		return
	}

	log.Printf("Start setup order event producer")
	app.Events = mq.NewOrderEventProducer(strings.Split(app.Cf.KafkaBrokers, ","), app.Cf.KafkaOrderTopic, app.Logger)
	log.Printf("Finish setup order event producer")
}

func (app *ApplicationContext) setUpServices() {
	log.Printf("Start setup services")

	productRepo := db.NewProductRepo(app.DbDao)
	orderRepo := db.NewOrderRepo(app.DbDao)
	commentRepo := db.NewCommentRepo(app.DbDao)
	userRepo := db.NewUserRepo(app.DbDao)
	cartRepo := redis_repo.NewCartRepo(app.RedisClient)

	app.CatalogService = service.NewCatalogService(productRepo)
	app.CartService = service.NewCartService(cartRepo, productRepo)
	app.OrderService = service.NewOrderService(orderRepo, productRepo, cartRepo, app.Gateway, app.Events, app.Logger)
	app.ReportService = service.NewReportService(orderRepo)
	app.CommentService = service.NewCommentService(commentRepo, productRepo, userRepo)
	app.UserService = service.NewUserService(
		userRepo,
		app.TokenMaker,
		app.MailSender,
		app.Cf.FrontendURL,
		app.Cf.AdminEmail,
		app.Cf.AdminPassword,
	)

	log.Printf("Finish setup services")
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	log.Printf("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		defer close(done)

		if app.Events != nil {
			log.Printf("Closing order event producer...")
			if err := app.Events.Close(); err != nil {
				log.Printf("order event producer shutdown error: %v", err)
			}
		}

		if app.RedisClient != nil {
			log.Printf("Closing redis client...")
			if err := app.RedisClient.Close(); err != nil {
				log.Printf("redis client shutdown error: %v", err)
			}
		}

		if app.DbConn != nil {
			log.Printf("Closing database connection...")
			if sqlDB, err := app.DbConn.DB(); err == nil {
				sqlDB.Close()
			}
		}

		log.Printf("Application shutdown complete")
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %v", ctx.Err())
	}
}
