package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/rs/zerolog"
)

func main() {
	cf, err := config.LoadConfig(".", nil)
	if err != nil {
		log.Fatal(err)
		return
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	app, err := appcontext.NewApplicationContext(cf, logger)
	if err != nil {
		log.Fatal(err)
		return
	}

	// 初始化 handler
	productHandler := handler.NewProductHandler(app.CatalogService, app.Uploader, logger)
	cartHandler := handler.NewCartHandler(app.CartService)
	orderHandler := handler.NewOrderHandler(app.OrderService, handler.RedirectURLs{
		Success: cf.FrontendURL + cf.PaymentSuccessPath,
		Fail:    cf.FrontendURL + cf.PaymentFailPath,
	}, logger)
	commentHandler := handler.NewCommentHandler(app.CommentService)
	userHandler := handler.NewUserHandler(app.UserService)
	reportHandler := handler.NewReportHandler(app.ReportService)

	server := handler.NewServer(productHandler, cartHandler, orderHandler, commentHandler, userHandler, reportHandler)

	// 設置路由
	r := router.SetupRouter(server, app.TokenMaker, &logger, cf.UploadBaseURL, cf.UploadDir)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cf.ServerPort),
		Handler: r,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutDownCompleted := make(chan struct{}, 1)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Application shutdown error: %v", err)
		}

		shutDownCompleted <- struct{}{}
	}()

	log.Printf("Server starting on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
	<-shutDownCompleted
	log.Printf("closed completed")
}
