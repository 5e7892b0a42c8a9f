package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// SetupRouter staticDir 提供商品圖片靜態檔，為空則不掛
func SetupRouter(server *handler.Server, tokenMaker *token.Maker, logger *zerolog.Logger, staticPrefix, staticDir string) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.AuthPayloadMiddleware(tokenMaker))
	r.Use(m.LoggerMiddleware(logger))

	if staticDir != "" {
		r.Handle(staticPrefix+"/*", http.StripPrefix(staticPrefix+"/", http.FileServer(http.Dir(staticDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/product", func(r chi.Router) {
			r.Get("/list", server.ProductHandler.ListProducts)
			r.Post("/single", server.ProductHandler.SingleProduct)
			r.Post("/search", server.ProductHandler.SearchProducts)
			r.With(m.AdminMiddleware).Post("/add", server.ProductHandler.AddProduct)
			r.With(m.AdminMiddleware).Post("/edit", server.ProductHandler.EditProduct)
			r.With(m.AdminMiddleware).Post("/remove", server.ProductHandler.RemoveProduct)
			r.With(m.AdminMiddleware).Post("/restock", server.ProductHandler.Restock)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(m.AuthMiddleware)
			r.Post("/add", server.CartHandler.AddToCart)
			r.Post("/update", server.CartHandler.UpdateCart)
			r.Post("/get", server.CartHandler.GetCart)
		})

		r.Route("/order", func(r chi.Router) {
			r.With(m.AuthMiddleware).Post("/place", server.OrderHandler.PlaceOrder)
			r.With(m.AuthMiddleware).Post("/vnpay", server.OrderHandler.PlaceOrderVNPay)
			r.With(m.AuthMiddleware).Post("/userorders", server.OrderHandler.UserOrders)

			// 閘道回調不走登入驗證，靠 HMAC 簽章把關
			r.Get("/vnpay-return", server.OrderHandler.VnpayReturn)
			r.Get("/vnpay-ipn", server.OrderHandler.VnpayIPN)

			r.With(m.AdminMiddleware).Post("/list", server.OrderHandler.AllOrders)
			r.With(m.AdminMiddleware).Post("/search", server.OrderHandler.SearchOrders)
			r.With(m.AdminMiddleware).Post("/status", server.OrderHandler.UpdateStatus)
			r.With(m.AdminMiddleware).Post("/restock", server.OrderHandler.CancelOrReturn)
		})

		r.Route("/report", func(r chi.Router) {
			r.With(m.AdminMiddleware).Post("/revenue", server.ReportHandler.RevenueReport)
		})

		r.Route("/comment", func(r chi.Router) {
			r.With(m.AuthMiddleware).Post("/add", server.CommentHandler.AddComment)
			r.Get("/product/{productId}", server.CommentHandler.ProductComments)
			r.Get("/product/{productId}/average-rating", server.CommentHandler.AverageRating)
			r.With(m.AdminMiddleware).Post("/remove", server.CommentHandler.RemoveComment)
		})

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", server.UserHandler.Register)
			r.Post("/login", server.UserHandler.Login)
			r.Post("/admin", server.UserHandler.AdminLogin)
			r.Post("/forgot-password", server.UserHandler.ForgotPassword)
			r.Post("/reset-password", server.UserHandler.ResetPassword)
			r.With(m.AuthMiddleware).Get("/profile", server.UserHandler.Profile)
		})
	})

	return r
}
