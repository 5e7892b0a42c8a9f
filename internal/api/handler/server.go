package handler

// Server 聚合所有 handler，router 從這裡取用
type Server struct {
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	CommentHandler *CommentHandler
	UserHandler    *UserHandler
	ReportHandler  *ReportHandler
}

func NewServer(
	productHandler *ProductHandler,
	cartHandler *CartHandler,
	orderHandler *OrderHandler,
	commentHandler *CommentHandler,
	userHandler *UserHandler,
	reportHandler *ReportHandler,
) *Server {
	return &Server{
		ProductHandler: productHandler,
		CartHandler:    cartHandler,
		OrderHandler:   orderHandler,
		CommentHandler: commentHandler,
		UserHandler:    userHandler,
		ReportHandler:  reportHandler,
	}
}
