package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/internal/auth"
	"storefront/internal/metrics"
	"storefront/internal/service"
)

// Deps is everything the HTTP layer talks to
type Deps struct {
	Products  *service.ProductService
	Carts     *service.CartService
	Orders    *service.OrderService
	Users     *service.UserService
	Analytics *service.AnalyticsService
	Tokens    *auth.Tokens
	Logger    *slog.Logger
	// Metrics and Gatherer are optional; without a Gatherer /metrics is not served
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

type Server struct {
	engine    *gin.Engine
	products  *service.ProductService
	carts     *service.CartService
	orders    *service.OrderService
	users     *service.UserService
	analytics *service.AnalyticsService
	tokens    *auth.Tokens
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewServer(d Deps) *Server {
	useJSONFieldNames()
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(requestLogger(d.Logger), gin.Recovery(), d.Metrics.Middleware())
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s := &Server{
		engine:    r,
		products:  d.Products,
		carts:     d.Carts,
		orders:    d.Orders,
		users:     d.Users,
		analytics: d.Analytics,
		tokens:    d.Tokens,
		logger:    d.Logger,
		metrics:   d.Metrics,
	}
	s.registerRoutes()
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := s.engine.Group("/api")
	{
		products := api.Group("/products")
		products.GET("", s.listProducts)
		products.GET("/categories/list", s.listCategories)
		products.GET("/:id", s.getProduct)
		products.POST("", s.requireAuth(), s.requireAdmin(), s.createProduct)
		products.PUT("/:id", s.requireAuth(), s.requireAdmin(), s.updateProduct)
		products.DELETE("/:id", s.requireAuth(), s.requireAdmin(), s.deleteProduct)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)

		users := api.Group("/users", s.requireAuth())
		users.GET("/me", s.getMe)
		users.PUT("/me", s.updateMe)

		cart := api.Group("/cart", s.requireAuth())
		cart.GET("", s.getCart)
		cart.POST("/add", s.addToCart)
		cart.PUT("/update", s.updateCartItem)
		cart.DELETE("/remove/:productId", s.removeFromCart)
		cart.DELETE("/clear", s.clearCart)
		cart.POST("/sync", s.syncCart)

		orders := api.Group("/orders", s.requireAuth())
		orders.POST("", s.createOrder)
		orders.GET("", s.listMyOrders)
		orders.GET("/:id", s.getOrder)
		orders.POST("/:id/cancel", s.cancelOrder)

		admin := api.Group("/admin", s.requireAuth(), s.requireAdmin())
		admin.GET("/orders", s.listAllOrders)
		admin.PUT("/orders/:id/status", s.updateOrderStatus)
		admin.GET("/users", s.listUsers)
		admin.PUT("/users/:id/role", s.setUserRole)
		admin.DELETE("/users/:id", s.deleteUser)
		admin.GET("/analytics", s.getAnalytics)
	}
}
