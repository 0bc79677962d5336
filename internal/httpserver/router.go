package httpserver

import (
	"time"

	"coffeespot/internal/domain"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the services behind the routes.
type Deps struct {
	ProductSvc  ProductService
	CategorySvc CategoryService
	CartSvc     CartService
	OrderSvc    OrderService
	ReviewSvc   ReviewService
	AccountSvc  AccountService
	OTPSvc      OTPService
	Chat        ChatGateway
}

// Options tune the router.
type Options struct {
	CORSOrigins []string
	// ExposeOTP returns issued OTP codes in the response body (development only).
	ExposeOTP      bool
	MaxUploadBytes int64
	// StaticDir and StaticURL serve locally stored uploads when both are set.
	StaticDir string
	StaticURL string
	// OTPRateLimit applies per client IP to the OTP routes. Zero means StrictRateLimit.
	OTPRateLimit RateLimit
}

type handlers struct {
	products   ProductService
	categories CategoryService
	carts      CartService
	orders     OrderService
	reviews    ReviewService
	accounts   AccountService
	otp        OTPService
	chat       ChatGateway
	exposeOTP  bool
	maxUpload  int64
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db *pgxpool.Pool, deps Deps, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(logger), metrics())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))
	if opts.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = opts.MaxUploadBytes
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.StaticDir != "" && opts.StaticURL != "" {
		router.Static(opts.StaticURL, opts.StaticDir)
	}

	h := &handlers{
		products:   deps.ProductSvc,
		categories: deps.CategorySvc,
		carts:      deps.CartSvc,
		orders:     deps.OrderSvc,
		reviews:    deps.ReviewSvc,
		accounts:   deps.AccountSvc,
		otp:        deps.OTPSvc,
		chat:       deps.Chat,
		exposeOTP:  opts.ExposeOTP,
		maxUpload:  opts.MaxUploadBytes,
	}
	otpLimit := opts.OTPRateLimit
	if otpLimit == (RateLimit{}) {
		otpLimit = StrictRateLimit()
	}
	limitOTP := rateLimited(otpLimit)

	router.GET("/ws", h.serveWS)
	h.registerRoutes(router, deps.AccountSvc, limitOTP)
	// The web clients call every route under /api.
	h.registerRoutes(router.Group("/api"), deps.AccountSvc, limitOTP)

	return router
}

// registerRoutes mounts the REST surface on r. Paths used by the existing web
// clients are registered next to the current ones.
func (h *handlers) registerRoutes(r gin.IRouter, auth Authenticator, limitOTP gin.HandlerFunc) {
	authed := authRequired(auth)
	admin := requireRole(domain.RoleAdmin)
	customer := requireRole(domain.RoleCustomer)

	product := r.Group("/product")
	product.GET("/get-all-products", h.listProducts)
	product.GET("/get-product-by-id/:id", h.getProduct)
	product.GET("/categories", h.listCategories)
	product.POST("/add-product", authed, admin, h.addProduct)
	product.PATCH("/update-product/:id", authed, admin, h.updateProduct)
	product.DELETE("/delete-product/:id", authed, admin, h.deleteProduct)

	cart := r.Group("/cart", authed, customer)
	cart.POST("/add-to-cart", h.addToCart)
	cart.POST("/remove-from-cart", h.removeFromCart)
	cart.DELETE("/remove-all-cart-items", h.clearCartItem)
	cart.GET("/get-all-cart-items", h.listCart)

	order := r.Group("/order", authed)
	order.POST("/place-order", customer, h.placeOrder)
	order.GET("/get-all-orders", h.listOrders)
	order.GET("/get-order-by-id/:id", h.getOrder)
	order.PUT("/cancel-order/:id", customer, h.cancelOrder)
	order.PATCH("/update-order-status/:id", admin, h.updateOrderStatus)
	order.PATCH("/payment/update-payment-status/:id", admin, h.updatePaymentStatus)
	order.DELETE("/delete-order/:id", admin, h.deleteOrder)

	review := r.Group("/review")
	review.GET("/get-all-reviews", h.listReviews)
	review.POST("/add-review", authed, customer, h.addReview)

	otp := r.Group("/otp")
	otp.POST("/send-otp", limitOTP, h.sendOTP)
	otp.POST("/verify-otp", limitOTP, h.verifyOTP)

	user := r.Group("/user")
	user.POST("/register", h.registerUser)
	user.POST("/login", h.loginUser)
	user.GET("/get-user-by-id/:id", authed, h.getUser)
	user.PATCH("/update-user/:id", authed, customer, h.updateUser)
	user.PATCH("/reset-password", authed, customer, h.resetUserPassword)
	user.POST("/logout", authed, customer, h.logout)
	user.DELETE("/delete-profile/:id", authed, h.deleteUser)
	user.POST("/signup-user", h.registerUser)
	user.POST("/signin-user", h.loginUser)
	user.PATCH("/reset-user-password", authed, customer, h.resetUserPassword)
	user.POST("/logout-user", authed, customer, h.logout)
	user.DELETE("/delete-user/:id", authed, h.deleteUser)

	superAdmin := r.Group("/super-admin")
	registerAdmin := optionalAuth(auth)
	superAdmin.POST("/register", registerAdmin, h.registerAdmin)
	superAdmin.POST("/login", h.loginAdmin)
	superAdmin.GET("/get-super-admin-by-id/:id", authed, admin, h.getAdmin)
	superAdmin.PATCH("/reset-password", authed, admin, h.resetAdminPassword)
	superAdmin.POST("/logout", authed, admin, h.logout)
	superAdmin.GET("/get-users", authed, admin, h.findUsers)
	superAdmin.POST("/signup-super-admin", registerAdmin, h.registerAdmin)
	superAdmin.POST("/signin-super-admin", h.loginAdmin)
	superAdmin.PATCH("/reset-super-admin-password", authed, admin, h.resetAdminPassword)
	superAdmin.POST("/logout-super-admin", authed, admin, h.logout)
	superAdmin.GET("/get-all-users", authed, admin, h.findUsers)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
