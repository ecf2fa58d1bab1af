package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	AccountSvc     ports.AccountService
	WalletSvc      ports.WalletService
	TransferSvc    ports.TransferService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	userHandler := NewUserHandler(deps.AccountSvc, deps.WalletSvc)

	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}
	v1.POST("/users", rl("users_create"), userHandler.Create)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.WalletSvc)
	transferHandler := NewTransferHandler(deps.TransferSvc)

	users := v1.Group("/users", jwtAuth)
	{
		users.GET("", rl("users"), userHandler.List)
		users.GET("/:id", rl("users"), userHandler.Get)
		users.PUT("/:id", rl("users"), userHandler.Update)
		users.DELETE("/:id", rl("users"), userHandler.Delete)
	}

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/balance", rl("balance"), walletHandler.GetBalance)
		wallets.POST("/deposit", rl("deposits"), walletHandler.Deposit)
		wallets.POST("/transfer", rl("transfers"), transferHandler.Transfer)
	}

	return r
}
