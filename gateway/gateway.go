package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/latchjack/burger/pkg/auth"
	"github.com/latchjack/burger/pkg/builder"
	"github.com/latchjack/burger/pkg/burger"
	"github.com/latchjack/burger/pkg/config"
	"github.com/latchjack/burger/pkg/messaging"
	"github.com/latchjack/burger/pkg/models"
	"github.com/latchjack/burger/pkg/repository"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
}

type IngredientRepository interface {
	All(ctx context.Context) (burger.Ingredients, error)
	Set(ctx context.Context, ingredients burger.Ingredients) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

type IngredientCache interface {
	CacheIngredients(ctx context.Context, ingredients burger.Ingredients) error
	CachedIngredients(ctx context.Context) (burger.Ingredients, error)
	InvalidateIngredients(ctx context.Context) error
}

type AuditTrail interface {
	Record(ctx context.Context, entry *repository.AuditEntry) error
	OrderHistory(ctx context.Context, orderID string) ([]*repository.AuditEntry, error)
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event messaging.OrderPlaced) error
}

// Deps are the collaborators behind the HTTP API. Cache and Audit may be
// nil.
type Deps struct {
	Menu        *burger.Menu
	Orders      OrderRepository
	Ingredients IngredientRepository
	Users       UserRepository
	Cache       IngredientCache
	Audit       AuditTrail
	Events      EventPublisher
	Builders    *builder.Hub
	Tokens      *auth.Issuer
}

type Gateway struct {
	config *config.Config
	deps   Deps
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, deps Deps) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	if deps.Events == nil {
		deps.Events = messaging.NopPublisher{}
	}

	return &Gateway{
		config: cfg,
		deps:   deps,
		logger: logger,
		router: router,
	}
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireToken := auth.RequireToken(g.deps.Tokens)

	v1 := g.router.Group("/api/v1")
	{
		v1.GET("/ingredients", g.getIngredients)
		v1.PUT("/ingredients", requireToken, g.setIngredients)
		v1.GET("/menu", g.getMenu)
		v1.GET("/checkout", g.checkout)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", g.signUp)
			authGroup.POST("/login", g.login)
		}

		orders := v1.Group("/orders", requireToken)
		{
			orders.POST("", g.createOrder)
			orders.GET("", g.listOrders)
			orders.GET("/:id", g.getOrder)
		}

		sessions := v1.Group("/builder")
		{
			sessions.POST("", g.openBuilder)
			sessions.GET("/:id", g.getBuilder)
			sessions.DELETE("/:id", g.closeBuilder)
			sessions.POST("/:id/ingredients/:name", g.addIngredient)
			sessions.DELETE("/:id/ingredients/:name", g.removeIngredient)
			sessions.GET("/:id/checkout", g.builderCheckout)
		}
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Start serves until Shutdown is called.
func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Gateway.Host, g.config.Gateway.Port)
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func (g *Gateway) audit(entry *repository.AuditEntry) {
	if g.deps.Audit == nil {
		return
	}
	entry.ID = uuid.NewString()
	entry.Service = "burger-gateway"
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.deps.Audit.Record(ctx, entry); err != nil {
			g.logger.Warn("Failed to write audit log",
				zap.String("action", entry.Action),
				zap.String("subject", entry.Subject),
				zap.Error(err))
		}
	}()
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// redactQuery drops the auth token before the query is logged.
func redactQuery(values url.Values) string {
	values.Del("auth")
	return values.Encode()
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactQuery(c.Request.URL.Query())

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("HTTP request", fields...)
	}
}
