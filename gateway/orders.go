package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/latchjack/burger/pkg/auth"
	"github.com/latchjack/burger/pkg/burger"
	"github.com/latchjack/burger/pkg/messaging"
	"github.com/latchjack/burger/pkg/models"
	"github.com/latchjack/burger/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var (
	ErrNotPurchasable = errors.New("order must contain at least one ingredient")
	ErrPriceMismatch  = errors.New("price does not match the selected ingredients")
)

type orderRequest struct {
	Ingredients burger.Ingredients `json:"ingredients"`
	Price       decimal.Decimal    `json:"price"`
	OrderData   burger.ContactData `json:"orderData"`
}

type checkoutSummary struct {
	Ingredients burger.Ingredients `json:"ingredients"`
	Price       decimal.Decimal    `json:"price"`
	Purchasable bool               `json:"purchasable"`
}

func (g *Gateway) getIngredients(c *gin.Context) {
	ctx := c.Request.Context()

	if g.deps.Cache != nil {
		if cached, err := g.deps.Cache.CachedIngredients(ctx); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		} else if !errors.Is(err, repository.ErrNotFound) {
			g.logger.Warn("Ingredient cache read failed", zap.Error(err))
		}
	}

	ingredients, err := g.deps.Ingredients.All(ctx)
	if err != nil {
		g.logger.Error("Failed to load ingredients", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("ingredients can't be loaded"))
		return
	}

	if g.deps.Cache != nil {
		if err := g.deps.Cache.CacheIngredients(ctx, ingredients); err != nil {
			g.logger.Warn("Ingredient cache write failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, ingredients)
}

// setIngredients replaces stock levels and drops the cached copy.
func (g *Gateway) setIngredients(c *gin.Context) {
	var stock burger.Ingredients
	if err := c.ShouldBindJSON(&stock); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	for name, qty := range stock {
		if !g.deps.Menu.Has(name) {
			abortWithError(c, http.StatusBadRequest, fmt.Errorf("%w: %s", burger.ErrUnknownIngredient, name))
			return
		}
		if err := burger.CheckQuantity(name, qty); err != nil {
			abortWithError(c, http.StatusBadRequest, err)
			return
		}
	}

	ctx := c.Request.Context()
	if err := g.deps.Ingredients.Set(ctx, stock); err != nil {
		g.logger.Error("Failed to update ingredients", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to update ingredients"))
		return
	}
	if g.deps.Cache != nil {
		if err := g.deps.Cache.InvalidateIngredients(ctx); err != nil {
			g.logger.Warn("Ingredient cache invalidation failed", zap.Error(err))
		}
	}

	g.audit(&repository.AuditEntry{
		Action:  repository.ActionSetIngredients,
		Subject: "ingredients",
		UserID:  auth.UserID(c),
		Data:    bson.M{"stock": stock},
	})
	c.Status(http.StatusNoContent)
}

func (g *Gateway) getMenu(c *gin.Context) {
	m := g.deps.Menu
	c.JSON(http.StatusOK, gin.H{
		"basePrice": m.BasePrice,
		"prices":    m.Prices,
		"order":     m.Names,
	})
}

// checkout decodes a ?salad=1&bacon=2&price=4.7 selection.
func (g *Gateway) checkout(c *gin.Context) {
	m := g.deps.Menu
	ingredients, price, err := m.DecodeQuery(c.Request.URL.RawQuery)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	computed, err := m.Price(ingredients)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if !computed.Equal(price) {
		abortWithError(c, http.StatusBadRequest, ErrPriceMismatch)
		return
	}
	c.JSON(http.StatusOK, checkoutSummary{
		Ingredients: ingredients,
		Price:       price,
		Purchasable: burger.Purchasable(ingredients),
	})
}

func (g *Gateway) createOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	if err := req.OrderData.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	computed, err := g.deps.Menu.Price(req.Ingredients)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if !burger.Purchasable(req.Ingredients) {
		abortWithError(c, http.StatusBadRequest, ErrNotPurchasable)
		return
	}
	if !computed.Equal(req.Price) {
		abortWithError(c, http.StatusBadRequest, ErrPriceMismatch)
		return
	}

	userID := auth.UserID(c)
	order := &models.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		Ingredients: req.Ingredients,
		Price:       computed,
		OrderData:   req.OrderData,
	}

	ctx := c.Request.Context()
	if err := g.deps.Orders.Create(ctx, order); err != nil {
		g.logger.Error("Failed to create order", zap.String("user_id", userID), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to create order"))
		return
	}

	g.audit(&repository.AuditEntry{
		Action:  repository.ActionCreateOrder,
		Subject: order.ID,
		UserID:  userID,
		Data: bson.M{
			"price":           order.Price.String(),
			"ingredients":     order.Ingredients,
			"delivery_method": order.OrderData.DeliveryMethod,
		},
	})

	err = g.deps.Events.PublishOrderPlaced(ctx, messaging.OrderPlaced{
		OrderID:        order.ID,
		UserID:         userID,
		Ingredients:    order.Ingredients,
		Price:          order.Price,
		DeliveryMethod: order.OrderData.DeliveryMethod,
		PlacedAt:       time.Now().UTC(),
	})
	if err != nil {
		g.logger.Warn("Order stored but event not published", zap.String("order_id", order.ID), zap.Error(err))
	}

	g.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("price", order.Price.String()))

	c.JSON(http.StatusCreated, gin.H{
		"name":  order.ID,
		"order": order,
	})
}

// getOrder returns one of the caller's orders with its audit trail.
func (g *Gateway) getOrder(c *gin.Context) {
	ctx := c.Request.Context()
	order, err := g.deps.Orders.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, errors.New("order not found"))
			return
		}
		g.logger.Error("Failed to get order", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to get order"))
		return
	}
	if order.UserID != auth.UserID(c) {
		abortWithError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	history := []*repository.AuditEntry{}
	if g.deps.Audit != nil {
		entries, err := g.deps.Audit.OrderHistory(ctx, order.ID)
		if err != nil {
			g.logger.Warn("Failed to read order history", zap.String("order_id", order.ID), zap.Error(err))
		} else if entries != nil {
			history = entries
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"order":   order,
		"history": history,
	})
}

func (g *Gateway) listOrders(c *gin.Context) {
	orders, err := g.deps.Orders.ListByUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		g.logger.Error("Failed to list orders", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to list orders"))
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}
