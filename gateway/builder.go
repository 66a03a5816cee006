package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/latchjack/burger/pkg/builder"
	"github.com/latchjack/burger/pkg/burger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type builderView struct {
	ID          string             `json:"id"`
	Ingredients burger.Ingredients `json:"ingredients"`
	TotalPrice  decimal.Decimal    `json:"totalPrice"`
	Purchasable bool               `json:"purchasable"`
	Error       bool               `json:"error"`
	Disabled    map[string]bool    `json:"disabled"`
}

func newBuilderView(id string, s burger.State) builderView {
	return builderView{
		ID:          id,
		Ingredients: s.Ingredients,
		TotalPrice:  s.TotalPrice,
		Purchasable: s.Purchasable,
		Error:       s.Error,
		Disabled:    s.Ingredients.Disabled(),
	}
}

func (g *Gateway) openBuilder(c *gin.Context) {
	id, state, err := g.deps.Builders.Open(c.Request.Context())
	if err != nil {
		g.logger.Error("Failed to open builder session", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to open builder"))
		return
	}
	c.JSON(http.StatusCreated, newBuilderView(id, state))
}

func (g *Gateway) getBuilder(c *gin.Context) {
	id := c.Param("id")
	state, err := g.deps.Builders.State(c.Request.Context(), id)
	if err != nil {
		g.builderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBuilderView(id, state))
}

func (g *Gateway) addIngredient(c *gin.Context) {
	id := c.Param("id")
	state, err := g.deps.Builders.Add(c.Request.Context(), id, c.Param("name"))
	if err != nil {
		g.builderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBuilderView(id, state))
}

func (g *Gateway) removeIngredient(c *gin.Context) {
	id := c.Param("id")
	state, err := g.deps.Builders.Remove(c.Request.Context(), id, c.Param("name"))
	if err != nil {
		g.builderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBuilderView(id, state))
}

func (g *Gateway) closeBuilder(c *gin.Context) {
	if err := g.deps.Builders.Close(c.Request.Context(), c.Param("id")); err != nil {
		g.builderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// builderCheckout hands the session over to checkout as a query string.
func (g *Gateway) builderCheckout(c *gin.Context) {
	id := c.Param("id")
	state, err := g.deps.Builders.State(c.Request.Context(), id)
	if err != nil {
		g.builderError(c, err)
		return
	}
	if !state.Purchasable {
		abortWithError(c, http.StatusConflict, ErrNotPurchasable)
		return
	}
	query := g.deps.Menu.EncodeQuery(state.Ingredients, state.TotalPrice)
	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"location": "/checkout?" + query,
	})
}

func (g *Gateway) builderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, builder.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err)
	case errors.Is(err, burger.ErrUnknownIngredient):
		abortWithError(c, http.StatusNotFound, err)
	case errors.Is(err, burger.ErrNotLoaded), errors.Is(err, burger.ErrQuantityTooLarge):
		abortWithError(c, http.StatusConflict, err)
	default:
		g.logger.Error("Builder session failed", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("builder session failed"))
	}
}
