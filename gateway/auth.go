package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/latchjack/burger/pkg/auth"
	"github.com/latchjack/burger/pkg/models"
	"github.com/latchjack/burger/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (g *Gateway) signUp(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) || errors.Is(err, auth.ErrPasswordTooLong) {
			abortWithError(c, http.StatusBadRequest, err)
			return
		}
		g.logger.Error("Failed to hash password", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to create account"))
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := g.deps.Users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			abortWithError(c, http.StatusConflict, err)
			return
		}
		g.logger.Error("Failed to create user", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to create account"))
		return
	}

	g.audit(&repository.AuditEntry{
		Action:  repository.ActionSignUp,
		Subject: user.ID,
		UserID:  user.ID,
		Data:    bson.M{"email": user.Email},
	})

	g.respondWithToken(c, http.StatusCreated, user.ID)
}

func (g *Gateway) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	user, err := g.deps.Users.ByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusUnauthorized, auth.ErrInvalidCredentials)
			return
		}
		g.logger.Error("Failed to look up user", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to sign in"))
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		abortWithError(c, http.StatusUnauthorized, err)
		return
	}

	g.respondWithToken(c, http.StatusOK, user.ID)
}

func (g *Gateway) respondWithToken(c *gin.Context, status int, userID string) {
	tok, err := g.deps.Tokens.Issue(userID)
	if err != nil {
		g.logger.Error("Failed to issue token", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to issue token"))
		return
	}
	c.JSON(status, tok)
}
