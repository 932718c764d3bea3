package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/quill/middleware"
	"github.com/quillhq/quill/utils"
	"github.com/quillhq/quill/workflow"
)

// AuthController handles registration, login and session endpoints.
type AuthController struct {
	svc *workflow.Service
}

// NewAuthController creates an AuthController.
func NewAuthController(svc *workflow.Service) *AuthController {
	return &AuthController{svc: svc}
}

// Register creates an account and returns it together with a token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name" binding:"required"`
		Role     string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	user, token, err := a.svc.Register(ctx.Request.Context(), workflow.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     utils.SanitizeText(req.Name),
		Role:     strings.TrimSpace(req.Role),
	})
	if err != nil {
		workflowError(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{
		"user":  user,
		"token": token,
	})
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid request payload")
		return
	}

	user, token, err := a.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		workflowError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"user":  user,
		"token": token,
	})
}

// Me returns the authenticated user's own account.
func (a *AuthController) Me(ctx *gin.Context) {
	caller := middleware.CallerFrom(ctx)
	if caller == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	user, err := a.svc.Me(ctx.Request.Context(), caller.ID)
	if err != nil {
		workflowError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// Logout revokes the presented token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(72 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)

	utils.Success(ctx, gin.H{"message": "logged out"})
}
