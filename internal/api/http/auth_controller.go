package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/immxrtalbeast/homechat/internal/service"
)

var validate = validator.New()

type AuthController struct {
	users service.UserInteractor
}

func NewAuthController(users service.UserInteractor) *AuthController {
	return &AuthController{users: users}
}

func (c *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username    string `json:"username" validate:"required,alphanum,min=3,max=32"`
		Email       string `json:"email" validate:"required,email"`
		DisplayName string `json:"display_name" validate:"max=255"`
		Password    string `json:"password" validate:"required,min=8,max=72"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := c.users.Register(ctx.Request.Context(), req.Username, req.Email, req.DisplayName, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) || errors.Is(err, repository.ErrEmailExists) {
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (c *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, token, err := c.users.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}
