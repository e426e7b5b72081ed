package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/somnifex/PromptManager/internal/middleware"
)

func RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	auth.POST("/register", Register)
	auth.POST("/login", Login)
	auth.POST("/two-factor/verify", VerifyTwoFactor)
	auth.POST("/forgot-password", ForgotPassword)
	auth.POST("/reset-password", ResetPassword)
	auth.POST("/logout", middleware.AuthMiddleware(), Logout)
}
