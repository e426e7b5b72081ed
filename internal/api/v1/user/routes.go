package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	u := router.Group("/user")
	u.GET("/profile", GetProfile)
	u.PUT("/profile", UpdateProfile)
	u.GET("/settings", GetSettings)
	u.PUT("/settings", UpdateSettings)
	u.POST("/two-factor/setup", TwoFactorSetup)
	u.POST("/two-factor/enable", TwoFactorEnable)
	u.POST("/two-factor/disable", TwoFactorDisable)
}
