package setting

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/settings")
	settings.GET("", GetSettings)
	settings.PUT("", UpdateSettings)
	settings.GET("/:category", GetCategory)
}
