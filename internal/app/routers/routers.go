package routers

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stampy-lens/internal/app/controllers"
	v1 "stampy-lens/internal/app/controllers/v1"
	"stampy-lens/internal/app/services"
)

var apiOnce sync.Once
var g *gin.Engine

// SetUp 使用 services 中的单例构建路由，需在 services.Init 之后调用
func SetUp() *gin.Engine {
	apiOnce.Do(func() {
		g = NewRouter(
			v1.NewAnalyzeController(services.Analysis, services.Popups),
			v1.NewOptionsController(services.Options),
			v1.NewPopupController(services.Popups),
		)
	})

	return g
}

func NewRouter(analyze *v1.AnalyzeController, options *v1.OptionsController, popup *v1.PopupController) *gin.Engine {
	r := gin.Default()

	// 跨域中间件，内容脚本运行在任意页面的源上
	r.Use(corsMiddleware())

	mainGroup := r.Group("/stampy/")
	mainGroup.GET("/health", controllers.Health)
	mainGroup.POST("/analyze", analyze.Analyze)
	mainGroup.DELETE("/popup/:pageId", popup.ClosePopup)

	optionsGroup := mainGroup.Group("/options")
	{
		optionsGroup.GET("", options.GetOptions)
		optionsGroup.PUT("", options.SaveOptions)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}
