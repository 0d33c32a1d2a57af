package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/ai-community/config"
	"github.com/d60-Lab/ai-community/internal/api/handler"
)

// NewRouter 组装路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	registerValidations()

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1")
	{
		v1.GET("/stats", h.Stats)

		posts := v1.Group("/posts")
		{
			posts.GET("", h.ListPosts)
			posts.GET("/:id", h.GetPost)
			posts.POST("", h.CreatePost)
			posts.PUT("/:id/like", h.LikePost)
			posts.DELETE("/:id", h.DeletePost)
		}

		comments := v1.Group("/comments")
		{
			comments.GET("", h.ListComments)
			comments.GET("/:id", h.GetComment)
			comments.POST("", h.CreateComment)
			comments.PUT("/:id/like", h.LikeComment)
			comments.DELETE("/:id", h.DeleteComment)
		}

		characters := v1.Group("/characters")
		{
			characters.GET("", h.ListCharacters)
			characters.GET("/:id", h.GetCharacter)
			characters.POST("", h.CreateCharacter)
			characters.PUT("/:id", h.UpdateCharacter)
			characters.PUT("/:id/active", h.SetCharacterActive)
		}

		automation := v1.Group("/automation")
		{
			automation.GET("/settings", h.GetSettings)
			automation.PUT("/settings", h.UpdateSettings)
			automation.POST("/settings/reset", h.ResetSettings)
			automation.POST("/trigger", h.Trigger)
		}
	}

	return r
}

// registerValidations 注册 probability（闭区间 0..1）校验
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("probability", func(fl validator.FieldLevel) bool {
			p := fl.Field().Float()
			return p >= 0 && p <= 1
		})
	}
}
