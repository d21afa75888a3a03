package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/provenpro/pkg/logger"
)

type RouterConfig struct {
	Session *SessionHandler
	Profile *ProfileHandler
	Draft   *DraftHandler
	Metrics http.Handler
	Logger  logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Logger), ErrorMiddleware(cfg.Logger))

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		session := api.Group("/session")
		{
			session.POST("", cfg.Session.SaveToken)
			session.DELETE("", cfg.Session.Logout)
		}

		profile := api.Group("/profile")
		{
			profile.GET("", cfg.Profile.GetProfile)
			profile.POST("/steps", cfg.Profile.SubmitStep)
			profile.GET("/history/:field", cfg.Profile.History)
		}

		drafts := api.Group("/drafts/:kind")
		{
			drafts.GET("", cfg.Draft.GetDraft)
			drafts.POST("/edit", cfg.Draft.BeginEdit)
			drafts.DELETE("/edit", cfg.Draft.DiscardEdit)
			drafts.POST("/commit", cfg.Draft.CommitEdit)
			drafts.POST("/sync", cfg.Draft.Sync)
			drafts.DELETE("/items/:id", cfg.Draft.DeleteItem)
		}
	}
	return router
}
