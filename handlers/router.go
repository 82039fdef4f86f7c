package handlers

import (
	"net/http"

	"github.com/CorrelAid/debtor_submission_uploader/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterOptions struct {
	Forms              *FormHandler
	Logger             *logrus.Logger
	MaxMultipartMemory int64
	RateLimit          middleware.RateLimitOptions
	AllowedDomains     []string
	TurnstileSiteKey   string
}

func NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	if opts.MaxMultipartMemory > 0 {
		router.MaxMultipartMemory = opts.MaxMultipartMemory
	}
	router.SetHTMLTemplate(formTemplate())

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(opts.Logger))
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(middleware.DomainWhitelistMiddleware(opts.AllowedDomains, opts.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", Page(opts.TurnstileSiteKey))

	api := router.Group("/api/v1")
	if opts.RateLimit.RequestsPerMinute > 0 {
		api.Use(middleware.RateLimitMiddleware(opts.RateLimit, opts.Logger))
	}
	{
		forms := api.Group("/forms")
		forms.POST("", opts.Forms.Create)
		forms.GET("/:id", opts.Forms.Get)
		forms.PUT("/:id/fields/:name", opts.Forms.UpdateField)
		forms.POST("/:id/upload", opts.Forms.Upload)
		forms.POST("/:id/widget", opts.Forms.Widget)
		forms.POST("/:id/attempts/:attempt/result", opts.Forms.Result)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.Message{
			Status: "Request Failed",
			Body:   "The requested resource was not found",
		})
	})

	return router
}
