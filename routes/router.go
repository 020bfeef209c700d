package routes

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/mitodev/mito/config"
	"github.com/mitodev/mito/controllers"
	"github.com/mitodev/mito/middleware"
	"github.com/mitodev/mito/tasks"
	"github.com/mitodev/mito/utils"
)

// SetupRouter builds the HTTP engine with all middleware and API routes.
func SetupRouter(db *gorm.DB, broker tasks.Enqueuer, wechat utils.SessionExchanger) *gin.Engine {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(cors.New(corsConfig(cfg)))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"health": "OK"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, "api route not found")
			return
		}
		ctx.Status(http.StatusNotFound)
	})

	authCtl := controllers.NewAuthController(db, wechat)
	postCtl := controllers.NewPostController(db, broker)
	tagCtl := controllers.NewTagController(db)
	categoryCtl := controllers.NewCategoryController(db)

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware())
	{
		auth.POST("/wechat/login", authCtl.WeChatLogin)
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.POST("/refresh", authCtl.Refresh)
		auth.GET("/me", middleware.AuthRequired(), authCtl.Me)
		auth.POST("/logout", middleware.AuthRequired(), authCtl.Logout)
	}

	api := v1.Group("")
	api.Use(middleware.AuthRequired())
	{
		api.GET("/posts", postCtl.ListPosts)
		api.POST("/posts", postCtl.CreatePost)
		api.GET("/posts/:id", postCtl.GetPost)
		api.PUT("/posts/:id", postCtl.UpdatePost)
		api.DELETE("/posts/:id", postCtl.DeletePost)

		api.GET("/tags", tagCtl.ListTags)
		api.POST("/tags", tagCtl.CreateTag)
		api.GET("/tags/:id", tagCtl.GetTag)
		api.PUT("/tags/:id", tagCtl.UpdateTag)
		api.DELETE("/tags/:id", tagCtl.DeleteTag)

		api.GET("/categories", categoryCtl.ListCategories)
		api.POST("/categories", categoryCtl.CreateCategory)
		api.GET("/categories/:id", categoryCtl.GetCategory)
		api.PUT("/categories/:id", categoryCtl.UpdateCategory)
		api.DELETE("/categories/:id", categoryCtl.DeleteCategory)
	}

	return r
}

func corsConfig(cfg config.AppConfig) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	if len(cfg.AllowedOrigins) == 0 ||
		(len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}
