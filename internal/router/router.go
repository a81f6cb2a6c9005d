package router

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/handler"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/utils"
)

// RegisterRoutes 注册所有路由。鉴权规则在服务层按资源和动作判断，路由层只解析身份。
func RegisterRoutes(r *gin.Engine, h *handler.Handler, tokens middleware.TokenParser) {
	// 健康检查
	r.GET("/health", h.Health)

	r.NoRoute(func(c *gin.Context) {
		utils.Fail(c, apperr.NotFound("endpoint not found"))
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Authenticate(tokens))

	// ==================== 认证 ====================
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/token", h.Token)
	}

	// ==================== 分类 / 类型 ====================
	categories := api.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.DELETE("/:slug", h.DeleteCategory)
	}

	genres := api.Group("/genres")
	{
		genres.GET("", h.ListGenres)
		genres.POST("", h.CreateGenre)
		genres.DELETE("/:slug", h.DeleteGenre)
	}

	// ==================== 作品 ====================
	titles := api.Group("/titles")
	{
		titles.GET("", h.ListTitles)
		titles.POST("", h.CreateTitle)
		titles.GET("/:title_id", h.GetTitle)
		titles.PATCH("/:title_id", h.UpdateTitle)
		titles.DELETE("/:title_id", h.DeleteTitle)
	}

	// ==================== 评论 / 回复 ====================
	reviews := titles.Group("/:title_id/reviews")
	{
		reviews.GET("", h.ListReviews)
		reviews.POST("", h.CreateReview)
		reviews.GET("/:review_id", h.GetReview)
		reviews.PATCH("/:review_id", h.UpdateReview)
		reviews.DELETE("/:review_id", h.DeleteReview)
	}

	comments := reviews.Group("/:review_id/comments")
	{
		comments.GET("", h.ListComments)
		comments.POST("", h.CreateComment)
		comments.GET("/:comment_id", h.GetComment)
		comments.PATCH("/:comment_id", h.UpdateComment)
		comments.DELETE("/:comment_id", h.DeleteComment)
	}

	// ==================== 用户 ====================
	users := api.Group("/users")
	{
		users.GET("/me", h.Me)
		users.PATCH("/me", h.UpdateMe)

		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:username", h.GetUser)
		users.PATCH("/:username", h.UpdateUser)
		users.DELETE("/:username", h.DeleteUser)
	}
}
