package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"surekeys_dev_v1/internal/controller"
	"surekeys_dev_v1/internal/middleware"
	"surekeys_dev_v1/internal/model"

	_ "surekeys_dev_v1/docs"
)

// Controllers 路由依赖
type Controllers struct {
	Auth     *controller.AuthController
	Listing  *controller.ListingController
	Wizard   *controller.WizardController
	Resolver middleware.SessionResolver
	Submit   *middleware.KeyedLimiter
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctl Controllers) {
	// Swagger 文档，访问 /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireSession := middleware.SessionAuth(ctl.Resolver)

	api := r.Group("/api")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/register", ctl.Auth.Register)
			auth.POST("/login", ctl.Auth.Login)
			auth.POST("/verify-otp", ctl.Auth.VerifyOTP)
			auth.POST("/resend-otp", ctl.Auth.ResendOTP)
			auth.POST("/forgot-password", ctl.Auth.ForgotPassword)
			auth.POST("/reset-password", ctl.Auth.ResetPassword)

			// 需要登录
			auth.POST("/logout", requireSession, ctl.Auth.Logout)
			auth.GET("/profile", requireSession, ctl.Auth.Profile)
		}

		// 房源浏览，读接口公开
		api.GET("/listings", ctl.Listing.SearchListings)
		api.GET("/listing/:id", ctl.Listing.GetListing)
		listings := api.Group("/listings", requireSession, middleware.RequireRole(model.RoleLandlord, model.RoleAgent))
		{
			listings.PUT("/:id", ctl.Listing.UpdateListing)
			listings.DELETE("/:id", ctl.Listing.DeleteListing)
		}

		// 发布向导，仅房东和中介
		wizard := api.Group("/wizard/sessions", requireSession, middleware.RequireRole(model.RoleLandlord, model.RoleAgent))
		{
			wizard.POST("", ctl.Wizard.CreateSession)
			wizard.GET("/:id", ctl.Wizard.GetSession)
			wizard.DELETE("/:id", ctl.Wizard.CancelSession)

			wizard.POST("/:id/validate/:step", ctl.Wizard.ValidateStep)
			wizard.PUT("/:id/address", ctl.Wizard.SubmitAddress)
			wizard.PUT("/:id/details", ctl.Wizard.SubmitDetails)
			wizard.POST("/:id/preview", ctl.Wizard.ProceedToPreview)
			wizard.POST("/:id/back", ctl.Wizard.Back)
			wizard.POST("/:id/submit", middleware.SubmitRateLimit(ctl.Submit), ctl.Wizard.Submit)

			wizard.POST("/:id/images", ctl.Wizard.UploadImages)
			wizard.PUT("/:id/images/:index/cover", ctl.Wizard.SetCover)
			wizard.DELETE("/:id/images/:index", ctl.Wizard.RemoveImage)
			wizard.POST("/:id/videos", ctl.Wizard.AddVideoLink)
			wizard.DELETE("/:id/videos/:index", ctl.Wizard.RemoveVideoLink)

			// GET /api/wizard/sessions/:id/stream
			wizard.GET("/:id/stream", ctl.Wizard.StreamProgress)
		}
	}
}
