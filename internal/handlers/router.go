package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/config"
	"github.com/munificent-school/backoffice/internal/metrics"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

const serviceName = "backoffice"

type HandlerManager struct {
	authHandler        *AuthHandler
	userHandler        *UserHandler
	courseHandler      *CourseHandler
	applicationHandler *ApplicationHandler
	blogHandler        *BlogHandler
	reviewHandler      *ReviewHandler
	settingsHandler    *SettingsHandler
	dashboardHandler   *DashboardHandler
	authMiddleware     *AuthMiddleware
	applicationLimiter *RateLimiter
	serviceManager     services.ServiceManager
}

// NewHandlerManager wires handlers to services. Local JWTs are always
// accepted; extra authenticators (Casdoor) are tried after them.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	rateLimit config.RateLimitConfig,
	extraAuthenticators ...Authenticator,
) *HandlerManager {
	authenticators := append([]Authenticator{serviceManager.Auth()}, extraAuthenticators...)

	return &HandlerManager{
		authHandler:        NewAuthHandler(serviceManager.Auth(), logger),
		userHandler:        NewUserHandler(serviceManager.User(), serviceManager.Enrollment(), logger),
		courseHandler:      NewCourseHandler(serviceManager.Course(), serviceManager.Lesson(), logger),
		applicationHandler: NewApplicationHandler(serviceManager.Application(), logger),
		blogHandler:        NewBlogHandler(serviceManager.Blog(), logger),
		reviewHandler:      NewReviewHandler(serviceManager.Review(), logger),
		settingsHandler:    NewSettingsHandler(serviceManager.Settings(), logger),
		dashboardHandler:   NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:     NewAuthMiddleware(logger, authenticators...),
		applicationLimiter: NewRateLimiter(rateLimit.ApplicationsPerMinute, rateLimit.Burst),
		serviceManager:     serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := hm.authMiddleware
	admin := auth.RequireRole(models.RoleAdmin)

	api := router.Group("/api")
	api.Use(auth.Authenticate())
	{
		api.POST("/token", hm.authHandler.Login)
		api.POST("/token/refresh", hm.authHandler.Refresh)

		// Users - self service first, then admin management
		users := api.Group("/users")
		{
			users.GET("/me", auth.RequireAuth(), hm.userHandler.Me)
			users.PATCH("/me", auth.RequireAuth(), hm.userHandler.UpdateMe)
			users.PUT("/me", auth.RequireAuth(), hm.userHandler.UpdateMe)
			users.POST("/change-password", auth.RequireAuth(), hm.userHandler.ChangePassword)
			users.POST("/students/:id/enroll", admin, hm.userHandler.SetEnrollment)

			users.GET("", admin, hm.userHandler.ListUsers)
			users.POST("", admin, hm.userHandler.CreateUser)
			users.GET("/:id", admin, hm.userHandler.GetUser)
			users.PUT("/:id", admin, hm.userHandler.UpdateUser)
			users.PATCH("/:id", admin, hm.userHandler.UpdateUser)
			users.DELETE("/:id", admin, hm.userHandler.DeleteUser)
		}
		api.GET("/public-teachers", hm.userHandler.PublicTeachers)
		api.GET("/teacher-students", auth.RequireRole(models.RoleTeacher), hm.userHandler.TeacherStudents)

		// Courses and lessons - ownership is decided by the services
		courses := api.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/my", auth.RequireAuth(), hm.courseHandler.MyCourses)
			courses.GET("/upcoming-lessons", auth.RequireAuth(), hm.courseHandler.UpcomingLessons)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.POST("", admin, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", auth.RequireAuth(), hm.courseHandler.UpdateCourse)
			courses.PATCH("/:id", auth.RequireAuth(), hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", admin, hm.courseHandler.DeleteCourse)

			lessons := courses.Group("/:id/lessons", auth.RequireAuth())
			{
				lessons.GET("", hm.courseHandler.ListLessons)
				lessons.POST("", hm.courseHandler.CreateLesson)
				lessons.GET("/:lesson_id", hm.courseHandler.GetLesson)
				lessons.PUT("/:lesson_id", hm.courseHandler.UpdateLesson)
				lessons.PATCH("/:lesson_id", hm.courseHandler.UpdateLesson)
				lessons.DELETE("/:lesson_id", hm.courseHandler.DeleteLesson)
			}
		}

		applications := api.Group("/applications")
		{
			applications.POST("", RateLimitMiddleware(hm.applicationLimiter), hm.applicationHandler.CreateApplication)
			applications.GET("", admin, hm.applicationHandler.ListApplications)
			applications.GET("/export", admin, hm.applicationHandler.ExportApplications)
			applications.GET("/:id", admin, hm.applicationHandler.GetApplication)
			applications.PUT("/:id", admin, hm.applicationHandler.UpdateApplication)
			applications.PATCH("/:id", admin, hm.applicationHandler.UpdateApplication)
			applications.DELETE("/:id", admin, hm.applicationHandler.DeleteApplication)
		}

		blog := api.Group("/blog")
		{
			blog.GET("/posts", hm.blogHandler.ListPosts)
			blog.GET("/posts/:slug", hm.blogHandler.GetPost)
			blog.POST("/posts", admin, hm.blogHandler.CreatePost)
			blog.PUT("/posts/:slug", admin, hm.blogHandler.UpdatePost)
			blog.PATCH("/posts/:slug", admin, hm.blogHandler.UpdatePost)
			blog.DELETE("/posts/:slug", admin, hm.blogHandler.DeletePost)

			blog.GET("/categories", hm.blogHandler.ListCategories)
			blog.POST("/categories", admin, hm.blogHandler.CreateCategory)
			blog.PUT("/categories/:id", admin, hm.blogHandler.UpdateCategory)
			blog.PATCH("/categories/:id", admin, hm.blogHandler.UpdateCategory)
			blog.DELETE("/categories/:id", admin, hm.blogHandler.DeleteCategory)
		}

		// Reviews - unpublished ones read as 404 for non-admins
		reviews := api.Group("/reviews")
		{
			reviews.GET("", hm.reviewHandler.ListReviews)
			reviews.GET("/:id", hm.reviewHandler.GetReview)
			reviews.POST("", admin, hm.reviewHandler.CreateReview)
			reviews.PUT("/:id", admin, hm.reviewHandler.UpdateReview)
			reviews.PATCH("/:id", admin, hm.reviewHandler.UpdateReview)
			reviews.DELETE("/:id", admin, hm.reviewHandler.DeleteReview)
			reviews.POST("/:id/publish", admin, hm.reviewHandler.PublishReview)
		}

		api.GET("/system-settings", admin, hm.settingsHandler.GetSettings)
		api.PATCH("/system-settings", admin, hm.settingsHandler.UpdateSettings)
		api.PUT("/system-settings", admin, hm.settingsHandler.UpdateSettings)

		api.GET("/admin-dashboard-summary", admin, hm.dashboardHandler.AdminSummary)
		api.GET("/student-dashboard-summary", auth.RequireAuth(), hm.dashboardHandler.StudentSummary)
		api.GET("/teacher-dashboard-summary", auth.RequireRole(models.RoleTeacher), hm.dashboardHandler.TeacherSummary)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
