package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/qbank/exam-platform/internal/config"
	"github.com/qbank/exam-platform/internal/handler"
	"github.com/qbank/exam-platform/internal/metrics"
	"github.com/qbank/exam-platform/internal/middleware"
	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Paper    *handler.PaperHandler
	Exam     *handler.ExamHandler
	Stats    *handler.StatsHandler
	WS       *handler.WSHandler
}

// Deps carries the cross-cutting pieces the routes are wrapped in.
type Deps struct {
	Auth        middleware.TokenValidator
	Metrics     *metrics.Metrics
	AuthLimiter *middleware.RateLimiter
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(deps Deps, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(
		response.RequestIDMiddleware(),
		middleware.SecureHeaders(),
		deps.Metrics.Middleware(),
		middleware.BrotliWithConfig(middleware.BrotliConfig{
			Quality:   middleware.DefaultBrotliConfig.Quality,
			MinLength: middleware.DefaultBrotliConfig.MinLength,
			Skipper:   middleware.SkipPaths("/metrics"),
		}),
	)

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", deps.Metrics.Handler())

	requireAuth := []gin.HandlerFunc{
		middleware.RequireJWT(deps.Auth),
		middleware.CheckActiveSession(deps.Auth),
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/login", deps.AuthLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", append(requireAuth, handlers.Auth.Logout)...)
		auth.GET("/me", append(requireAuth, handlers.Auth.Me)...)
	}

	// ─── 2. API Group (JWT + single active login + RBAC) ───────────────
	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())
	api.Use(requireAuth...)
	{
		api.POST("/users",
			middleware.RequirePermission(model.PermissionUsersWrite),
			handlers.Auth.CreateUser,
		)

		// Question bank and review workflow
		questions := api.Group("/questions")
		{
			questions.GET("", middleware.RequirePermission(model.PermissionQuestionsRead), handlers.Question.ListQuestions)
			questions.GET("/pending", middleware.RequirePermission(model.PermissionQuestionsReview), handlers.Question.ListPending)
			questions.GET("/:id", middleware.RequirePermission(model.PermissionQuestionsRead), handlers.Question.GetQuestion)
			questions.GET("/:id/reviews", middleware.RequirePermission(model.PermissionQuestionsRead), handlers.Question.ReviewHistory)
			questions.GET("/:id/versions", middleware.RequirePermission(model.PermissionQuestionsRead), handlers.Question.VersionHistory)
			questions.POST("", middleware.RequirePermission(model.PermissionQuestionsWrite), handlers.Question.CreateQuestion)
			questions.PUT("/:id", middleware.RequirePermission(model.PermissionQuestionsWrite), handlers.Question.UpdateQuestion)
			questions.DELETE("/:id", middleware.RequirePermission(model.PermissionQuestionsWrite), handlers.Question.DeleteQuestion)
			questions.POST("/:id/submit", middleware.RequirePermission(model.PermissionQuestionsWrite), handlers.Question.SubmitForReview)
			questions.POST("/:id/approve", middleware.RequirePermission(model.PermissionQuestionsReview), handlers.Question.Approve)
			questions.POST("/:id/reject", middleware.RequirePermission(model.PermissionQuestionsReview), handlers.Question.Reject)
		}

		// Papers
		papers := api.Group("/papers")
		{
			papers.GET("", middleware.RequirePermission(model.PermissionPapersRead), handlers.Paper.ListPapers)
			papers.GET("/:id", middleware.RequirePermission(model.PermissionPapersRead), handlers.Paper.GetPaper)
			papers.GET("/:id/analytics", middleware.RequirePermission(model.PermissionExamsRead), handlers.Exam.PaperAnalytics)
			papers.POST("", middleware.RequirePermission(model.PermissionPapersWrite), handlers.Paper.CreatePaper)
			papers.POST("/generate", middleware.RequirePermission(model.PermissionPapersWrite), handlers.Paper.GeneratePaper)
			papers.DELETE("/:id", middleware.RequirePermission(model.PermissionPapersWrite), handlers.Paper.DeletePaper)
		}

		// Exam sessions
		exams := api.Group("/exams")
		{
			exams.POST("", middleware.RequirePermission(model.PermissionExamsTake), handlers.Exam.StartExam)
			exams.GET("",
				middleware.RequireAnyPermission(model.PermissionExamsTake, model.PermissionExamsRead),
				handlers.Exam.ListExams,
			)
			exams.GET("/:id",
				middleware.RequireAnyPermission(model.PermissionExamsTake, model.PermissionExamsRead),
				handlers.Exam.GetExam,
			)
			exams.POST("/:id/submit", middleware.RequirePermission(model.PermissionExamsTake), handlers.Exam.SubmitExam)
			exams.POST("/:id/grade", middleware.RequirePermission(model.PermissionExamsGrade), handlers.Exam.GradeExam)
		}

		// Practice statistics
		stats := api.Group("/stats")
		{
			stats.GET("/me", middleware.RequirePermission(model.PermissionExamsTake), handlers.Stats.MyStats)
			stats.GET("/leaderboard", middleware.RequirePermission(model.PermissionStatsRead), handlers.Stats.Leaderboard)
		}
	}

	// ─── 3. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(deps.Auth), middleware.CheckActiveSession(deps.Auth))
	{
		ws.GET("/exams/:id/stream", middleware.RequirePermission(model.PermissionExamsTake), handlers.WS.ExamWebSocketStream)
	}

	return router
}
