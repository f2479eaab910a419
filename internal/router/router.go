package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rvclass/examroom-backend/internal/config"
	"github.com/rvclass/examroom-backend/internal/handler"
	"github.com/rvclass/examroom-backend/internal/middleware"
	"github.com/rvclass/examroom-backend/internal/response"
	"github.com/rvclass/examroom-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	Exam          *handler.ExamHandler
	Question      *handler.QuestionHandler
	Leaderboard   *handler.LeaderboardHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.GET("/exams", handlers.StudentPortal.ListExams)
		studentAPI.POST("/exams/:exam_id/start", handlers.StudentPortal.Start)
		studentAPI.GET("/exams/:exam_id/paper", handlers.StudentPortal.Paper)
		studentAPI.POST("/exams/:exam_id/answer", handlers.StudentPortal.SelectAnswer)
		studentAPI.GET("/exams/:exam_id/state", handlers.StudentPortal.State)
		studentAPI.POST("/exams/:exam_id/submit", handlers.StudentPortal.Submit)
		studentAPI.GET("/attempts", handlers.StudentPortal.History)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentJWT(authService))
	{
		ws.GET("/student/exams/:exam_id/clock", handlers.WS.ClockStream)
	}

	// ─── 4. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.GET("/exams", handlers.Exam.List)
		teacherAPI.POST("/exams", handlers.Exam.Create)
		teacherAPI.GET("/exams/:exam_id", handlers.Exam.Get)
		teacherAPI.PUT("/exams/:exam_id", handlers.Exam.Update)
		teacherAPI.DELETE("/exams/:exam_id", handlers.Exam.Delete)
		teacherAPI.POST("/exams/:exam_id/activate", handlers.Exam.SetActive)
		teacherAPI.GET("/exams/:exam_id/results", handlers.Exam.Results)
		teacherAPI.GET("/exams/:exam_id/results.csv", handlers.Exam.ExportResults)

		teacherAPI.GET("/exams/:exam_id/questions", handlers.Question.List)
		teacherAPI.POST("/exams/:exam_id/questions", handlers.Question.Add)
		teacherAPI.POST("/exams/:exam_id/questions/bulk", handlers.Question.BulkAdd)
		teacherAPI.PUT("/exams/:exam_id/questions/:question_id", handlers.Question.Update)
		teacherAPI.DELETE("/exams/:exam_id/questions/:question_id", handlers.Question.Delete)
	}

	// ─── 5. Leaderboard Group (Any JWT) ────────────────────────────────
	leaderboard := router.Group("/api/v1/leaderboard")
	leaderboard.Use(middleware.RequireJWT(authService))
	{
		leaderboard.GET("", handlers.Leaderboard.Overall)
		leaderboard.GET("/:exam_id", handlers.Leaderboard.ByExam)
	}

	return router
}
