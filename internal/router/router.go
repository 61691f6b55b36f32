package router

import (
	"net/http"
	"time"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/handler"
	"github.com/academie/admission-backend/internal/middleware"
	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Candidate *handler.CandidateHandler
	Quiz      *handler.QuizHandler
	Staff     *handler.StaffHandler
	Session   *handler.SessionHandler
	Monitor   *handler.MonitorHandler
	WS        *handler.WSHandler
	Health    gin.HandlerFunc
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokens *service.TokenService,
	limiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

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
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.AccessLog())
	router.Use(middleware.Compression())

	health := handlers.Health
	if health == nil {
		health = func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{"status": "ok"})
		}
	}
	router.GET("/health", health)

	autosave := limiter.Middleware()

	// ─── 1. Candidate Group (JWT, role CANDIDAT) ───────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(middleware.RequireJWT(tokens), middleware.RequireCandidate())
	{
		candidateAPI.POST("/sessions/:session_id/registration",
			middleware.RequirePermission(model.PermissionSessionsRegister),
			handlers.Candidate.Register,
		)
		candidateAPI.DELETE("/sessions/:session_id/registration",
			middleware.RequirePermission(model.PermissionSessionsRegister),
			handlers.Candidate.Unregister,
		)
		candidateAPI.GET("/sessions/:session_id/registration", handlers.Candidate.GetEnrollment)
		candidateAPI.GET("/sessions/:session_id/interview", handlers.Candidate.GetInterview)

		quizzes := candidateAPI.Group("/quizzes/:quiz_id")
		quizzes.Use(middleware.RequirePermission(model.PermissionQuizTake))
		{
			quizzes.POST("/start", handlers.Quiz.Start)
			quizzes.GET("/progress", handlers.Quiz.GetProgress)
			quizzes.PUT("/progress", autosave, handlers.Quiz.SaveProgress)
			quizzes.POST("/progress/beacon", autosave, handlers.Quiz.SaveProgressBeacon)
			quizzes.DELETE("/progress", handlers.Quiz.ResetProgress)
			quizzes.POST("/submit", handlers.Quiz.Submit)
		}
	}

	// ─── 2. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireJWT(tokens), middleware.RequireCandidate())
	{
		ws.GET("/candidate/quizzes/:quiz_id/stream",
			middleware.RequirePermission(model.PermissionQuizTake),
			handlers.WS.QuizStream,
		)
	}

	// ─── 3. Staff Group (JWT + RBAC) ───────────────────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireJWT(tokens), middleware.RequireStaff())
	{
		staffAPI.GET("/sessions",
			middleware.RequirePermission(model.PermissionCandidatesRead),
			handlers.Session.ListSessions,
		)
		staffAPI.POST("/sessions",
			middleware.RequirePermission(model.PermissionSessionsManage),
			handlers.Session.CreateSession,
		)

		sessions := staffAPI.Group("/sessions/:session_id")
		{
			sessions.GET("",
				middleware.RequirePermission(model.PermissionCandidatesRead),
				handlers.Session.GetSession,
			)
			sessions.PUT("/status",
				middleware.RequirePermission(model.PermissionSessionsManage),
				handlers.Session.UpdateSessionStatus,
			)
			sessions.GET("/candidates",
				middleware.RequirePermission(model.PermissionCandidatesRead),
				handlers.Staff.ListCandidates,
			)
			sessions.POST("/candidates",
				middleware.RequirePermission(model.PermissionSessionsRegister),
				handlers.Staff.RegisterCandidate,
			)
			sessions.GET("/candidates/:candidate_id",
				middleware.RequirePermission(model.PermissionCandidatesRead),
				handlers.Staff.GetCandidate,
			)
			sessions.POST("/candidates/:candidate_id/validate",
				middleware.RequirePermission(model.PermissionCandidatesValidate),
				handlers.Staff.ValidateCandidate,
			)
			sessions.POST("/candidates/:candidate_id/finalize",
				middleware.RequirePermission(model.PermissionCandidatesFinalize),
				handlers.Staff.FinalizeCandidate,
			)
			sessions.POST("/candidates/:candidate_id/interviews",
				middleware.RequirePermission(model.PermissionInterviewsConduct),
				handlers.Staff.ScheduleInterview,
			)
			sessions.POST("/candidates/:candidate_id/interviews/open",
				middleware.RequirePermission(model.PermissionInterviewsConduct),
				handlers.Staff.OpenInterview,
			)
			sessions.GET("/candidates/:candidate_id/interview",
				middleware.RequirePermission(model.PermissionCandidatesRead),
				handlers.Staff.LatestInterview,
			)

			sessions.GET("/monitor/snapshot",
				middleware.RequirePermission(model.PermissionMonitorRead),
				handlers.Monitor.Snapshot,
			)
			sessions.GET("/monitor",
				middleware.RequirePermission(model.PermissionMonitorRead),
				handlers.Monitor.Stream,
			)
		}

		staffAPI.GET("/interviews/:interview_id",
			middleware.RequirePermission(model.PermissionCandidatesRead),
			handlers.Staff.GetInterview,
		)
		staffAPI.POST("/interviews/:interview_id/decision",
			middleware.RequirePermission(model.PermissionInterviewsConduct),
			handlers.Staff.RecordDecision,
		)

		staffAPI.GET("/candidates/:candidate_id/audit",
			middleware.RequirePermission(model.PermissionCandidatesRead),
			handlers.Staff.ListAudit,
		)
		staffAPI.GET("/candidates/:candidate_id/quizzes/:quiz_id/progress",
			middleware.RequirePermission(model.PermissionAttemptsRead),
			handlers.Quiz.GetCandidateProgress,
		)
		staffAPI.DELETE("/candidates/:candidate_id/quizzes/:quiz_id/attempt",
			middleware.RequirePermission(model.PermissionAttemptsReset),
			handlers.Quiz.AdminReset,
		)
	}

	return router
}
