package router

import (
	"log"
	"time"

	"github.com/avaliaedu/portal/config"
	"github.com/avaliaedu/portal/database"
	"github.com/avaliaedu/portal/handlers"
	admin_handlers "github.com/avaliaedu/portal/handlers/admin"
	analysis_handlers "github.com/avaliaedu/portal/handlers/analysis"
	auth_handlers "github.com/avaliaedu/portal/handlers/auth"
	course_handlers "github.com/avaliaedu/portal/handlers/course"
	evaluation_handlers "github.com/avaliaedu/portal/handlers/evaluation"
	institution_handlers "github.com/avaliaedu/portal/handlers/institution"
	"github.com/avaliaedu/portal/services"
	"github.com/avaliaedu/portal/utils/auth"
	"github.com/avaliaedu/portal/utils/cache"
	"github.com/avaliaedu/portal/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "avaliaedu-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs the login brute force counters; without it the portal
	// still runs, just unprotected
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Services
	emailService := services.NewEmailService(env)
	resolverService := services.NewEntityResolverService(db)
	mergeService := services.NewMergeService(db)
	evaluationService := services.NewEvaluationService(db, resolverService, env.COOLDOWN_DAYS)
	unlockService := services.NewUnlockService(db, emailService)
	analysisEngine := services.NewAnalysisEngine(env.ANALYZER_CMD, env.ANALYZER_TIMEOUT)
	analysisService := services.NewAnalysisService(db, analysisEngine)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, resolverService, unlockService, emailService)
	institutionHandler := institution_handlers.NewInstitutionHandler(db)
	courseHandler := course_handlers.NewCourseHandler(db)
	evaluationHandler := evaluation_handlers.NewEvaluationHandler(evaluationService)
	analysisHandler := analysis_handlers.NewAnalysisHandler(analysisService)
	mergeHandler := admin_handlers.NewMergeHandler(mergeService)
	userAdminHandler := admin_handlers.NewUserAdminHandler(db)
	unlockAdminHandler := admin_handlers.NewUnlockAdminHandler(unlockService)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)
	authGroup.Post("/unlock/redeem", authHandler.RedeemUnlockCode)

	// Protected auth routes
	authGroup.Get("/profile", authMiddleware.Required(), authHandler.Profile)
	authGroup.Post("/unlock/request", authMiddleware.Required(), authHandler.RequestUnlock)

	// Directory routes (public)
	institutions := api.Group("/institutions")
	institutions.Get("/", institutionHandler.ListInstitutions)
	institutions.Get("/nearby", institutionHandler.NearbyInstitutions)
	institutions.Get("/:id", institutionHandler.GetInstitution)

	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)

	// Evaluation routes (protected)
	evaluations := api.Group("/evaluations", authMiddleware.Required())
	evaluations.Post("/", evaluationHandler.Submit)
	evaluations.Get("/status", evaluationHandler.Status)
	evaluations.Get("/mine", evaluationHandler.MyEvaluations)
	evaluations.Get("/:id", evaluationHandler.GetDetails)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.Required(), middleware.RequireAdmin())

	admin.Get("/evaluations", evaluationHandler.ListFiltered)
	admin.Get("/analysis", analysisHandler.GetReport)

	admin.Post("/institutions/merge",
		middleware.AdminAuditLog(db, "merge", "institution"), mergeHandler.MergeInstitutions)
	admin.Delete("/institutions/:id",
		middleware.AdminAuditLog(db, "deactivate", "institution"), mergeHandler.DeactivateInstitution)
	admin.Post("/courses/merge",
		middleware.AdminAuditLog(db, "merge", "course"), mergeHandler.MergeCourses)
	admin.Delete("/courses/:id",
		middleware.AdminAuditLog(db, "deactivate", "course"), mergeHandler.DeactivateCourse)

	admin.Get("/users", userAdminHandler.ListUsers)
	admin.Post("/users/:id/lock",
		middleware.AdminAuditLog(db, "lock", "user"), userAdminHandler.LockUser)
	admin.Post("/users/:id/unlock",
		middleware.AdminAuditLog(db, "unlock", "user"), userAdminHandler.UnlockUser)
	admin.Get("/auto-created", userAdminHandler.ListAutoCreatedEntities)

	admin.Get("/unlocks", unlockAdminHandler.ListPending)
	admin.Get("/unlocks/count", unlockAdminHandler.PendingCount)
	admin.Post("/unlocks/:id/approve",
		middleware.AdminAuditLog(db, "approve", "unlock_request"), unlockAdminHandler.Approve)
	admin.Post("/unlocks/:id/reject",
		middleware.AdminAuditLog(db, "reject", "unlock_request"), unlockAdminHandler.Reject)
}
