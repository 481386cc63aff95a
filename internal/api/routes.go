package api

import (
	"log/slog"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	"resumeforge/internal/database"
	"resumeforge/internal/latex"
	"resumeforge/internal/resume"
	"resumeforge/internal/storage"
)

// RegisterRoutes registers the API routes, without an /api prefix.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	generator *resume.Generator,
) {
	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		cfg.API.LoginRateLimitPerHour, cfg.API.LoginLockThreshold, cfg.API.LoginLockTTL, cfg.API.CookieDomain)
	resumeHandler := NewResumeHandler(db, asynqClient, storageClient, generator, cfg.API.MaxResumes)
	uploadHandler := NewUploadHandler(storageClient, clamd.NewClamd(cfg.Clamd.Address), cfg.API.MaxUploadMB)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOrigins)
	elementsIndex := NewElementsIndexHandler(db)
	importHandler := NewImportHandler(db)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.GET("/me", authMiddleware, authHandler.Me)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		elements := v1.Group("/elements")
		elements.Use(authMiddleware)
		{
			elements.GET("", elementsIndex.List)
			elements.POST("/import", importHandler.Import)

			NewElementHandler[database.Heading](db, latex.KindHeading, applyHeading).Register(elements.Group("/headings"))
			NewElementHandler[database.Education](db, latex.KindEducation, applyEducation).Register(elements.Group("/educations"))
			NewElementHandler[database.Experience](db, latex.KindExperience, applyExperience).Register(elements.Group("/experiences"))
			NewElementHandler[database.Project](db, latex.KindProject, applyProject).Register(elements.Group("/projects"))
			NewElementHandler[database.Skill](db, latex.KindSkill, applySkill).Register(elements.Group("/skills"))
			NewElementHandler[database.Certification](db, latex.KindCertification, applyCertification).Register(elements.Group("/certifications"))
			NewElementHandler[database.Award](db, latex.KindAward, applyAward).Register(elements.Group("/awards"))
			NewElementHandler[database.Volunteer](db, latex.KindVolunteer, applyVolunteer).Register(elements.Group("/volunteers"))
		}

		resumes := v1.Group("/custom-resumes")
		resumes.Use(authMiddleware)
		{
			resumes.GET("", resumeHandler.ListResumes)
			resumes.POST("", resumeHandler.CreateResume)
			resumes.GET("/:id", resumeHandler.GetResume)
			resumes.PUT("/:id", resumeHandler.UpdateResume)
			resumes.DELETE("/:id", resumeHandler.DeleteResume)
			resumes.POST("/:id/generate", resumeHandler.GenerateResume)
			resumes.POST("/:id/generate-async", resumeHandler.GenerateResumeAsync)
			resumes.GET("/:id/download-link", resumeHandler.GetDownloadLink)
		}

		uploads := v1.Group("/uploads")
		uploads.Use(authMiddleware)
		{
			uploads.POST("/resume", uploadHandler.UploadResume)
		}
	}
}
