package auth

import (
	"time"

	"github.com/avaliaedu/portal/services"
	authutil "github.com/avaliaedu/portal/utils/auth"
	"github.com/avaliaedu/portal/utils/middleware"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	bruteForceProtection *middleware.BruteForceProtection
	resolver             *services.EntityResolverService
	unlockService        *services.UnlockService
	emailService         *services.EmailService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	db *gorm.DB,
	jwtManager *authutil.JWTManager,
	bruteForceProtection *middleware.BruteForceProtection,
	resolver *services.EntityResolverService,
	unlockService *services.UnlockService,
	emailService *services.EmailService,
) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		bruteForceProtection: bruteForceProtection,
		resolver:             resolver,
		unlockService:        unlockService,
		emailService:         emailService,
	}
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID            uint      `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"nome"`
	Role          string    `json:"role"`
	AnonymizedID  string    `json:"anonymized_id"`
	InstitutionID *uint     `json:"instituicao_id,omitempty"`
	CourseID      *uint     `json:"curso_id,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"criado_em"`
}
