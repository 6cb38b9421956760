package auth

import (
	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/services"
	authutil "github.com/avaliaedu/portal/utils/auth"
	"github.com/avaliaedu/portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RegisterRequest represents a user registration request. Institution and
// course arrive as free text; unknown names create new directory entries.
type RegisterRequest struct {
	Name        string `json:"nome" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Institution string `json:"instituicao"`
	City        string `json:"cidade"`
	State       string `json:"estado"`
	Course      string `json:"curso"`
}

// RegisterResponse represents a successful registration response
type RegisterResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		return response.BadRequest(c, "Name, email and password are required")
	}
	if !authutil.IsPasswordValid(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	// Check for existing email
	var existing model.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "An account with this email already exists")
	}

	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		AnonymizedID: uuid.New().String(),
		Role:         "student",
		IsActive:     true,
	}

	// Resolve directory entries before creating the user so the account
	// never points at a half-created institution
	if req.Institution != "" {
		institutionID, err := h.resolver.ResolveOrCreateInstitution(c.Context(), services.ResolveInstitutionRequest{
			Name:        req.Institution,
			City:        req.City,
			State:       req.State,
			TriggeredBy: "registration",
		})
		if err != nil {
			return response.FromError(c, err, "Failed to resolve institution")
		}
		user.InstitutionID = &institutionID

		if req.Course != "" {
			courseID, err := h.resolver.ResolveOrCreateCourse(c.Context(), services.ResolveCourseRequest{
				Name:          req.Course,
				InstitutionID: institutionID,
				TriggeredBy:   "registration",
			})
			if err != nil {
				return response.FromError(c, err, "Failed to resolve course")
			}
			user.CourseID = &courseID
		}
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	res := RegisterResponse{
		User:        toUserResponse(&user),
		AccessToken: accessToken,
		ExpiresIn:   int(h.jwtManager.AccessExpiry().Seconds()),
	}

	return response.Created(c, res)
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		AnonymizedID:  user.AnonymizedID,
		InstitutionID: user.InstitutionID,
		CourseID:      user.CourseID,
		IsActive:      user.IsActive,
		CreatedAt:     user.CreatedAt,
	}
}
