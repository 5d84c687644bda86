package organizers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackform/backend/internal/auth"
	"github.com/hackform/backend/internal/middleware"
	"github.com/hackform/backend/pkg/response"
)

// Handler handles organizer auth endpoints.
type Handler struct {
	repo   *Repository
	jwt    *auth.JWTService
	logger *zap.Logger
}

// NewHandler creates an organizer handler.
func NewHandler(repo *Repository, jwt *auth.JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

type credentialsRequest struct {
	Login    string `json:"login" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register handles POST /organizers/register.
func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	organizer, err := h.repo.Create(c.Request.Context(), req.Login, string(hash))
	if err != nil {
		if errors.Is(err, ErrLoginTaken) {
			response.Conflict(c, err.Error())
			return
		}
		h.logger.Error("create organizer failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	token, err := h.jwt.Generate(organizer.ID, auth.RoleOrganizer)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}
	response.Created(c, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"organizer":    organizer,
	})
}

// Login handles POST /organizers/login.
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	organizer, err := h.repo.GetByLogin(c.Request.Context(), req.Login)
	if err != nil {
		h.logger.Error("organizer lookup failed", zap.Error(err))
		response.Internal(c, "failed to login")
		return
	}
	if organizer == nil {
		response.Unauthorized(c, "invalid login or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(organizer.PasswordHash), []byte(req.Password)) != nil {
		response.Unauthorized(c, "invalid login or password")
		return
	}

	token, err := h.jwt.Generate(organizer.ID, auth.RoleOrganizer)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "failed to login")
		return
	}
	response.OK(c, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"organizer":    organizer,
	})
}

// Me handles GET /organizers/me.
func (h *Handler) Me(c *gin.Context) {
	organizerID, ok := middleware.SubjectID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	organizer, err := h.repo.GetByID(c.Request.Context(), organizerID)
	if err != nil {
		h.logger.Error("organizer lookup failed", zap.Error(err))
		response.Internal(c, "failed to load organizer")
		return
	}
	if organizer == nil {
		response.NotFound(c, "organizer not found")
		return
	}
	response.OK(c, organizer)
}

// Logout handles POST /organizers/logout. Tokens are stateless; the client
// simply drops its copy.
func (h *Handler) Logout(c *gin.Context) {
	response.OK(c, gin.H{"message": "logged out"})
}
