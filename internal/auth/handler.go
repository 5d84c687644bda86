package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackform/backend/pkg/response"
)

// Handler handles participant authentication endpoints.
type Handler struct {
	repo       *Repository
	jwtService *JWTService
	botToken   string
	logger     *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwtService *JWTService, botToken string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwtService: jwtService, botToken: botToken, logger: logger}
}

// TelegramAuth handles POST /auth/telegram. Verifies the login widget
// payload, creates or refreshes the user, and issues a JWT.
func (h *Handler) TelegramAuth(c *gin.Context) {
	var login TelegramLogin
	if err := c.ShouldBindJSON(&login); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if !VerifyTelegramLogin(login, h.botToken, time.Now()) {
		response.BadRequest(c, "invalid telegram login data")
		return
	}

	user, err := h.repo.UpsertByTelegram(c.Request.Context(), login.ID, login.Username, login.DisplayName(), login.PhotoURL)
	if err != nil {
		h.logger.Error("upsert telegram user failed", zap.Error(err), zap.Int64("telegram_id", login.ID))
		response.Internal(c, "failed to sign in")
		return
	}

	token, err := h.jwtService.Generate(user.ID, RoleParticipant)
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "failed to sign in")
		return
	}

	response.OK(c, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// GetUser handles GET /users/:id.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get user failed", zap.Error(err))
		response.Internal(c, "failed to load user")
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user)
}
