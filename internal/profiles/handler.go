package profiles

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackform/backend/internal/middleware"
	"github.com/hackform/backend/internal/models"
	"github.com/hackform/backend/pkg/response"
)

// Handler handles profile HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a profile handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// GetMe handles GET /profile for the authenticated user.
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := middleware.SubjectID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	profile, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("get profile failed", zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}
	if profile == nil {
		response.NotFound(c, "profile not found")
		return
	}
	response.OK(c, profile)
}

type updateProfileRequest struct {
	About    *string     `json:"about"`
	Role     *string     `json:"role"`
	SkillIDs []uuid.UUID `json:"skill_ids"`
}

// Update handles PUT /profile. Omitted fields are left unchanged.
func (h *Handler) Update(c *gin.Context) {
	userID, ok := middleware.SubjectID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var role *models.Role
	if req.Role != nil {
		parsed, err := models.ParseRole(*req.Role)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		role = &parsed
	}

	profile, err := h.repo.Update(c.Request.Context(), userID, req.About, role, req.SkillIDs)
	if err != nil {
		h.logger.Error("update profile failed", zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	response.OK(c, profile)
}

// ListSkills handles GET /skills.
func (h *Handler) ListSkills(c *gin.Context) {
	skills, err := h.repo.ListSkills(c.Request.Context())
	if err != nil {
		h.logger.Error("list skills failed", zap.Error(err))
		response.Internal(c, "failed to load skills")
		return
	}
	if skills == nil {
		skills = []models.Skill{}
	}
	response.OK(c, gin.H{"skills": skills})
}
