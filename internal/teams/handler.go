package teams

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackform/backend/internal/middleware"
	"github.com/hackform/backend/internal/models"
	"github.com/hackform/backend/pkg/response"
)

// Handler handles team HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a team handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

type createTeamRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=100"`
	About     string   `json:"about" binding:"max=1000"`
	FindRoles []string `json:"find_roles" binding:"required,min=1"`
}

// Create handles POST /hackathons/:id/teams.
func (h *Handler) Create(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return
	}
	userID, ok := middleware.SubjectID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	roles := make([]models.Role, 0, len(req.FindRoles))
	for _, raw := range req.FindRoles {
		role, err := models.ParseRole(raw)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		roles = append(roles, role)
	}

	detail, err := h.repo.Create(c.Request.Context(), hackathonID, userID, req.Name, req.About, roles)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyInTeam):
			response.Conflict(c, err.Error())
		case errors.Is(err, ErrNoProfileRole):
			response.BadRequest(c, err.Error())
		default:
			h.logger.Error("create team failed", zap.Error(err))
			response.Internal(c, "failed to create team")
		}
		return
	}
	response.Created(c, detail)
}

// Get handles GET /hackathons/:id/teams/:teamId.
func (h *Handler) Get(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	detail, err := h.repo.Detail(c.Request.Context(), teamID)
	if err != nil {
		h.logger.Error("get team failed", zap.Error(err))
		response.Internal(c, "failed to load team")
		return
	}
	if detail == nil {
		response.NotFound(c, "team not found")
		return
	}
	response.OK(c, detail)
}

// My handles GET /hackathons/:id/teams/my for the authenticated user.
func (h *Handler) My(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return
	}
	userID, ok := middleware.SubjectID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	detail, err := h.repo.MyTeam(c.Request.Context(), hackathonID, userID)
	if err != nil {
		h.logger.Error("my team lookup failed", zap.Error(err))
		response.Internal(c, "failed to load team")
		return
	}
	if detail == nil {
		response.NotFound(c, "you are not in a team for this hackathon")
		return
	}
	response.OK(c, detail)
}
