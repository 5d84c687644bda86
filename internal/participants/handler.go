package participants

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackform/backend/internal/middleware"
	"github.com/hackform/backend/pkg/response"
)

// Handler handles participant HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a participant handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Register handles POST /hackathons/:id/participants. The authenticated
// user joins the hackathon's participant list.
func (h *Handler) Register(c *gin.Context) {
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

	participant, err := h.repo.Register(c.Request.Context(), hackathonID, userID)
	if err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			response.Conflict(c, err.Error())
			return
		}
		h.logger.Error("register participant failed", zap.Error(err))
		response.Internal(c, "failed to register for hackathon")
		return
	}
	response.Created(c, participant)
}

// List handles GET /hackathons/:id/participants?team_status=in_team|free.
func (h *Handler) List(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return
	}
	teamStatus := c.Query("team_status")
	switch teamStatus {
	case TeamStatusAny, TeamStatusInTeam, TeamStatusFree:
	default:
		response.BadRequest(c, "team_status must be in_team or free")
		return
	}

	list, err := h.repo.ListByHackathon(c.Request.Context(), hackathonID, teamStatus)
	if err != nil {
		h.logger.Error("list participants failed", zap.Error(err))
		response.Internal(c, "failed to load participants")
		return
	}
	if list == nil {
		list = []ParticipantView{}
	}
	response.OK(c, gin.H{"participants": list})
}
