package roster

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackform/backend/internal/middleware"
	"github.com/hackform/backend/internal/models"
	"github.com/hackform/backend/pkg/response"
)

// ParticipantResolver maps the authenticated user to their participant row
// within a hackathon. Implemented by the participants repository.
type ParticipantResolver interface {
	ByHackathonAndUser(ctx context.Context, hackathonID, userID uuid.UUID) (*models.Participant, error)
}

// Handler exposes the invite lifecycle over HTTP.
type Handler struct {
	service      *Service
	participants ParticipantResolver
	logger       *zap.Logger
}

// NewHandler creates the roster handler.
func NewHandler(service *Service, participants ParticipantResolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, participants: participants, logger: logger}
}

type inviteRequest struct {
	ParticipantID uuid.UUID `json:"participant_id" binding:"required"`
}

// Invite handles POST /hackathons/:id/teams/:teamId/invite. A team member
// invites a participant of the hackathon.
func (h *Handler) Invite(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	invite, msg, err := h.service.Propose(c.Request.Context(), teamID, req.ParticipantID, models.DirectionInvite)
	if err != nil {
		h.respondProposeError(c, err)
		return
	}
	response.Created(c, gin.H{"invite": invite, "message": msg})
}

// Apply handles POST /hackathons/:id/teams/:teamId/apply. The authenticated
// user asks to join the team; their participant row is resolved from the
// hackathon in the path.
func (h *Handler) Apply(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return
	}
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	userID, ok := middleware.SubjectID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	participant, err := h.participants.ByHackathonAndUser(c.Request.Context(), hackathonID, userID)
	if err != nil {
		h.logger.Error("resolve participant failed", zap.Error(err))
		response.Internal(c, "something went wrong")
		return
	}
	if participant == nil {
		response.NotFound(c, "you are not registered for this hackathon")
		return
	}

	invite, msg, err := h.service.Propose(c.Request.Context(), teamID, participant.ID, models.DirectionRequest)
	if err != nil {
		h.respondProposeError(c, err)
		return
	}
	response.Created(c, gin.H{"invite": invite, "message": msg})
}

// Accept handles POST /invites/:id/accept.
func (h *Handler) Accept(c *gin.Context) {
	h.decide(c, DecisionAccept)
}

// Decline handles POST /invites/:id/decline.
func (h *Handler) Decline(c *gin.Context) {
	h.decide(c, DecisionReject)
}

func (h *Handler) decide(c *gin.Context, decision Decision) {
	inviteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invite id")
		return
	}

	if err := h.service.Decide(c.Request.Context(), inviteID, decision); err != nil {
		switch {
		case errors.Is(err, ErrInviteNotActionable):
			response.Conflict(c, "this invite is no longer active")
		default:
			h.logger.Error("invite decision failed",
				zap.Error(err),
				zap.String("invite_id", inviteID.String()),
				zap.String("decision", string(decision)),
			)
			response.Internal(c, "something went wrong")
		}
		return
	}
	response.OK(c, gin.H{"status": statusForDecision(decision)})
}

// EmptySlots handles GET /hackathons/:id/teams/empty-slots.
func (h *Handler) EmptySlots(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return
	}
	teams, err := h.service.EmptySlotsByHackathon(c.Request.Context(), hackathonID)
	if err != nil {
		h.logger.Error("empty slots lookup failed", zap.Error(err))
		response.Internal(c, "something went wrong")
		return
	}
	if teams == nil {
		teams = []TeamOpenSlots{}
	}
	response.OK(c, gin.H{"teams": teams})
}

func (h *Handler) respondProposeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDuplicateProposal):
		response.Conflict(c, "a pending proposal already exists")
	case errors.Is(err, ErrTeamNotInHackathon):
		response.BadRequest(c, ErrTeamNotInHackathon.Error())
	default:
		h.logger.Error("propose invite failed", zap.Error(err))
		response.Internal(c, "something went wrong")
	}
}

func statusForDecision(d Decision) models.InviteStatus {
	if d == DecisionAccept {
		return models.StatusAccepted
	}
	return models.StatusRejected
}
