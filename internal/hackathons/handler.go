package hackathons

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hackform/backend/internal/middleware"
	"github.com/hackform/backend/internal/models"
	"github.com/hackform/backend/internal/roster"
	"github.com/hackform/backend/internal/teams"
	"github.com/hackform/backend/pkg/response"
	"github.com/hackform/backend/pkg/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler handles hackathon HTTP endpoints.
type Handler struct {
	repo         *Repository
	teams        *teams.Repository
	roster       *roster.Service
	participants roster.ParticipantResolver
	s3           *storage.S3 // nil when photo storage is not configured
	logger       *zap.Logger
}

// NewHandler creates a hackathon handler.
func NewHandler(repo *Repository, teamRepo *teams.Repository, rosterService *roster.Service, participants roster.ParticipantResolver, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:         repo,
		teams:        teamRepo,
		roster:       rosterService,
		participants: participants,
		s3:           s3,
		logger:       logger,
	}
}

// List handles GET /hackathons?page=&limit=.
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	list, total, err := h.repo.List(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		h.logger.Error("list hackathons failed", zap.Error(err))
		response.Internal(c, "failed to load hackathons")
		return
	}
	if list == nil {
		list = []models.Hackathon{}
	}
	response.OK(c, gin.H{
		"hackathons": list,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}

// Upcoming handles GET /hackathons/upcoming.
func (h *Handler) Upcoming(c *gin.Context) {
	list, err := h.repo.Upcoming(c.Request.Context())
	if err != nil {
		h.logger.Error("upcoming hackathons failed", zap.Error(err))
		response.Internal(c, "failed to load hackathons")
		return
	}
	if list == nil {
		list = []models.Hackathon{}
	}
	response.OK(c, gin.H{"hackathons": list})
}

// Get handles GET /hackathons/:id.
func (h *Handler) Get(c *gin.Context) {
	hackathon, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, hackathon)
}

// PhotoURL handles GET /hackathons/:id/photo-url, returning a pre-signed
// download URL for the hackathon's photo.
func (h *Handler) PhotoURL(c *gin.Context) {
	hackathon, ok := h.load(c)
	if !ok {
		return
	}
	if hackathon.PhotoKey == "" {
		response.NotFound(c, "hackathon has no photo")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "photo storage is not configured")
		return
	}
	url, err := h.s3.PresignedPhotoURL(c.Request.Context(), hackathon.PhotoKey)
	if err != nil {
		h.logger.Error("presign photo failed", zap.Error(err))
		response.Internal(c, "failed to generate photo url")
		return
	}
	response.OK(c, gin.H{"url": url})
}

type hackathonRequest struct {
	Name        string    `json:"name" binding:"required,min=1,max=200"`
	Description string    `json:"description" binding:"max=5000"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
	Tags        string    `json:"tags" binding:"max=500"`
	MaxTeams    int       `json:"max_teams" binding:"required,min=1"`
	MinTeamSize int       `json:"min_team_size" binding:"required,min=1"`
	MaxTeamSize int       `json:"max_team_size" binding:"required,min=1"`
}

func (r *hackathonRequest) validate() error {
	if !r.EndDate.After(r.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	if r.MaxTeamSize < r.MinTeamSize {
		return errors.New("max_team_size must be >= min_team_size")
	}
	return nil
}

func (r *hackathonRequest) params() CreateParams {
	return CreateParams{
		Name:        r.Name,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Tags:        r.Tags,
		MaxTeams:    r.MaxTeams,
		MinTeamSize: r.MinTeamSize,
		MaxTeamSize: r.MaxTeamSize,
	}
}

// Create handles POST /hackathons (organizer).
func (h *Handler) Create(c *gin.Context) {
	organizerID, ok := middleware.SubjectID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	var req hackathonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hackathon, err := h.repo.Create(c.Request.Context(), organizerID, req.params())
	if err != nil {
		h.logger.Error("create hackathon failed", zap.Error(err))
		response.Internal(c, "failed to create hackathon")
		return
	}
	response.Created(c, hackathon)
}

// Update handles PUT /hackathons/:id (organizer, owner only).
func (h *Handler) Update(c *gin.Context) {
	hackathonID, organizerID, ok := h.ownerContext(c)
	if !ok {
		return
	}
	var req hackathonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hackathon, err := h.repo.Update(c.Request.Context(), hackathonID, organizerID, req.params())
	if err != nil {
		h.respondOwnerError(c, err, "update hackathon failed")
		return
	}
	response.OK(c, hackathon)
}

// Delete handles DELETE /hackathons/:id (organizer, owner only).
func (h *Handler) Delete(c *gin.Context) {
	hackathonID, organizerID, ok := h.ownerContext(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), hackathonID, organizerID); err != nil {
		h.respondOwnerError(c, err, "delete hackathon failed")
		return
	}
	response.NoContent(c)
}

// UploadPhoto handles POST /hackathons/:id/photo (organizer, multipart).
func (h *Handler) UploadPhoto(c *gin.Context) {
	hackathonID, organizerID, ok := h.ownerContext(c)
	if !ok {
		return
	}
	if h.s3 == nil {
		response.Internal(c, "photo storage is not configured")
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		response.BadRequest(c, "photo file is required")
		return
	}
	if file.Size > storage.MaxPhotoSize {
		response.BadRequest(c, fmt.Sprintf("photo exceeds %d bytes", storage.MaxPhotoSize))
		return
	}
	if !storage.ValidatePhotoFilename(file.Filename) {
		response.BadRequest(c, "unsupported photo format")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "unreadable photo file")
		return
	}
	defer src.Close()

	key := storage.PhotoKey(hackathonID.String(), file.Filename)
	if err := h.s3.UploadPhoto(c.Request.Context(), key, storage.ContentTypeForFilename(file.Filename), src); err != nil {
		h.logger.Error("photo upload failed", zap.Error(err))
		response.Internal(c, "failed to upload photo")
		return
	}

	previous, err := h.repo.SetPhotoKey(c.Request.Context(), hackathonID, organizerID, key)
	if err != nil {
		h.respondOwnerError(c, err, "record photo failed")
		return
	}
	if previous != "" && previous != key {
		if err := h.s3.DeletePhoto(c.Request.Context(), previous); err != nil {
			h.logger.Warn("stale photo cleanup failed", zap.Error(err), zap.String("key", previous))
		}
	}
	response.OK(c, gin.H{"photo_key": key})
}

// Teams handles GET /hackathons/:id/teams (organizer).
func (h *Handler) Teams(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return
	}
	list, err := h.teams.ListByHackathon(c.Request.Context(), hackathonID)
	if err != nil {
		h.logger.Error("list teams failed", zap.Error(err))
		response.Internal(c, "failed to load teams")
		return
	}
	if list == nil {
		list = []teams.Detail{}
	}
	response.OK(c, gin.H{"teams": list})
}

// Analytics handles GET /hackathons/:id/analytics (organizer).
func (h *Handler) Analytics(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return
	}
	analytics, err := h.repo.Analytics(c.Request.Context(), hackathonID)
	if err != nil {
		h.logger.Error("analytics failed", zap.Error(err))
		response.Internal(c, "failed to compute analytics")
		return
	}
	response.OK(c, analytics)
}

// ExportCSV handles GET /hackathons/:id/export/csv (organizer). Streams the
// participant list as a CSV attachment.
func (h *Handler) ExportCSV(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return
	}
	rows, err := h.repo.ExportRows(c.Request.Context(), hackathonID)
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		response.Internal(c, "failed to export participants")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="participants_%s.csv"`, hackathonID))
	c.Status(http.StatusOK)

	if err := writeCSV(c.Writer, rows); err != nil {
		// Headers are already sent, so the client sees a truncated file;
		// the log line is the only place this surfaces.
		h.logger.Warn("csv export truncated",
			zap.Error(err),
			zap.String("hackathon_id", hackathonID.String()),
		)
	}
}

// writeCSV streams the participant export with a header row.
func writeCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "telegram_username", "role", "team"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Name, row.TelegramUsername, row.Role, row.TeamName}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ApproveTeam handles POST /hackathons/:id/teams/:teamId/approve (organizer).
func (h *Handler) ApproveTeam(c *gin.Context) {
	hackathonID, organizerID, ok := h.ownerContext(c)
	if !ok {
		return
	}
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	if err := h.repo.ApproveTeam(c.Request.Context(), hackathonID, organizerID, teamID); err != nil {
		h.respondOwnerError(c, err, "approve team failed")
		return
	}
	response.OK(c, gin.H{"message": "team approved"})
}

type assignRequest struct {
	TeamID uuid.UUID `json:"team_id" binding:"required"`
}

// AssignParticipant handles POST /hackathons/:id/participants/:userId/assign
// (organizer). Places the user into the team without an invite. The target
// team must belong to the path hackathon; the roster core rejects
// cross-hackathon placements and enforces the one-slot-per-user rule.
func (h *Handler) AssignParticipant(c *gin.Context) {
	hackathonID, organizerID, ok := h.ownerContext(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hackathon, err := h.repo.GetByID(c.Request.Context(), hackathonID)
	if err != nil {
		h.logger.Error("get hackathon failed", zap.Error(err))
		response.Internal(c, "something went wrong")
		return
	}
	if hackathon == nil {
		response.NotFound(c, "hackathon not found")
		return
	}
	if hackathon.OrganizerID != organizerID {
		response.Forbidden(c, ErrNotOwner.Error())
		return
	}

	participant, err := h.participants.ByHackathonAndUser(c.Request.Context(), hackathonID, userID)
	if err != nil {
		h.logger.Error("resolve participant failed", zap.Error(err))
		response.Internal(c, "something went wrong")
		return
	}
	if participant == nil {
		response.NotFound(c, "user is not a participant of this hackathon")
		return
	}

	if err := h.roster.Assign(c.Request.Context(), req.TeamID, participant.ID); err != nil {
		switch {
		case errors.Is(err, roster.ErrTeamNotInHackathon):
			response.BadRequest(c, err.Error())
		case errors.Is(err, roster.ErrRoleSlotUnavailable):
			response.Conflict(c, "user cannot be placed into this team")
		default:
			h.logger.Error("assign participant failed", zap.Error(err))
			response.Internal(c, "something went wrong")
		}
		return
	}
	response.OK(c, gin.H{"message": "participant assigned"})
}

func (h *Handler) load(c *gin.Context) (*models.Hackathon, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return nil, false
	}
	hackathon, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get hackathon failed", zap.Error(err))
		response.Internal(c, "failed to load hackathon")
		return nil, false
	}
	if hackathon == nil {
		response.NotFound(c, "hackathon not found")
		return nil, false
	}
	return hackathon, true
}

func (h *Handler) ownerContext(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hackathon id")
		return uuid.Nil, uuid.Nil, false
	}
	organizerID, ok := middleware.SubjectID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	return hackathonID, organizerID, true
}

func (h *Handler) respondOwnerError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, err.Error())
	case errors.Is(err, pgx.ErrNoRows):
		response.NotFound(c, "not found")
	default:
		h.logger.Error(logMsg, zap.Error(err))
		response.Internal(c, "something went wrong")
	}
}
