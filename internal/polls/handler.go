package polls

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castpoll/backend/internal/middleware"
	"github.com/castpoll/backend/internal/models"
	"github.com/castpoll/backend/pkg/response"
)

// CreateRequest is the body for POST /polls. Accepts JSON or form encoding;
// form submissions repeat the options key once per option.
type CreateRequest struct {
	Title              string   `json:"title" form:"title"`
	Description        string   `json:"description" form:"description"`
	Options            []string `json:"options" form:"options"`
	AllowMultipleVotes bool     `json:"allow_multiple_votes" form:"allow_multiple_votes"`
	ExpiresAt          string   `json:"expires_at" form:"expires_at"`
}

// VoteRequest is the body for POST /polls/:id/vote.
type VoteRequest struct {
	OptionID string `json:"option_id" form:"option_id"`
}

// UpdateOptionRequest is one option edit inside an update request.
type UpdateOptionRequest struct {
	ID     string `json:"id" form:"id"`
	Text   string `json:"text" form:"text"`
	Remove bool   `json:"remove" form:"remove"`
}

// UpdateRequest is the body for PATCH /polls/:id.
type UpdateRequest struct {
	Title       string                `json:"title" form:"title"`
	Description string                `json:"description" form:"description"`
	ExpiresAt   string                `json:"expires_at" form:"expires_at"`
	Options     []UpdateOptionRequest `json:"options"`
}

// TotalVotesView is the cached payload for GET /polls/:id/votes/count.
type TotalVotesView struct {
	TotalVotes int64 `json:"total_votes"`
}

// ViewCache stores rendered read views keyed by request path. Mutating
// actions invalidate the same paths through the service's Invalidator.
type ViewCache interface {
	GetJSON(ctx context.Context, path string, v interface{}) bool
	SetJSON(ctx context.Context, path string, v interface{})
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	svc    *Service
	views  ViewCache
	logger *zap.Logger
}

// NewHandler creates a polls handler. views may be nil to disable the
// read-side cache.
func NewHandler(svc *Service, views ViewCache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, views: views, logger: logger}
}

// Create handles POST /polls.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	poll, err := h.svc.Create(c.Request.Context(), CreatePollInput{
		Title:              req.Title,
		Description:        req.Description,
		CreatorID:          currentUserID(c).String(),
		Options:            req.Options,
		AllowMultipleVotes: req.AllowMultipleVotes,
		ExpiresAt:          req.ExpiresAt,
	})
	if err != nil {
		Respond(c, h.logger, err)
		return
	}
	response.Created(c, gin.H{"poll_id": poll.ID})
}

// List handles GET /polls.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if h.views != nil {
		var cached []models.PollSummary
		if h.views.GetJSON(ctx, ListingPath, &cached) {
			response.OK(c, cached)
			return
		}
	}
	list, err := h.svc.List(ctx)
	if err != nil {
		Respond(c, h.logger, err)
		return
	}
	if h.views != nil {
		h.views.SetJSON(ctx, ListingPath, list)
	}
	response.OK(c, list)
}

// Get handles GET /polls/:id.
func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	path := c.Request.URL.Path
	if h.views != nil {
		var cached models.PollWithOptions
		if h.views.GetJSON(ctx, path, &cached) {
			response.OK(c, cached)
			return
		}
	}
	poll, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		Respond(c, h.logger, err)
		return
	}
	if h.views != nil {
		h.views.SetJSON(ctx, path, poll)
	}
	response.OK(c, poll)
}

// Vote handles POST /polls/:id/vote.
func (h *Handler) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	err := h.svc.Vote(c.Request.Context(), VotePollInput{
		PollID:   c.Param("id"),
		OptionID: req.OptionID,
		VoterID:  currentUserID(c).String(),
		VoterIP:  c.ClientIP(),
	})
	if err != nil {
		Respond(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"poll_id": c.Param("id"), "option_id": req.OptionID})
}

// Results handles GET /polls/:id/results.
func (h *Handler) Results(c *gin.Context) {
	ctx := c.Request.Context()
	path := c.Request.URL.Path
	if h.views != nil {
		var cached []models.PollResult
		if h.views.GetJSON(ctx, path, &cached) {
			response.OK(c, cached)
			return
		}
	}
	results, err := h.svc.Results(ctx, c.Param("id"))
	if err != nil {
		Respond(c, h.logger, err)
		return
	}
	if h.views != nil {
		h.views.SetJSON(ctx, path, results)
	}
	response.OK(c, results)
}

// TotalVotes handles GET /polls/:id/votes/count.
func (h *Handler) TotalVotes(c *gin.Context) {
	ctx := c.Request.Context()
	path := c.Request.URL.Path
	if h.views != nil {
		var cached TotalVotesView
		if h.views.GetJSON(ctx, path, &cached) {
			response.OK(c, cached)
			return
		}
	}
	total, err := h.svc.TotalVotes(ctx, c.Param("id"))
	if err != nil {
		Respond(c, h.logger, err)
		return
	}
	view := TotalVotesView{TotalVotes: total}
	if h.views != nil {
		h.views.SetJSON(ctx, path, view)
	}
	response.OK(c, view)
}

// Delete handles DELETE /polls/:id.
func (h *Handler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), DeletePollInput{
		PollID: c.Param("id"),
		UserID: currentUserID(c).String(),
	})
	if err != nil {
		Respond(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"poll_id": c.Param("id"), "deleted": true})
}

// Voted handles GET /polls/:id/voted. Always 200 with a boolean; an
// anonymous caller or a failure degrades to false inside the service.
func (h *Handler) Voted(c *gin.Context) {
	voted := h.svc.HasVoted(c.Request.Context(), c.Param("id"), optionalUserID(c))
	response.OK(c, gin.H{"has_voted": voted})
}

// Update handles PATCH /polls/:id.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := UpdatePollInput{
		PollID:      c.Param("id"),
		UserID:      currentUserID(c).String(),
		Title:       req.Title,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	}
	for _, o := range req.Options {
		in.Options = append(in.Options, UpdateOptionInput{ID: o.ID, Text: o.Text, Remove: o.Remove})
	}
	if err := h.svc.Update(c.Request.Context(), in); err != nil {
		Respond(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"poll_id": c.Param("id"), "updated": true})
}

func currentUserID(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextUserID).(uuid.UUID)
}

// optionalUserID returns the caller's ID, or "" when the request carried
// no usable identity.
func optionalUserID(c *gin.Context) string {
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id.String()
		}
	}
	return ""
}
