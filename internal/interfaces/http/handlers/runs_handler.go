package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

// RunRequester creates a queued analysis run.
type RunRequester interface {
	Request(ctx context.Context, targetDomain string, competitors []string, now time.Time) (*run.Run, error)
}

// RunDispatcher hands a queued run to the asynchronous execution pipeline,
// typically by publishing an analysis.requested event.
type RunDispatcher interface {
	Dispatch(ctx context.Context, r *run.Run) error
}

// RunsHandler serves the /api/v1/runs endpoints.
type RunsHandler struct {
	requester  RunRequester
	dispatcher RunDispatcher
	runs       run.Repository

	defaultTarget      string
	defaultCompetitors []string

	logger logging.Logger
}

// RunsHandlerConfig configures NewRunsHandler.  Dispatcher is optional: when
// absent, created runs stay queued until something else executes them.
type RunsHandlerConfig struct {
	Requester  RunRequester
	Dispatcher RunDispatcher
	Runs       run.Repository

	// Defaults applied when the create request omits them.
	DefaultTarget      string
	DefaultCompetitors []string

	Logger logging.Logger
}

// NewRunsHandler builds a RunsHandler.
func NewRunsHandler(cfg RunsHandlerConfig) (*RunsHandler, error) {
	if cfg.Requester == nil {
		return nil, errors.NewValidation("runs handler requires a run requester")
	}
	if cfg.Runs == nil {
		return nil, errors.NewValidation("runs handler requires a run repository")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("runs handler requires a logger")
	}
	return &RunsHandler{
		requester:          cfg.Requester,
		dispatcher:         cfg.Dispatcher,
		runs:               cfg.Runs,
		defaultTarget:      cfg.DefaultTarget,
		defaultCompetitors: cfg.DefaultCompetitors,
		logger:             cfg.Logger,
	}, nil
}

// createRunRequest is the POST /runs body.  All fields are optional; omitted
// ones fall back to the configured target and competitor set.
type createRunRequest struct {
	TargetDomain string   `json:"target_domain"`
	Competitors  []string `json:"competitors"`
}

// Create handles POST /api/v1/runs.
func (h *RunsHandler) Create(c *gin.Context) {
	var req createRunRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.NewValidation("invalid request body").WithCause(err))
			return
		}
	}

	target := req.TargetDomain
	if target == "" {
		target = h.defaultTarget
	}
	competitors := req.Competitors
	if len(competitors) == 0 {
		competitors = h.defaultCompetitors
	}

	r, err := h.requester.Request(c.Request.Context(), target, competitors, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	if h.dispatcher != nil {
		if err := h.dispatcher.Dispatch(c.Request.Context(), r); err != nil {
			// The run stays queued; a retry of this endpoint or a manual
			// execute can still pick it up.
			h.logger.Error("run dispatch failed",
				logging.String("run_id", r.ID.String()),
				logging.Err(err))
			respondError(c, errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to dispatch analysis run"))
			return
		}
	}

	respondData(c, http.StatusAccepted, r)
}

// Get handles GET /api/v1/runs/:id.
func (h *RunsHandler) Get(c *gin.Context) {
	id := common.ID(c.Param("id"))
	if err := id.Validate(); err != nil {
		respondError(c, errors.NewValidation("run id must be a UUID"))
		return
	}

	r, err := h.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, r)
}

// List handles GET /api/v1/runs with optional ?domain= filter.
func (h *RunsHandler) List(c *gin.Context) {
	p, err := paginationFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var (
		items []*run.Run
		total int64
	)
	if domain := c.Query("domain"); domain != "" {
		items, total, err = h.runs.ListByDomain(c.Request.Context(), domain, p)
	} else {
		items, total, err = h.runs.List(c.Request.Context(), p)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, pagedResponse[*run.Run]{
		Items:    items,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
}
