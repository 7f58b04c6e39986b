package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

// ReportLinker produces time-limited download URLs for stored report artifacts.
type ReportLinker interface {
	PresignDownload(ctx context.Context, objectKey string) (string, error)
}

// ReportHandler serves report download links for completed runs.
type ReportHandler struct {
	runs    run.Repository
	reports ReportLinker
}

// NewReportHandler builds a ReportHandler.
func NewReportHandler(runs run.Repository, reports ReportLinker) (*ReportHandler, error) {
	if runs == nil {
		return nil, errors.NewValidation("report handler requires a run repository")
	}
	if reports == nil {
		return nil, errors.NewValidation("report handler requires a report linker")
	}
	return &ReportHandler{runs: runs, reports: reports}, nil
}

// reportLinkResponse is the GET /runs/:id/report payload.
type reportLinkResponse struct {
	RunID       string `json:"run_id"`
	ObjectKey   string `json:"object_key"`
	DownloadURL string `json:"download_url"`
}

// Download handles GET /api/v1/runs/:id/report.
func (h *ReportHandler) Download(c *gin.Context) {
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
	if r.Status != run.StatusCompleted {
		respondError(c, errors.Newf(errors.ErrCodeConflict,
			"run %s is %s, report available only for completed runs", r.ID, r.Status))
		return
	}
	if r.ReportObjectKey == "" {
		respondError(c, errors.New(errors.ErrCodeReportNotFound, "run completed without a stored report"))
		return
	}

	url, err := h.reports.PresignDownload(c.Request.Context(), r.ReportObjectKey)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, reportLinkResponse{
		RunID:       r.ID.String(),
		ObjectKey:   r.ReportObjectKey,
		DownloadURL: url,
	})
}
