// Package handlers implements the HTTP API endpoints: run management, report
// download links, and health reporting.  Handlers depend on narrow interfaces
// so tests can exercise them without backing services.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// respondData writes a success envelope.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, common.NewSuccessResponse(data))
}

// respondError maps an error to its HTTP status via the error code table and
// writes a failure envelope.  Unrecognized errors become 500s with a generic
// message so internals are not leaked.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ae *errors.AppError
	if errors.As(err, &ae) {
		resp := common.NewErrorResponse(ae.Code.String(), ae.Message)
		if ae.Detail != "" {
			resp.Error.Detail = ae.Detail
		}
		c.JSON(ae.Code.HTTPStatus(), resp)
		return
	}

	c.JSON(http.StatusInternalServerError,
		common.NewErrorResponse(errors.ErrCodeInternal.String(), "internal server error"))
}

// paginationFromQuery reads page / page_size query parameters with defaults.
func paginationFromQuery(c *gin.Context) (common.Pagination, error) {
	p := common.Pagination{Page: defaultPage, PageSize: defaultPageSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.NewValidation("page must be an integer")
		}
		p.Page = n
	}
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, errors.NewValidation("page_size must be an integer")
		}
		p.PageSize = n
	}
	if err := p.Validate(); err != nil {
		return p, errors.NewValidation(err.Error())
	}
	return p, nil
}

// pagedResponse is the envelope payload for list endpoints.
type pagedResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}
