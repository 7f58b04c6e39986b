package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/pkg/errors"
)

type fakeLinker struct {
	err error
}

func (f *fakeLinker) PresignDownload(_ context.Context, objectKey string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://minio.local/" + objectKey + "?signed=1", nil
}

func newReportRouter(t *testing.T, repo *fakeRunRepo, linker ReportLinker) *gin.Engine {
	t.Helper()
	h, err := NewReportHandler(repo, linker)
	require.NoError(t, err)
	r := gin.New()
	r.GET("/api/v1/runs/:id/report", h.Download)
	return r
}

func completedRun(t *testing.T, repo *fakeRunRepo) *run.Run {
	t.Helper()
	now := time.Now().UTC()
	r, err := run.New("pawsome.com", []string{"chewy.com"}, now)
	require.NoError(t, err)
	require.NoError(t, r.Start(now))
	require.NoError(t, r.Complete(now, 7, false, "reports/pawsome.com/"+r.ID.String()+".html"))
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

func TestReportHandler_Download(t *testing.T) {
	repo := newFakeRunRepo()
	r := completedRun(t, repo)
	router := newReportRouter(t, repo, &fakeLinker{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+r.ID.String()+"/report", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), r.ReportObjectKey)
	assert.Contains(t, w.Body.String(), "signed=1")
}

func TestReportHandler_IncompleteRun(t *testing.T) {
	repo := newFakeRunRepo()
	r, err := run.New("pawsome.com", []string{"chewy.com"}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), r))
	router := newReportRouter(t, repo, &fakeLinker{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+r.ID.String()+"/report", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeConflict.String())
}

func TestReportHandler_MissingObjectKey(t *testing.T) {
	repo := newFakeRunRepo()
	now := time.Now().UTC()
	r, err := run.New("pawsome.com", []string{"chewy.com"}, now)
	require.NoError(t, err)
	require.NoError(t, r.Start(now))
	require.NoError(t, r.Complete(now, 0, true, ""))
	require.NoError(t, repo.Create(context.Background(), r))
	router := newReportRouter(t, repo, &fakeLinker{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+r.ID.String()+"/report", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeReportNotFound.String())
}

func TestReportHandler_PresignFailure(t *testing.T) {
	repo := newFakeRunRepo()
	r := completedRun(t, repo)
	linker := &fakeLinker{err: errors.New(errors.ErrCodeStorageError, "minio unreachable")}
	router := newReportRouter(t, repo, linker)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+r.ID.String()+"/report", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNewReportHandler_Validation(t *testing.T) {
	_, err := NewReportHandler(nil, &fakeLinker{})
	assert.Error(t, err)
	_, err = NewReportHandler(newFakeRunRepo(), nil)
	assert.Error(t, err)
}
