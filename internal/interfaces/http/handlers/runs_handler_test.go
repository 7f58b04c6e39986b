package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRequester struct {
	lastTarget      string
	lastCompetitors []string
	err             error
}

func (f *fakeRequester) Request(_ context.Context, target string, competitors []string, now time.Time) (*run.Run, error) {
	f.lastTarget = target
	f.lastCompetitors = competitors
	if f.err != nil {
		return nil, f.err
	}
	return run.New(target, competitors, now)
}

type fakeDispatcher struct {
	dispatched []*run.Run
	err        error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, r *run.Run) error {
	if f.err != nil {
		return f.err
	}
	f.dispatched = append(f.dispatched, r)
	return nil
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs map[common.ID]*run.Run
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[common.ID]*run.Run)}
}

func (f *fakeRunRepo) Create(_ context.Context, r *run.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[r.ID] = r
	return nil
}

func (f *fakeRunRepo) Update(_ context.Context, r *run.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[r.ID] = r
	return nil
}

func (f *fakeRunRepo) GetByID(_ context.Context, id common.ID) (*run.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	return r, nil
}

func (f *fakeRunRepo) List(_ context.Context, _ common.Pagination) ([]*run.Run, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*run.Run, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRunRepo) ListByDomain(_ context.Context, domain string, _ common.Pagination) ([]*run.Run, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*run.Run
	for _, r := range f.runs {
		if r.TargetDomain == domain {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func newTestRouter(t *testing.T, h *RunsHandler) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.POST("/api/v1/runs", h.Create)
	r.GET("/api/v1/runs", h.List)
	r.GET("/api/v1/runs/:id", h.Get)
	return r
}

func newRunsHandler(t *testing.T, req *fakeRequester, disp *fakeDispatcher, repo *fakeRunRepo) *RunsHandler {
	t.Helper()
	cfg := RunsHandlerConfig{
		Requester:          req,
		Runs:               repo,
		DefaultTarget:      "pawsome.com",
		DefaultCompetitors: []string{"chewy.com", "petco.com"},
		Logger:             logging.NewNop(),
	}
	if disp != nil {
		cfg.Dispatcher = disp
	}
	h, err := NewRunsHandler(cfg)
	require.NoError(t, err)
	return h
}

func TestRunsHandler_CreateUsesDefaults(t *testing.T) {
	req := &fakeRequester{}
	disp := &fakeDispatcher{}
	router := newTestRouter(t, newRunsHandler(t, req, disp, newFakeRunRepo()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "pawsome.com", req.lastTarget)
	assert.Equal(t, []string{"chewy.com", "petco.com"}, req.lastCompetitors)
	require.Len(t, disp.dispatched, 1)
	assert.Contains(t, w.Body.String(), `"status":"queued"`)
}

func TestRunsHandler_CreateWithBodyOverrides(t *testing.T) {
	req := &fakeRequester{}
	router := newTestRouter(t, newRunsHandler(t, req, nil, newFakeRunRepo()))

	body := strings.NewReader(`{"target_domain":"other.com","competitors":["rival.com"]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/runs", body)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "other.com", req.lastTarget)
	assert.Equal(t, []string{"rival.com"}, req.lastCompetitors)
}

func TestRunsHandler_CreateDispatchFailure(t *testing.T) {
	req := &fakeRequester{}
	disp := &fakeDispatcher{err: errors.New(errors.ErrCodeMessageQueueError, "broker down")}
	router := newTestRouter(t, newRunsHandler(t, req, disp, newFakeRunRepo()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeMessageQueueError.String())
}

func TestRunsHandler_CreateInvalidBody(t *testing.T) {
	router := newTestRouter(t, newRunsHandler(t, &fakeRequester{}, nil, newFakeRunRepo()))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(`{not json`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRunsHandler_CreateRequestError(t *testing.T) {
	req := &fakeRequester{err: errors.New(errors.ErrCodeInvalidRunConfig, "run requires a target domain")}
	router := newTestRouter(t, newRunsHandler(t, req, nil, newFakeRunRepo()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeInvalidRunConfig.String())
}

func TestRunsHandler_Get(t *testing.T) {
	repo := newFakeRunRepo()
	r, err := run.New("pawsome.com", []string{"chewy.com"}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), r))

	router := newTestRouter(t, newRunsHandler(t, &fakeRequester{}, nil, repo))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+r.ID.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), r.ID.String())
}

func TestRunsHandler_GetInvalidID(t *testing.T) {
	router := newTestRouter(t, newRunsHandler(t, &fakeRequester{}, nil, newFakeRunRepo()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/not-a-uuid", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRunsHandler_GetNotFound(t *testing.T) {
	router := newTestRouter(t, newRunsHandler(t, &fakeRequester{}, nil, newFakeRunRepo()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+common.NewID().String(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), errors.ErrCodeRunNotFound.String())
}

func TestRunsHandler_ListWithDomainFilter(t *testing.T) {
	repo := newFakeRunRepo()
	now := time.Now().UTC()
	mine, err := run.New("pawsome.com", []string{"chewy.com"}, now)
	require.NoError(t, err)
	other, err := run.New("other.com", []string{"rival.com"}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), mine))
	require.NoError(t, repo.Create(context.Background(), other))

	router := newTestRouter(t, newRunsHandler(t, &fakeRequester{}, nil, repo))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs?domain=pawsome.com", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), mine.ID.String())
	assert.NotContains(t, w.Body.String(), other.ID.String())
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestRunsHandler_ListBadPagination(t *testing.T) {
	router := newTestRouter(t, newRunsHandler(t, &fakeRequester{}, nil, newFakeRunRepo()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs?page=zero", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestNewRunsHandler_Validation(t *testing.T) {
	_, err := NewRunsHandler(RunsHandlerConfig{Runs: newFakeRunRepo(), Logger: logging.NewNop()})
	assert.Error(t, err)

	_, err = NewRunsHandler(RunsHandlerConfig{Requester: &fakeRequester{}, Logger: logging.NewNop()})
	assert.Error(t, err)

	_, err = NewRunsHandler(RunsHandlerConfig{Requester: &fakeRequester{}, Runs: newFakeRunRepo()})
	assert.Error(t, err)
}
