package minio

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

type fakeObjectAPI struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: make(map[string][]byte)}
}

func (f *fakeObjectAPI) BucketExists(context.Context, string) (bool, error) { return true, nil }

func (f *fakeObjectAPI) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	return nil
}

func (f *fakeObjectAPI) PutObject(_ context.Context, _, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[key] = data
	return minio.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, _, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (f *fakeObjectAPI) StatObject(_ context.Context, _, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if _, ok := f.objects[key]; !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return minio.ObjectInfo{Key: key}, nil
}

func (f *fakeObjectAPI) RemoveObject(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectAPI) PresignedGetObject(_ context.Context, bucket, key string, _ time.Duration, _ url.Values) (*url.URL, error) {
	return url.Parse("https://storage.local/" + bucket + "/" + key + "?signed=1")
}

func newTestStore(t *testing.T, api ObjectAPI) ReportStore {
	t.Helper()
	client := &Client{
		api:    api,
		cfg:    config.MinIOConfig{Bucket: "rankscope-reports", PresignExpiry: time.Hour},
		logger: logging.NewNop(),
	}
	store, err := NewReportStore(client, logging.NewNop())
	require.NoError(t, err)
	return store
}

func TestReportStore_SaveAndGet(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestStore(t, api)

	html := []byte("<html><body>report</body></html>")
	key, err := store.Save(context.Background(), "Example.COM", "run-1", html)
	require.NoError(t, err)
	assert.Equal(t, "reports/example.com/run-1.html", key)

	got, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, html, got)
}

func TestReportStore_GetMissing(t *testing.T) {
	store := newTestStore(t, newFakeObjectAPI())

	_, err := store.Get(context.Background(), "reports/example.com/nope.html")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeReportNotFound, errors.GetCode(err))
}

func TestReportStore_SaveValidation(t *testing.T) {
	store := newTestStore(t, newFakeObjectAPI())

	_, err := store.Save(context.Background(), "example.com", "", []byte("x"))
	assert.Error(t, err)

	_, err = store.Save(context.Background(), "example.com", "run-1", nil)
	assert.Error(t, err)
}

func TestReportStore_SaveUploadFailure(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErr = assert.AnError
	store := newTestStore(t, api)

	_, err := store.Save(context.Background(), "example.com", "run-1", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeArtifactUpload, errors.GetCode(err))
}

func TestReportStore_PresignDownload(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestStore(t, api)

	key, err := store.Save(context.Background(), "example.com", "run-1", []byte("x"))
	require.NoError(t, err)

	link, err := store.PresignDownload(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, link, key)
	assert.Contains(t, link, "signed=1")
}

func TestReportStore_Delete(t *testing.T) {
	api := newFakeObjectAPI()
	store := newTestStore(t, api)

	key, err := store.Save(context.Background(), "example.com", "run-1", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), key))

	_, err = store.Get(context.Background(), key)
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "reports/example.com/abc.html", ObjectKey(" Example.com ", "abc"))
}

func TestNewReportStore_Validation(t *testing.T) {
	_, err := NewReportStore(nil, logging.NewNop())
	assert.Error(t, err)

	client := &Client{api: newFakeObjectAPI(), logger: logging.NewNop()}
	_, err = NewReportStore(client, nil)
	assert.Error(t, err)
}
