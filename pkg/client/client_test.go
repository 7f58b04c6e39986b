package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatal("expected error for empty base URL")
	}
	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
	c, err := NewClient("https://api.example.com/")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.baseURL != "https://api.example.com" {
		t.Fatalf("trailing slash not trimmed: %q", c.baseURL)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"COMMON_001","message":"boom"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"run-1","status":"queued"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRetryWait(time.Millisecond, 5*time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	run, err := c.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != "queued" {
		t.Fatalf("status = %q, want queued", run.Status)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestClient_APIErrorDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"GAP_004","message":"run not found"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRetryMax(0))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.GetRun(context.Background(), "missing")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if !apiErr.IsNotFound() || apiErr.Code != "GAP_004" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClient_CreateRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/runs" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req CreateRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.TargetDomain != "pawsome.com" {
			t.Errorf("target = %q", req.TargetDomain)
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"r1","target_domain":"pawsome.com","status":"queued"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	run, err := c.CreateRun(context.Background(), CreateRunRequest{
		TargetDomain: "pawsome.com",
		Competitors:  []string{"chewy.com"},
	})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.ID != "r1" || run.Status != "queued" {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestClient_ListRunsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("domain") != "pawsome.com" || q.Get("page") != "2" || q.Get("page_size") != "5" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[],"total":0,"page":2,"page_size":5}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	list, err := c.ListRuns(context.Background(), ListRunsOptions{Domain: "pawsome.com", Page: 2, PageSize: 5})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if list.Page != 2 || list.PageSize != 5 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestClient_WaitForRun(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "running"
		if calls.Add(1) >= 3 {
			status = "completed"
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"r1","status":"` + status + `"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	run, err := c.WaitForRun(context.Background(), "r1", time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForRun: %v", err)
	}
	if run.Status != "completed" {
		t.Fatalf("status = %q, want completed", run.Status)
	}
}

func TestClient_GetReportLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/runs/r1/report" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"run_id":"r1","object_key":"reports/pawsome.com/r1.html","download_url":"https://minio.local/x?signed=1"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	link, err := c.GetReportLink(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetReportLink: %v", err)
	}
	if link.ObjectKey == "" || link.DownloadURL == "" {
		t.Fatalf("unexpected link: %+v", link)
	}
}
