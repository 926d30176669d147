package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/jobq/internal/config"
	"github.com/rzbill/jobq/internal/runtime"
)

func newTestServer(t *testing.T, cfg cfgpkg.Config) (*httptest.Server, *runtime.Runtime) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	ts := httptest.NewServer(New(rt).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = rt.Close()
	})
	return ts, rt
}

func doReq(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestQueueUpsertCreateThenUpdate(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())

	resp := doReq(t, http.MethodPut, ts.URL+"/queue/emails", []byte(`{"timeout":"5m"}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/queue/emails" {
		t.Fatalf("location = %q", loc)
	}

	resp = doReq(t, http.MethodPut, ts.URL+"/queue/emails", []byte(`{"timeout":"10m"}`))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	if reason := resp.Header.Get("X-Status-Reason"); reason != "Queue setting updated" {
		t.Fatalf("reason = %q", reason)
	}

	resp = doReq(t, http.MethodGet, ts.URL+"/queue/emails/settings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settings status = %d", resp.StatusCode)
	}
	var settings struct {
		Timeout string `json:"timeout"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings.Timeout != "10m" {
		t.Fatalf("timeout = %q after update", settings.Timeout)
	}
}

func TestQueueUpsertBadSettings(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())
	resp := doReq(t, http.MethodPut, ts.URL+"/queue/bad", []byte(`{"timeout":"whenever"}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp = doReq(t, http.MethodGet, ts.URL+"/queue/bad/settings", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("rejected settings must not create the queue; status = %d", resp.StatusCode)
	}
}

func TestQueueDelete(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())
	doReq(t, http.MethodPut, ts.URL+"/queue/gone", []byte(`{}`))

	resp := doReq(t, http.MethodDelete, ts.URL+"/queue/gone", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if reason := resp.Header.Get("X-Status-Reason"); reason != "Queue deleted" {
		t.Fatalf("reason = %q", reason)
	}

	resp = doReq(t, http.MethodDelete, ts.URL+"/queue/gone", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d", resp.StatusCode)
	}
	if reason := resp.Header.Get("X-Status-Reason"); reason != "Queue not found" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestQueueList(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())

	resp := doReq(t, http.MethodGet, ts.URL+"/queue", nil)
	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("fresh broker should list no queues: %v", names)
	}

	doReq(t, http.MethodPut, ts.URL+"/queue/b", []byte(`{}`))
	doReq(t, http.MethodPut, ts.URL+"/queue/a", []byte(`{}`))
	resp = doReq(t, http.MethodGet, ts.URL+"/queue", nil)
	names = nil
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}
}

func TestJobLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())
	doReq(t, http.MethodPut, ts.URL+"/queue/work", []byte(`{}`))

	resp := doReq(t, http.MethodPost, ts.URL+"/queue/work/job", []byte(`{"input":{"n":1}}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create job status = %d", resp.StatusCode)
	}
	var id uint64
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	if loc := resp.Header.Get("Location"); loc != fmt.Sprintf("/job/%d", id) {
		t.Fatalf("location = %q", loc)
	}

	resp = doReq(t, http.MethodGet, ts.URL+"/queue/work/size", nil)
	var size int
	_ = json.NewDecoder(resp.Body).Decode(&size)
	if size != 1 {
		t.Fatalf("size = %d", size)
	}

	resp = doReq(t, http.MethodGet, fmt.Sprintf("%s/queue/work/job/%d", ts.URL, id), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetch status = %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, ts.URL+"/queue/work/job", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next status = %d", resp.StatusCode)
	}
	var job struct {
		ID    uint64          `json:"id"`
		Queue string          `json:"queue"`
		Input json.RawMessage `json:"input"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.ID != id || job.Queue != "work" {
		t.Fatalf("job = %+v", job)
	}

	resp = doReq(t, http.MethodGet, ts.URL+"/queue/work/job", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("empty next status = %d", resp.StatusCode)
	}
}

func TestCreateJobMissingQueue(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())
	resp := doReq(t, http.MethodPost, ts.URL+"/queue/ghost/job", []byte(`{"input":1}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateJobInvalidBody(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())
	doReq(t, http.MethodPut, ts.URL+"/queue/work", []byte(`{}`))
	resp := doReq(t, http.MethodPost, ts.URL+"/queue/work/job", []byte(`{not json`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReattemptEndpoint(t *testing.T) {
	ts, rt := newTestServer(t, cfgpkg.Default())

	// Stage against a queue that does not exist yet; the commit fails and the
	// staged record stays behind.
	resp := doReq(t, http.MethodPost, ts.URL+"/queue/later/job", []byte(`{"input":{"n":1}}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	records, err := rt.Staging().Scan()
	if err != nil || len(records) != 1 {
		t.Fatalf("scan = %v, %v", records, err)
	}

	doReq(t, http.MethodPut, ts.URL+"/queue/later", []byte(`{}`))
	url := fmt.Sprintf("%s/queue/later/job/%d/reattempt", ts.URL, records[0].StagingID)
	resp = doReq(t, http.MethodPost, url, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("reattempt status = %d", resp.StatusCode)
	}
	var id uint64
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		t.Fatalf("decode id: %v", err)
	}

	resp = doReq(t, http.MethodGet, fmt.Sprintf("%s/queue/later/job/%d", ts.URL, id), nil)
	var job struct {
		Input map[string]any `json:"input"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if _, ok := job.Input["attempted_on"]; !ok {
		t.Fatalf("reattempted object input should carry attempted_on: %v", job.Input)
	}
}

func TestReattemptMissingRecord(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())
	resp := doReq(t, http.MethodPost, ts.URL+"/queue/x/job/123456/reattempt", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestNextJobEmptyHonorsDelay(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Server.NextJobDelay = cfgpkg.Duration(60 * time.Millisecond)
	ts, _ := newTestServer(t, cfg)
	doReq(t, http.MethodPut, ts.URL+"/queue/idle", []byte(`{}`))

	start := time.Now()
	resp := doReq(t, http.MethodGet, ts.URL+"/queue/idle/job", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatalf("empty next should be held for the configured delay")
	}
}

func TestHealthAndInfo(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())

	resp := doReq(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	doReq(t, http.MethodPut, ts.URL+"/queue/one", []byte(`{}`))
	resp = doReq(t, http.MethodGet, ts.URL+"/info", nil)
	var info struct {
		Name   string `json:"name"`
		Queues int    `json:"queues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Name != "jobq" || info.Queues != 1 {
		t.Fatalf("info = %+v", info)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts, _ := newTestServer(t, cfgpkg.Default())
	resp := doReq(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("responses should carry a request id")
	}
}
