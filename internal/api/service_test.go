package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seantiz/dguard/internal/service"
)

func getService(t *testing.T, method, url string) serviceResponse {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s %s status = %d, want 200", method, url, resp.StatusCode)
	}

	var body serviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestServiceLifecycle(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	if got := getService(t, http.MethodGet, ts.URL+"/v1/service"); !got.Running {
		t.Error("running = false, want true initially")
	}

	stopped := getService(t, http.MethodPost, ts.URL+"/v1/service/stop")
	if stopped.Running || stopped.Message != service.StoppedMessage {
		t.Errorf("stop response = %+v", stopped)
	}
	if got := getService(t, http.MethodGet, ts.URL+"/v1/service"); got.Running {
		t.Error("running = true after stop")
	}

	started := getService(t, http.MethodPost, ts.URL+"/v1/service/start")
	if !started.Running || started.Message != service.StartedMessage {
		t.Errorf("start response = %+v", started)
	}
	if got := getService(t, http.MethodGet, ts.URL+"/v1/service"); !got.Running {
		t.Error("running = false after start")
	}
}
