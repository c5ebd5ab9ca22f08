package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/hwsnap/internal/config"
	"github.com/Dicklesworthstone/hwsnap/internal/model"
	"github.com/Dicklesworthstone/hwsnap/internal/monitor"
	"github.com/Dicklesworthstone/hwsnap/internal/source/sourcetest"
)

func newTestServer(t *testing.T) (*httptest.Server, *monitor.Monitor, *sourcetest.Source) {
	t.Helper()
	src := sourcetest.New(
		sourcetest.NewDevice("Test CPU", model.CategoryCPU).Set(
			sourcetest.Sensor{Label: "CPU Total", Kind: model.KindLoad, Value: 33},
		),
		sourcetest.NewDevice("eth0", model.CategoryNetwork).Set(
			sourcetest.Sensor{Label: "Download Speed", Kind: model.KindThroughput, Value: 512},
		),
	)
	m := monitor.New(src, config.Default(), zap.NewNop(), monitor.Options{})
	ts := httptest.NewServer(New(m, zap.NewNop()).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = m.Close()
	})
	return ts, m, src
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(body)
}

func TestPollThenSnapshot(t *testing.T) {
	ts, _, src := newTestServer(t)

	res, err := http.Post(ts.URL+"/poll", "", nil)
	if err != nil {
		t.Fatalf("POST /poll: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("poll status = %d", res.StatusCode)
	}
	if src.Refreshes() != 2 {
		t.Fatalf("refreshes = %d", src.Refreshes())
	}

	code, body := get(t, ts.URL+"/snapshot/cpu")
	if code != http.StatusOK {
		t.Fatalf("cpu status = %d: %s", code, body)
	}
	var cpu map[string]any
	if err := json.Unmarshal([]byte(body), &cpu); err != nil {
		t.Fatalf("cpu body: %v", err)
	}
	if cpu["CPUUsage"] != float64(33) {
		t.Fatalf("cpu = %v", cpu)
	}

	_, body = get(t, ts.URL+"/snapshot/network")
	if !strings.Contains(body, `"downloadSpeed": 512`) {
		t.Fatalf("network = %s", body)
	}
	_, body = get(t, ts.URL+"/snapshot/all")
	if !strings.Contains(body, `"Network": {`) {
		t.Fatalf("all = %s", body)
	}
}

func TestUnknownCategory(t *testing.T) {
	ts, _, _ := newTestServer(t)
	if code, _ := get(t, ts.URL+"/snapshot/battery"); code != http.StatusNotFound {
		t.Fatalf("status = %d", code)
	}
}

func TestPollRequiresPost(t *testing.T) {
	ts, _, _ := newTestServer(t)
	if code, _ := get(t, ts.URL+"/poll"); code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", code)
	}
}

func TestPollFailure(t *testing.T) {
	ts, _, src := newTestServer(t)
	src.DevicesErr = errors.New("backend gone")

	res, err := http.Post(ts.URL+"/poll", "", nil)
	if err != nil {
		t.Fatalf("POST /poll: %v", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusInternalServerError || !strings.Contains(string(body), "backend gone") {
		t.Fatalf("status = %d body = %s", res.StatusCode, body)
	}
}

func TestClosedMonitor(t *testing.T) {
	ts, m, _ := newTestServer(t)
	_ = m.Close()
	if code, _ := get(t, ts.URL+"/snapshot/gpu"); code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", code)
	}
}

func TestStatusAndMetrics(t *testing.T) {
	ts, _, _ := newTestServer(t)

	code, body := get(t, ts.URL+"/status")
	if code != http.StatusOK || strings.TrimSpace(body) != `{"running":false}` {
		t.Fatalf("status = %d %s", code, body)
	}

	res, err := http.Post(ts.URL+"/poll", "", nil)
	if err != nil {
		t.Fatalf("POST /poll: %v", err)
	}
	res.Body.Close()

	_, body = get(t, ts.URL+"/metrics")
	if !strings.Contains(body, "hwsnap_polls_total 1") {
		t.Fatalf("metrics = %s", body)
	}
}
