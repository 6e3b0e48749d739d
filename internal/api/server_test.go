package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"banktycoon/internal/config"
	"banktycoon/internal/game"
	"banktycoon/internal/runner"
	"banktycoon/internal/store"
)

type fakeClock struct {
	status runner.Status
}

func (c *fakeClock) Status() runner.Status   { return c.status }
func (c *fakeClock) SetSpeed(s runner.Speed) { c.status.Speed = s }
func (c *fakeClock) Pause()                  { c.status.AutoAdvance = false }
func (c *fakeClock) Resume()                 { c.status.AutoAdvance = true }
func (c *fakeClock) Toggle() bool {
	c.status.AutoAdvance = !c.status.AutoAdvance
	return c.status.AutoAdvance
}

func newTestServer(t *testing.T, token string) (*httptest.Server, *fakeClock) {
	t.Helper()
	svc := game.NewService(game.Options{
		Store: store.NewMemory(),
		Rand:  rand.New(rand.NewSource(7)),
	})
	clock := &fakeClock{status: runner.Status{Speed: runner.SpeedNormal, AutoAdvance: true, Every: 10 * time.Second}}
	srv := New(config.APIConfig{APIToken: token}, nil, svc, Options{Clock: clock})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, clock
}

func call(t *testing.T, ts *httptest.Server, method, path, body string, headers ...string) (int, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func TestHealthzAndAuth(t *testing.T) {
	ts, _ := newTestServer(t, "s3cret")
	if code, _ := call(t, ts, "GET", "/healthz", ""); code != http.StatusOK {
		t.Fatalf("healthz=%d", code)
	}
	if code, _ := call(t, ts, "GET", "/v1/state", ""); code != http.StatusUnauthorized {
		t.Fatalf("missing token=%d", code)
	}
	if code, _ := call(t, ts, "GET", "/v1/state", "", "Authorization", "Bearer nope"); code != http.StatusUnauthorized {
		t.Fatalf("wrong token=%d", code)
	}
	if code, _ := call(t, ts, "GET", "/v1/state", "", "Authorization", "Bearer s3cret"); code != http.StatusOK {
		t.Fatalf("good token=%d", code)
	}
}

func TestInvestAndErrorMapping(t *testing.T) {
	ts, _ := newTestServer(t, "")

	code, body := call(t, ts, "POST", "/v1/investments", `{"bucket":"bonds","amount":100}`, "Idempotency-Key", "inv-1")
	if code != http.StatusOK {
		t.Fatalf("invest=%d %s", code, body)
	}
	var st game.BankState
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Investments.Bonds != 100 || st.Cash != 900 {
		t.Fatalf("bonds=%v cash=%v", st.Investments.Bonds, st.Cash)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		hdr    []string
		want   int
	}{
		{name: "replayed key", method: "POST", path: "/v1/investments", body: `{"bucket":"bonds","amount":100}`, hdr: []string{"Idempotency-Key", "inv-1"}, want: http.StatusConflict},
		{name: "too poor", method: "POST", path: "/v1/investments", body: `{"bucket":"stocks","amount":99999}`, want: http.StatusBadRequest},
		{name: "unknown bucket", method: "POST", path: "/v1/investments", body: `{"bucket":"gold","amount":1}`, want: http.StatusBadRequest},
		{name: "unknown field", method: "POST", path: "/v1/investments", body: `{"bucket":"bonds","amount":1,"x":1}`, want: http.StatusBadRequest},
		{name: "unknown role", method: "POST", path: "/v1/staff/janitors/hire", want: http.StatusBadRequest},
		{name: "fire nobody", method: "POST", path: "/v1/staff/guards/fire", want: http.StatusConflict},
		{name: "missing request", method: "POST", path: "/v1/customers/nope/approve", want: http.StatusNotFound},
		{name: "missing loan", method: "POST", path: "/v1/loans/nope/deny", want: http.StatusNotFound},
		{name: "no event", method: "POST", path: "/v1/event/resolve", body: `{"choice":0}`, want: http.StatusNotFound},
		{name: "locked tech", method: "POST", path: "/v1/tech/profit/blockchain/research", want: http.StatusConflict},
		{name: "unknown tech", method: "POST", path: "/v1/tech/magic/wand/research", want: http.StatusNotFound},
		{name: "bad rate", method: "POST", path: "/v1/rates", body: `{"deposit":0.5,"loan":0.06}`, want: http.StatusBadRequest},
		{name: "no save yet", method: "GET", path: "/v1/export", want: http.StatusNotFound},
		{name: "zero days", method: "POST", path: "/v1/clock/advance", body: `{"days":0}`, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		if code, body := call(t, ts, tc.method, tc.path, tc.body, tc.hdr...); code != tc.want {
			t.Fatalf("%s: status=%d want %d (%s)", tc.name, code, tc.want, body)
		}
	}
}

func TestHireUntilCapacity(t *testing.T) {
	ts, _ := newTestServer(t, "")
	for i := 0; i < 2; i++ {
		if code, body := call(t, ts, "POST", "/v1/staff/tellers/hire", ""); code != http.StatusOK {
			t.Fatalf("hire %d=%d %s", i, code, body)
		}
	}
	if code, _ := call(t, ts, "POST", "/v1/staff/tellers/hire", ""); code != http.StatusConflict {
		t.Fatalf("third teller at level 1 should be refused, got %d", code)
	}
}

func TestSaveExportImport(t *testing.T) {
	ts, _ := newTestServer(t, "")
	call(t, ts, "POST", "/v1/investments", `{"bucket":"stocks","amount":250}`)
	if code, body := call(t, ts, "POST", "/v1/save", ""); code != http.StatusOK {
		t.Fatalf("save=%d %s", code, body)
	}
	code, export := call(t, ts, "GET", "/v1/export", "")
	if code != http.StatusOK {
		t.Fatalf("export=%d", code)
	}

	if code, _ := call(t, ts, "POST", "/v1/new-game", ""); code != http.StatusOK {
		t.Fatalf("new game=%d", code)
	}
	if code, _ := call(t, ts, "POST", "/v1/load", ""); code != http.StatusNotFound {
		t.Fatalf("load after new game=%d", code)
	}
	code, body := call(t, ts, "POST", "/v1/import", string(export))
	if code != http.StatusOK {
		t.Fatalf("import=%d %s", code, body)
	}
	var st game.BankState
	_ = json.Unmarshal(body, &st)
	if st.Investments.Stocks != 250 {
		t.Fatalf("imported stocks=%v", st.Investments.Stocks)
	}
	if code, _ := call(t, ts, "POST", "/v1/import", `{"snapshot":{"version":"2.0"},"checksum":"bad"}`); code != http.StatusBadRequest {
		t.Fatalf("tampered import=%d", code)
	}
}

func TestClockEndpoints(t *testing.T) {
	ts, clock := newTestServer(t, "")
	if code, _ := call(t, ts, "POST", "/v1/clock/toggle", ""); code != http.StatusOK || clock.status.AutoAdvance {
		t.Fatalf("toggle did not pause: %d %+v", code, clock.status)
	}
	if code, _ := call(t, ts, "POST", "/v1/clock/speed", `{"speed":"fast"}`); code != http.StatusOK || clock.status.Speed != runner.SpeedFast {
		t.Fatalf("speed=%d %+v", code, clock.status)
	}
	if code, _ := call(t, ts, "POST", "/v1/clock/speed", `{"speed":"plaid"}`); code != http.StatusBadRequest {
		t.Fatalf("bad speed=%d", code)
	}

	code, body := call(t, ts, "POST", "/v1/clock/advance", `{"days":30}`)
	if code != http.StatusOK {
		t.Fatalf("advance=%d %s", code, body)
	}
	var rep game.TickReport
	_ = json.Unmarshal(body, &rep)
	if rep.Tick != 30 || !rep.MonthRolled {
		t.Fatalf("report=%+v", rep)
	}
}

func TestObjectivesHideSecrets(t *testing.T) {
	ts, _ := newTestServer(t, "")
	code, body := call(t, ts, "GET", "/v1/objectives", "")
	if code != http.StatusOK {
		t.Fatalf("objectives=%d", code)
	}
	var out struct {
		Objectives []objectiveView `json:"objectives"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Objectives) == 0 {
		t.Fatalf("no objectives")
	}
	for _, o := range out.Objectives {
		if o.Hidden || o.Progress < 0 || o.Progress > 1 {
			t.Fatalf("objective=%+v", o)
		}
	}
}
