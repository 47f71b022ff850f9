// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestPingAndInfo(t *testing.T) {
	r := NewRouter("v1.2.3", 3)

	w := do(r, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/api/v1/job") {
		t.Errorf("index=%d; want 200 with job form", w.Code)
	}

	w = do(r, http.MethodGet, "/api/v1/ping", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Errorf("ping=%d %q; want 200 pong", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/info", "")
	if w.Code != http.StatusOK {
		t.Fatalf("info code=%d; want 200", w.Code)
	}
	var info map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info["version"] != "v1.2.3" || info["maxThreads"] != float64(3) {
		t.Errorf("info=%v; want version v1.2.3 maxThreads 3", info)
	}
}

func TestJobRejected(t *testing.T) {
	r := NewRouter("test", 1)

	if w := do(r, http.MethodPost, "/api/v1/job", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("malformed job code=%d; want 400", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/job", `{"type":"seq","active":true,"steps":[]}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty job code=%d; want 400", w.Code)
	}

	job := `{"type":"seq","active":true,"steps":[{"type":"load","active":true,"fileName":"/etc/passwd"}]}`
	w := do(r, http.MethodPost, "/api/v1/job", job)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "outside current directory tree") {
		t.Errorf("absolute path job=%d %q; want streamed refusal", w.Code, w.Body.String())
	}
}

func TestJobConvertsAndCounts(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	r := NewRouter("test", 2)
	job := `{"type":"seq","active":true,"steps":[
		{"type":"synth","active":true,"size":120,"speckle":false},
		{"type":"toSlantRange","active":true},
		{"type":"save","active":true,"filePattern":"out%d.fits"}
	]}`
	w := do(r, http.MethodPost, "/api/v1/job", job)
	body := w.Body.String()
	if w.Code != http.StatusOK || !strings.HasSuffix(body, "Done.\n") {
		t.Fatalf("job=%d; log:\n%s", w.Code, body)
	}
	if st, err := os.Stat("out0.fits"); err != nil || st.Size() == 0 {
		t.Errorf("output missing: %v", err)
	}

	w = do(r, http.MethodGet, "/metrics", "")
	for _, want := range []string{`slantrange_conversions_total{result="ok"}`, `slantrange_http_requests_total{code="200",method="POST",path="/api/v1/job"}`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("metrics lack %s", want)
		}
	}
}

func TestMakeSandboxNoop(t *testing.T) {
	var sb strings.Builder
	if err := MakeSandbox("", -1, &sb); err != nil || sb.Len() != 0 {
		t.Errorf("MakeSandbox noop=%v %q; want nil and no output", err, sb.String())
	}
}
