package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binzume/bvhkit/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	data, err := os.ReadFile("../testdata/chain.bvh")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "chain.bvh"), data, 0644); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "broken.bvh"), []byte("HIERARCHY\nROOT A\n{\n"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(NewMotionStore(dir, 1), log, config.Default())
}

func do(t *testing.T, s *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), "GET", "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Error(rec.Code, rec.Body.String())
	}
}

func TestListAndGetMotion(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "GET", "/api/motions", nil)
	var list struct {
		Motions []string `json:"motions"`
	}
	decode(t, rec, &list)
	if strings.Join(list.Motions, ",") != "broken,chain" {
		t.Error("motions", list.Motions)
	}

	rec = do(t, s, "GET", "/api/motions/chain", nil)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code, rec.Body.String())
	}
	var sum motionSummary
	decode(t, rec, &sum)
	if sum.Frames != 3 || sum.Channels != 15 || len(sum.Joints) != 4 {
		t.Error("summary", sum)
	}
	if sum.Joints[1].Parent != "Hips" || sum.Joints[2].EndSite == nil {
		t.Error("joints", sum.Joints)
	}
}

func TestMotionErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		path string
		code int
	}{
		{"/api/motions/missing", http.StatusNotFound},
		{"/api/motions/broken", http.StatusUnprocessableEntity},
		{"/api/motions/chain/frames/3", http.StatusNotFound},
		{"/api/motions/chain/frames/-1", http.StatusNotFound},
		{"/api/motions/chain/frames/x", http.StatusBadRequest},
		{"/api/motions/chain/plot", http.StatusBadRequest},
		{"/api/motions/chain/plot?joint=Tail", http.StatusNotFound},
		{"/api/motions/chain/plot?joint=Hips&channels=Wrotation", http.StatusBadRequest},
		{"/api/motions/chain/frames/0/preview?format=gif", http.StatusBadRequest},
		{"/api/motions/chain/csv?kind=xml", http.StatusBadRequest},
		{"/files/missing", http.StatusNotFound},
		{"/files/notes", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := do(t, s, "GET", tt.path, nil)
		if rec.Code != tt.code {
			t.Errorf("%s: got %d, want %d (%s)", tt.path, rec.Code, tt.code, rec.Body.String())
		}
	}
}

func TestGetFrame(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "GET", "/api/motions/chain/frames/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code, rec.Body.String())
	}
	var fr frameResponse
	decode(t, rec, &fr)
	spine := fr.Joints["Spine"]
	if fr.Frame != 2 || spine[0] < -8.000001 || spine[0] > -7.999999 {
		t.Error("frame 2", fr.Frame, spine)
	}
	if len(fr.Bones) != 5 {
		t.Error("bones", len(fr.Bones))
	}

	rec = do(t, s, "GET", "/api/motions/chain/frames/5?loop=1", nil)
	decode(t, rec, &fr)
	if rec.Code != http.StatusOK || fr.Frame != 2 {
		t.Error("loop", rec.Code, fr.Frame)
	}
}

func TestParse(t *testing.T) {
	s := newTestServer(t)
	data, _ := os.ReadFile("../testdata/chain.bvh")

	rec := do(t, s, "POST", "/api/parse?name=uploaded", bytes.NewReader(data))
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code, rec.Body.String())
	}
	rec = do(t, s, "GET", "/api/motions/uploaded/frames/0", nil)
	if rec.Code != http.StatusOK {
		t.Error("stored motion", rec.Code)
	}

	rec = do(t, s, "POST", "/api/parse", strings.NewReader("HIERARCHY\nROOT A\n{\n\tOFFSET 0 0 0\n\tCHANNELS 3 Xposition\n}\n"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatal(rec.Code, rec.Body.String())
	}
	var perr struct {
		Error string `json:"error"`
		Line  int    `json:"line"`
	}
	decode(t, rec, &perr)
	if !strings.Contains(perr.Error, "malformed CHANNELS line") || perr.Line != 5 {
		t.Error("parse error body", perr)
	}

	rec = do(t, s, "POST", "/api/parse?name=a/b", bytes.NewReader(data))
	if rec.Code != http.StatusBadRequest {
		t.Error("bad name", rec.Code)
	}
}

func TestParseRejectsNonFinite(t *testing.T) {
	s := newTestServer(t)
	src := "HIERARCHY\nROOT A\n{\n\tOFFSET 0 0 0\n\tCHANNELS 3 Xposition Yposition Zposition\n}\nMOTION\nFrames: 1\nFrame Time: 0.1\nnan 0 0\n"

	rec := do(t, s, "POST", "/api/parse?name=bad", strings.NewReader(src))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatal(rec.Code, rec.Body.String())
	}
	rec = do(t, s, "GET", "/api/motions/bad/frames/0", nil)
	if rec.Code != http.StatusNotFound {
		t.Error("rejected motion was stored", rec.Code)
	}
}

func TestWriteJSONEncodeError(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/motions", nil)
	rec := httptest.NewRecorder()
	s.writeJSON(rec, req, map[string]float64{"x": math.NaN()})
	if rec.Code != http.StatusInternalServerError {
		t.Fatal(rec.Code, rec.Body.String())
	}
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	if body.Error == "" {
		t.Error("empty error body")
	}
}

func TestBinaryEndpoints(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		path   string
		ctype  string
		prefix string
	}{
		{"/api/motions/chain/frames/1/preview", "image/png", "\x89PNG"},
		{"/api/motions/chain/frames/1/preview?format=webp&yaw=90", "image/webp", "RIFF"},
		{"/api/motions/chain/plot?joint=Hips&channels=Xposition,Zrotation", "image/png", "\x89PNG"},
		{"/api/motions/chain/gltf", "model/gltf-binary", "glTF"},
		{"/api/motions/chain/csv", "text/csv", "time,Hips.x"},
		{"/api/motions/chain/csv?kind=hierarchy", "text/csv", "joint,parent"},
		{"/files/chain", "text/plain; charset=utf-8", "HIERARCHY"},
	}
	for _, tt := range tests {
		rec := do(t, s, "GET", tt.path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d (%s)", tt.path, rec.Code, rec.Body.String())
			continue
		}
		if ct := rec.Header().Get("Content-Type"); ct != tt.ctype {
			t.Errorf("%s: content type %q", tt.path, ct)
		}
		if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
			t.Errorf("%s: unexpected body prefix %q", tt.path, rec.Body.String()[:min(16, rec.Body.Len())])
		}
	}
}
