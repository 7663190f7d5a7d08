package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/james-see/dx7syx/pkg/converter"
	"github.com/james-see/dx7syx/pkg/converter/devices"
	"github.com/james-see/dx7syx/pkg/transform"
	"github.com/james-see/dx7syx/pkg/voice"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter() *gin.Engine {
	return NewRouter(Options{
		Staccato: transform.StaccatoParameters{Affect: transform.AffectCarriers, ModifyAttack: true, ModifyRelease: true},
	})
}

func testBank(t *testing.T) []byte {
	t.Helper()
	v := voice.DefaultVoice()
	v.Algorithm = 5
	op := v.Operator(1)
	op.Envelope[0].Rate = 20
	op.Envelope[3].Rate = 30
	v = v.WithOperator(op)
	nv, err := voice.NewNamedVoice("TEST VOICE", v)
	if err != nil {
		t.Fatal(err)
	}
	data, err := devices.NewDX7().GenerateSyx([]voice.NamedVoice{nv})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func postUpload(t *testing.T, r http.Handler, target, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestInfoEndpoints(t *testing.T) {
	r := testRouter()
	tests := []struct {
		target string
		status int
	}{
		{"/health", http.StatusOK},
		{"/api/v1/health", http.StatusOK},
		{"/api/v1/formats", http.StatusOK},
		{"/api/v1/devices", http.StatusOK},
		{"/api/v1/algorithms", http.StatusOK},
		{"/api/v1/algorithms/32", http.StatusOK},
		{"/api/v1/algorithms/33", http.StatusBadRequest},
		{"/api/v1/algorithms/x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if w := get(r, tt.target); w.Code != tt.status {
				t.Errorf("GET %s = %d, want %d", tt.target, w.Code, tt.status)
			}
		})
	}
}

func TestGetAlgorithm(t *testing.T) {
	w := get(testRouter(), "/api/v1/algorithms/5")
	var info voice.AlgorithmInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Algorithm != 5 || len(info.Carriers) != 3 {
		t.Errorf("algorithm 5 = %+v, want carriers 1, 3, 5", info)
	}
}

func TestCORSPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/parse", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestParse(t *testing.T) {
	w := postUpload(t, testRouter(), "/api/v1/parse", "bank.syx", testBank(t))
	if w.Code != http.StatusOK {
		t.Fatalf("POST /parse = %d: %s", w.Code, w.Body.String())
	}
	var resp ParseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Format != converter.FormatSysex32 || len(resp.Voices) != 1 || resp.Errors != 0 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Voices[0].Name != "TEST VOICE" {
		t.Errorf("voice name = %q", resp.Voices[0].Name)
	}
}

func TestParseReportsDiagnostics(t *testing.T) {
	data := testBank(t)
	data[len(data)-2] ^= 0x01

	w := postUpload(t, testRouter(), "/api/v1/parse", "bank.syx", data)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /parse = %d", w.Code)
	}
	var resp ParseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Errors != 1 || len(resp.Diagnostics) != 1 {
		t.Errorf("errors = %d, diagnostics = %d", resp.Errors, len(resp.Diagnostics))
	}
}

func TestParseRejectsBadRequests(t *testing.T) {
	r := testRouter()
	if w := postUpload(t, r, "/api/v1/parse", "notes.txt", []byte("hello")); w.Code != http.StatusBadRequest {
		t.Errorf("unknown format = %d, want 400", w.Code)
	}
	if w := postUpload(t, r, "/api/v1/parse?from=bogus", "bank.syx", testBank(t)); w.Code != http.StatusBadRequest {
		t.Errorf("bad from = %d, want 400", w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/parse", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("no file = %d, want 400", w.Code)
	}
}

func TestConvert(t *testing.T) {
	r := testRouter()
	w := postUpload(t, r, "/api/v1/convert?to=xml", "bank.syx", testBank(t))
	if w.Code != http.StatusOK {
		t.Fatalf("POST /convert = %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename=bank.xml" {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Header().Get("X-Voice-Count") != "1" {
		t.Errorf("X-Voice-Count = %q", w.Header().Get("X-Voice-Count"))
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("TEST VOICE")) {
		t.Error("converted XML is missing the voice")
	}

	if w := postUpload(t, r, "/api/v1/convert", "bank.syx", testBank(t)); w.Code != http.StatusBadRequest {
		t.Errorf("missing to = %d, want 400", w.Code)
	}
}

func TestStaccato(t *testing.T) {
	w := postUpload(t, testRouter(), "/api/v1/transform/staccato?release=false", "bank.syx", testBank(t))
	if w.Code != http.StatusOK {
		t.Fatalf("POST /transform/staccato = %d: %s", w.Code, w.Body.String())
	}
	voices, err := converter.New(devices.NewDX7()).Read(w.Body.Bytes(), converter.FormatSysex32, "out")
	if err != nil || len(voices) != 1 {
		t.Fatalf("Read() = %d voices, %v", len(voices), err)
	}
	op := voices[0].Voice.Operator(1)
	if op.Envelope[0].Rate != 99 {
		t.Errorf("attack rate = %d, want 99", op.Envelope[0].Rate)
	}
	if op.Envelope[3].Rate != 30 {
		t.Errorf("release rate = %d, want unchanged 30", op.Envelope[3].Rate)
	}

	if w := postUpload(t, testRouter(), "/api/v1/transform/staccato?affect=some", "bank.syx", testBank(t)); w.Code != http.StatusBadRequest {
		t.Errorf("bad affect = %d, want 400", w.Code)
	}
}

func TestConvertReportsDiagnostics(t *testing.T) {
	data := testBank(t)
	data[len(data)-2] ^= 0x01

	w := postUpload(t, testRouter(), "/api/v1/convert?to=xml.gz", "dir/bank.syx", data)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /convert = %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename=bank.xml.gz" {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := w.Header().Get("X-Diagnostic-Errors"); got != "1" {
		t.Errorf("X-Diagnostic-Errors = %q, want 1", got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/gzip" {
		t.Errorf("Content-Type = %q", got)
	}
}
