// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/vecinity/vecinity-api/internal/i18n"
	"github.com/vecinity/vecinity-api/internal/ratelimit"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func testOptions() Options {
	return Options{
		CORSOrigins: []string{"http://localhost:3000"},
		LogFormat:   "combined",
		AccessLog:   clog.New(io.Discard),
		BodyLimit:   1 << 10,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestStages_Order(t *testing.T) {
	want := []string{
		StageSecurityHeaders,
		StageXSSSanitize,
		StageHPP,
		StageRateLimit,
		StageCompression,
		StageAccessLog,
		StageCORS,
		StageBody,
		StageStatic,
	}
	if got := Names(Stages(testOptions())); !reflect.DeepEqual(got, want) {
		t.Fatalf("stage order = %v, want %v", got, want)
	}
}

func TestBuild_RunsStagesInOrder(t *testing.T) {
	var trace []string
	mk := func(name string) Stage {
		return Stage{Name: name, Wrap: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}}
	}
	h := Build([]Stage{mk("a"), mk("b"), mk("c")}, false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if From(r) == nil {
			t.Error("RequestContext missing")
		}
		trace = append(trace, "handler")
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	if want := []string{"a", "b", "c", "handler"}; !reflect.DeepEqual(trace, want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(New(testOptions(), okHandler()), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	for _, kv := range hardeningHeaders {
		if got := rec.Header().Get(kv[0]); got != kv[1] {
			t.Errorf("%s = %q, want %q", kv[0], got, kv[1])
		}
	}
}

func TestRateLimit_ThrottlesOnlyAPI(t *testing.T) {
	i18n.Init("es")
	clk := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	opts := testOptions()
	opts.Limiter = ratelimit.New(15*time.Minute, 2, ratelimit.WithClock(clk))
	h := New(opts, okHandler())

	req := func(path string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.RemoteAddr = "10.0.0.1:1234"
		return serve(h, r)
	}

	for i := 0; i < 2; i++ {
		if rec := req("/api/reports"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}
	// Paths outside /api are never counted.
	for i := 0; i < 5; i++ {
		if rec := req("/apiary"); rec.Code != http.StatusOK {
			t.Fatalf("/apiary throttled: %d", rec.Code)
		}
	}

	rec := req("/api")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "900" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected headers: %v", rec.Header())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	msg := "Demasiadas solicitudes desde esta IP, intenta de nuevo más tarde."
	if body["success"] != false || body["message"] != msg || body["error"] != msg {
		t.Fatalf("unexpected body: %v", body)
	}

	clk.Advance(15 * time.Minute)
	if rec := req("/api/reports"); rec.Code != http.StatusOK {
		t.Fatalf("expected budget to reset, got %d", rec.Code)
	}
}

func TestBody_TooLargeNeverReachesHandler(t *testing.T) {
	i18n.Init("es")
	called := false
	h := New(testOptions(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	payload := `{"text":"` + strings.Repeat("a", 2048) + `"}`
	for _, chunked := range []bool{false, true} {
		r := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(payload))
		r.Header.Set("Content-Type", "application/json")
		if chunked {
			r.ContentLength = -1
		}
		rec := serve(h, r)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("chunked=%t: status %d", chunked, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"success":false`) {
			t.Fatalf("chunked=%t: body %s", chunked, rec.Body.String())
		}
	}
	if called {
		t.Fatal("handler ran for an oversized body")
	}
}

func TestBody_MalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":`))
	r.Header.Set("Content-Type", "application/json")
	if rec := serve(New(testOptions(), okHandler()), r); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBody_SanitizedJSONReexposed(t *testing.T) {
	var got map[string]any
	var rc *RequestContext
	h := New(testOptions(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc = From(r)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
	}))
	r := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"title":"<script>alert(1)</script>Bache","tags":["<b>a</b>"],"n":3}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	serve(h, r)

	if got["title"] != "Bache" {
		t.Fatalf("title = %v", got["title"])
	}
	if tags, _ := got["tags"].([]any); len(tags) != 1 || tags[0] != "a" {
		t.Fatalf("tags = %v", got["tags"])
	}
	if rc == nil || rc.Body == nil {
		t.Fatal("decoded body not stored on RequestContext")
	}
}

func TestBody_JSONNumbersPassThroughUnchanged(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"beyond float64 precision", `{"id":9007199254740993}`},
		{"uint64 range", `{"id":9007199254740993,"n":12345678901234567890}`},
		{"formatting kept", "{ \"n\": 1.50,\n \"tag\": \"a & b\" }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			var rc *RequestContext
			h := New(testOptions(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				rc = From(r)
				b, _ := io.ReadAll(r.Body)
				got = string(b)
			}))
			r := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(tt.in))
			r.Header.Set("Content-Type", "application/json")
			serve(h, r)

			if got != tt.in {
				t.Fatalf("handler body = %q, want %q", got, tt.in)
			}
			body, _ := rc.Body.(map[string]any)
			if n, ok := body["id"].(json.Number); ok && n.String() != "9007199254740993" {
				t.Fatalf("decoded id = %v", n)
			}
		})
	}
}

func TestBody_JSONTrailingDataRejected(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"a":1}{"b":2}`))
	r.Header.Set("Content-Type", "application/json")
	if rec := serve(New(testOptions(), okHandler()), r); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBody_FormCollapsesDuplicates(t *testing.T) {
	var rc *RequestContext
	var form string
	h := New(testOptions(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc = From(r)
		b, _ := io.ReadAll(r.Body)
		form = string(b)
	}))
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("role=citizen&role=admin&email=a%40b.c"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	serve(h, r)

	body, _ := rc.Body.(map[string]any)
	if body["role"] != "admin" || body["email"] != "a@b.c" {
		t.Fatalf("body = %v", rc.Body)
	}
	if !reflect.DeepEqual(rc.BodyPolluted["role"], []string{"citizen", "admin"}) {
		t.Fatalf("BodyPolluted = %v", rc.BodyPolluted)
	}
	if rc.Form.Get("role") != "admin" || len(rc.Form["role"]) != 1 {
		t.Fatalf("Form = %v", rc.Form)
	}
	if form != "email=a%40b.c&role=admin" {
		t.Fatalf("re-exposed body = %q", form)
	}
}

func TestHPP_QueryKeepsLastValue(t *testing.T) {
	var page []string
	var rc *RequestContext
	h := New(testOptions(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page = r.URL.Query()["page"]
		rc = From(r)
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/api/reports?page=1&page=3&limit=5", nil))

	if !reflect.DeepEqual(page, []string{"3"}) {
		t.Fatalf("page = %v", page)
	}
	if !reflect.DeepEqual(rc.QueryPolluted, map[string][]string{"page": {"1", "3"}}) {
		t.Fatalf("QueryPolluted = %v", rc.QueryPolluted)
	}
}

func TestSanitize_Query(t *testing.T) {
	var q string
	h := New(testOptions(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query().Get("q")
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/api/reports?q=%3Cscript%3Ealert(1)%3C%2Fscript%3Ehola", nil))
	if q != "hola" {
		t.Fatalf("q = %q", q)
	}
}

func TestCORS(t *testing.T) {
	h := New(testOptions(), okHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	rec := serve(h, r)
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" ||
		rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("allowed origin not granted: %v", rec.Header())
	}

	r = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("Origin", "http://evil.example")
	if got := serve(h, r).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin got %q", got)
	}

	r = httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = serve(h, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
}

func TestCORS_Wildcard(t *testing.T) {
	h := CORS([]string{"*"})(okHandler())
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://anywhere.example")
	if got := serve(h, r).Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestStatic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "foto.txt"), []byte("imagen"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := testOptions()
	opts.UploadDir = dir
	h := New(opts, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/uploads/foto.txt", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "imagen" {
		t.Fatalf("static: %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Cross-Origin-Resource-Policy"); got != "cross-origin" {
		t.Fatalf("Cross-Origin-Resource-Policy = %q", got)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing file should fall through, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cross-Origin-Resource-Policy"); got != "same-origin" {
		t.Fatalf("fall-through Cross-Origin-Resource-Policy = %q", got)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/uploads/../../etc/passwd", nil))
	if rec.Code == http.StatusOK {
		t.Fatal("path traversal served a file")
	}
}

func TestAccessLog_Formats(t *testing.T) {
	var buf bytes.Buffer
	l := clog.New(&buf)
	h := AccessLog("tiny", l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "hello")
	}))
	serve(h, httptest.NewRequest(http.MethodPost, "/api/reports?x=1", nil))
	if !strings.Contains(buf.String(), "POST /api/reports?x=1 201 5 - ") {
		t.Fatalf("tiny line = %q", buf.String())
	}

	buf.Reset()
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	r.Header.Set("User-Agent", "curl/8")
	AccessLog("unknown-format", l)(okHandler()).ServeHTTP(httptest.NewRecorder(), r)
	line := buf.String()
	if !strings.Contains(line, `192.0.2.7 - - [`) || !strings.Contains(line, `"GET /api/health HTTP/1.1" 200 2 "-" "curl/8"`) {
		t.Fatalf("combined line = %q", line)
	}
}

func TestCompression(t *testing.T) {
	big := strings.Repeat("vecinity ", 1024)
	h := New(testOptions(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, big)
	}))
	r := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	rec := serve(h, r)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, headers %v", rec.Header())
	}
	if rec.Body.Len() >= len(big) {
		t.Fatal("body was not compressed")
	}
}

func TestTrustProxy(t *testing.T) {
	var ip string
	opts := testOptions()
	opts.TrustProxy = true
	h := New(opts, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = From(r).ClientIP
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	serve(h, r)
	if ip != "203.0.113.9" {
		t.Fatalf("ClientIP = %q", ip)
	}
}
