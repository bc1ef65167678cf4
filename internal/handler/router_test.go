package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"telebbs/internal/app/broadcast"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/session"
	"telebbs/internal/configs"
	"telebbs/internal/pkg/errs"
	"telebbs/internal/pkg/limiter"
	"telebbs/internal/pkg/resp"
)

func newDeps(t *testing.T, env string, rl *limiter.IPRateLimiter) *AppDeps {
	t.Helper()

	hub := broadcast.NewHub()
	t.Cleanup(hub.Shutdown)

	return &AppDeps{
		Hub:            hub,
		Repo:           repository.NewMemory(),
		Config:         &configs.AppConfig{Environment: env, AllowedOrigins: []string{"https://bbs.example"}},
		Limiter:        rl,
		SessionOptions: session.Options{ReadTimeout: 20 * time.Millisecond},
		Sessions:       &sync.WaitGroup{},
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func readUntil(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()

	var out strings.Builder
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for !strings.Contains(out.String(), want) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read failed before %q: %v (got %q)", want, err, out.String())
		}
		out.Write(data)
	}
}

func TestHealthAndStats(t *testing.T) {
	deps := newDeps(t, configs.EnvDevelopment, nil)
	srv := httptest.NewServer(Router(deps))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}

	deps.Hub.Register("a")
	deps.Hub.Register("b")

	res, err = http.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	defer res.Body.Close()

	var body struct {
		resp.JSONResponse
		Data map[string]int `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data["sessions"] != 2 {
		t.Fatalf("expected 2 sessions, got %+v", body)
	}
}

func TestWebSocketRunsTerminalSession(t *testing.T) {
	deps := newDeps(t, configs.EnvDevelopment, nil)
	srv := httptest.NewServer(Router(deps))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readUntil(t, conn, "Register")

	// Ctrl-C ends the session.
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, "Goodbye!")

	done := make(chan struct{})
	go func() {
		deps.Sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("session did not finish")
	}
	if n := deps.Hub.Count(); n != 0 {
		t.Fatalf("expected session to unregister, %d subscribers left", n)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	deps := newDeps(t, "production", nil)
	srv := httptest.NewServer(Router(deps))
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, res, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if res == nil || res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", res)
	}
}

func TestWebSocketRateLimited(t *testing.T) {
	rl := limiter.NewIPRateLimiter(rate.Limit(0.001), 1)
	defer rl.Stop()
	rl.GetLimiter("127.0.0.1").Allow()

	deps := newDeps(t, configs.EnvDevelopment, rl)
	srv := httptest.NewServer(Router(deps))
	defer srv.Close()

	_, res, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if res == nil || res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", res)
	}

	var body resp.JSONResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != errs.ErrRateLimitExceeded {
		t.Fatalf("unexpected code %d", body.Code)
	}
}

func TestWebSocketRefusedAfterShutdownBegins(t *testing.T) {
	deps := newDeps(t, configs.EnvDevelopment, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	HandleWebSocket(websocket.Upgrader{}, deps).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body resp.JSONResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != errs.ErrShuttingDown {
		t.Fatalf("unexpected code %d", body.Code)
	}

	done := make(chan struct{})
	go func() {
		deps.Sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("a refused request must not hold the session group")
	}
}

func TestWebSocketSessionCountedWhileRunning(t *testing.T) {
	deps := newDeps(t, configs.EnvDevelopment, nil)
	srv := httptest.NewServer(Router(deps))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readUntil(t, conn, "Register")

	done := make(chan struct{})
	go func() {
		deps.Sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatalf("session group released while the session is running")
	case <-time.After(50 * time.Millisecond):
	}

	conn.Close()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("session group not released after disconnect")
	}
}
