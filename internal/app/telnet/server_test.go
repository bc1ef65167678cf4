package telnet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"telebbs/internal/app/broadcast"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/session"
	"telebbs/internal/pkg/limiter"
)

func readUntil(t *testing.T, conn net.Conn, want string) string {
	t.Helper()

	var out bytes.Buffer
	buf := make([]byte, 512)
	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q, got %q", want, out.String())
		}
		_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := conn.Read(buf)
		out.Write(buf[:n])
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !strings.Contains(out.String(), want) {
				t.Fatalf("read failed before %q: %v (got %q)", want, err, out.String())
			}
		}
	}
	return out.String()
}

func TestServeRunsSessionsAndRateLimits(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	rl := limiter.NewIPRateLimiter(rate.Limit(0.001), 1)
	defer rl.Stop()
	hub := broadcast.NewHub()
	defer hub.Shutdown()

	srv := NewServer(repository.NewMemory(), hub, rl, session.Options{ReadTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	first, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer first.Close()
	readUntil(t, first, "Register")

	second, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer second.Close()
	_ = second.SetReadDeadline(time.Now().Add(3 * time.Second))
	rejected, _ := io.ReadAll(second)
	if !strings.Contains(string(rejected), "Too many connections") {
		t.Fatalf("expected rate limit message, got %q", rejected)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}

	_ = first.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, err := io.ReadAll(first); err != nil {
		t.Fatalf("expected the session connection to be closed, got %v", err)
	}
	if n := hub.Count(); n != 0 {
		t.Fatalf("expected no hub subscribers after shutdown, got %d", n)
	}
}

func TestServeReturnsWhenListenerFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	hub := broadcast.NewHub()
	defer hub.Shutdown()

	srv := NewServer(repository.NewMemory(), hub, nil, session.Options{})
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	time.Sleep(20 * time.Millisecond)
	_ = ln.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("closed listener should end Serve cleanly, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not return")
	}
}
