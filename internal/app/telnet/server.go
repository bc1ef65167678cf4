/*
Package telnet accepts raw TCP terminal connections and hands each one to a Session.

Connections are rate limited per client IP before a Session is created. Serve blocks
until its context is cancelled, then closes the listener and waits for every running
session to finish its teardown.
*/
package telnet

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telebbs/internal/app/broadcast"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/session"
	"telebbs/internal/pkg/errs"
	"telebbs/internal/pkg/limiter"
	"telebbs/internal/pkg/logx"
)

const (
	maxAcceptBackoff = time.Second
	rejectTimeout    = 2 * time.Second
)

// Server serves the terminal protocol on a TCP listener.
type Server struct {
	repo    repository.Repository
	hub     *broadcast.Hub
	limiter *limiter.IPRateLimiter
	opts    session.Options
	logger  zerolog.Logger

	wg sync.WaitGroup
}

// NewServer creates a Server. limiter may be nil to accept every connection.
func NewServer(repo repository.Repository, hub *broadcast.Hub, rl *limiter.IPRateLimiter, opts session.Options) *Server {
	return &Server{
		repo:    repo,
		hub:     hub,
		limiter: rl,
		opts:    opts,
		logger:  logx.Component("TelnetServer"),
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or the listener fails.
// It closes ln and returns after all sessions have ended.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Telnet server listening.")

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var (
		serveErr error
		backoff  time.Duration
	)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("Accept failed. Retrying.")
				time.Sleep(backoff)
				continue
			}

			if !errors.Is(err, net.ErrClosed) {
				serveErr = err
			}
			break
		}
		backoff = 0

		if s.limiter != nil && !s.limiter.AllowAddr(conn.RemoteAddr().String()) {
			s.reject(conn)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			session.New(conn, s.repo, s.hub, s.opts).Run(ctx)
		}()
	}

	_ = ln.Close()
	s.wg.Wait()
	s.logger.Info().Msg("Telnet server stopped.")
	return serveErr
}

func (s *Server) reject(conn net.Conn) {
	s.logger.Warn().
		Str("remote_ip", logx.AnonymizeIP(conn.RemoteAddr().String())).
		Msg("Connection rejected: Rate limit exceeded.")

	_ = conn.SetWriteDeadline(time.Now().Add(rejectTimeout))
	msg := errs.Message(errs.NewError(errs.ErrRateLimitExceeded))
	_, _ = conn.Write([]byte(msg + "\r\n"))
	_ = conn.Close()
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > maxAcceptBackoff {
		d = maxAcceptBackoff
	}
	return d
}
