/*
Package session runs one connected terminal.

A Session owns the connection, the authentication and room state, the terminal
mode, the pending line of text and the current view. Two goroutines share it: the
reader decodes input and drives the view, and the listener re-renders when a hub
event concerns this session. mu guards the state bundle and every render; writeMu
serialises bytes on the socket. Locks are always taken in that order.
*/
package session

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telebbs/internal/app/broadcast"
	"telebbs/internal/app/protocol"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/views"
	"telebbs/internal/pkg/logx"
)

const (
	// frameSize is the largest chunk read from the client at once.
	frameSize = 30

	// maxPendingInput bounds the line being typed.
	maxPendingInput = 1024

	defaultReadTimeout  = time.Second
	defaultWriteTimeout = 10 * time.Second
	teardownTimeout     = 5 * time.Second

	clearScreen = "\x1b[2J\x1b[H"
	goodbye     = "\nGoodbye!\n"
)

// Options tunes socket timeouts. Zero values use the defaults.
type Options struct {
	// ReadTimeout bounds each read so shutdown is noticed promptly.
	ReadTimeout time.Duration

	// WriteTimeout bounds each write to a slow client.
	WriteTimeout time.Duration
}

// Session is the runtime state of one connection.
type Session struct {
	id     string
	conn   net.Conn
	repo   repository.Repository
	hub    *broadcast.Hub
	router *views.Router
	opts   Options
	logger zerolog.Logger

	// mu guards the fields below and the render-and-write sequence.
	mu      sync.Mutex
	userID  int64
	roomID  int64
	mode    protocol.Mode
	pending string
	view    views.View

	// writeMu serialises writes to conn.
	writeMu sync.Mutex

	// stopping is set at the start of teardown.
	stopping atomic.Bool

	// failed is set after a write error; the reader exits on its next pass.
	failed atomic.Bool

	listenerDone chan struct{}
}

// New prepares a session for conn. Call Run to serve it.
func New(conn net.Conn, repo repository.Repository, hub *broadcast.Hub, opts Options) *Session {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	id := uuid.NewString()
	router := views.NewRouter(repo)

	return &Session{
		id:     id,
		conn:   conn,
		repo:   repo,
		hub:    hub,
		router: router,
		opts:   opts,
		logger: logx.Component("Session",
			"session_id", id,
			"remote_ip", logx.AnonymizeIP(conn.RemoteAddr().String()),
		),
		userID:       repository.NoID,
		roomID:       repository.NoID,
		mode:         protocol.Navigation,
		view:         router.Start(),
		listenerDone: make(chan struct{}),
	}
}

// ID returns the session's hub registration id.
func (s *Session) ID() string { return s.id }

// Run serves the connection until the client leaves, the connection fails or
// ctx is cancelled. It returns only after the listener has stopped and the
// connection is closed.
func (s *Session) Run(ctx context.Context) {
	feed := s.hub.Register(s.id)
	go s.listen(feed)

	defer s.teardown(ctx)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Session panicked. Closing connection.")
		}
	}()

	s.logger.Info().Msg("Session started.")

	if err := s.welcome(); err != nil {
		s.logger.Info().Err(err).Msg("Failed to send welcome screen.")
		return
	}
	s.readLoop(ctx)
}

func (s *Session) welcome() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(s.mode.Sequence()); err != nil {
		return err
	}
	return s.render()
}

func (s *Session) readLoop(ctx context.Context) {
	buf := make([]byte, frameSize)

	for {
		if ctx.Err() != nil || s.failed.Load() {
			return
		}

		clear(buf)
		if err := s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to set read deadline.")
		}

		n, err := s.conn.Read(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Info().Err(err).Msg("Read failed.")
			}
			return
		}
		if n == 0 {
			return
		}

		chunk := protocol.StripIAC(buf[:n])
		if len(chunk) == 0 {
			continue
		}
		if !s.handleChunk(ctx, chunk) {
			return
		}
	}
}

// handleChunk processes one input chunk and reports whether the session continues.
func (s *Session) handleChunk(ctx context.Context, chunk []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := protocol.DecodeFor(s.mode, chunk)
	if ev == protocol.Exit {
		_ = s.write([]byte(goodbye))
		return false
	}

	text := protocol.CleanText(chunk)
	lineSubmit := false
	if s.mode.TextEntry() && !ev.IsArrow() {
		lineSubmit = ev != protocol.Enter && protocol.IsLineSubmission(chunk)
		s.fold(ev, text)
		text = s.pending
	}

	if !s.dispatch(ctx, ev, text) {
		return false
	}
	if lineSubmit && s.mode.TextEntry() {
		if !s.dispatch(ctx, protocol.Enter, s.pending) {
			return false
		}
	}

	return s.render() == nil
}

// fold applies ev to the pending line. mu must be held.
func (s *Session) fold(ev protocol.Event, text string) {
	switch ev {
	case protocol.Backspace:
		if len(s.pending) > 0 {
			s.pending = s.pending[:len(s.pending)-1]
		}
		return
	case protocol.SpaceBar:
		s.pending += " "
	}
	s.pending += protocol.PrintableASCII(text)
	if len(s.pending) > maxPendingInput {
		s.pending = s.pending[:maxPendingInput]
	}
}

// dispatch hands one event to the current view and applies the result. mu must be held.
func (s *Session) dispatch(ctx context.Context, ev protocol.Event, text string) bool {
	result := s.view.HandleEvent(ctx, ev, text)
	return s.apply(ctx, result)
}

// apply performs the session-level effects of a view result. It reports false
// when the session should end. mu must be held.
func (s *Session) apply(ctx context.Context, result protocol.Event) bool {
	switch result {
	case protocol.Exit:
		_ = s.write([]byte(goodbye))
		return false

	case protocol.NavigateView:
		s.navigate(ctx)

	case protocol.InputModeEnable:
		s.setMode(protocol.LineInput)

	case protocol.InputModeDisable:
		s.setMode(protocol.Navigation)
		s.pending = ""

	case protocol.SecretInputModeEnable:
		s.setMode(protocol.SecretLineInput)

	case protocol.Authenticate:
		s.userID = s.view.SubjectID()
		s.navigate(ctx)
		s.setMode(protocol.Navigation)
		s.hub.Publish(broadcast.Message{EventType: broadcast.UserLogin, UserID: s.userID})
		s.logger.Info().Int64("user_id", s.userID).Msg("User authenticated.")

	case protocol.RoomJoin:
		s.joinRoom(ctx)

	case protocol.RoomLeave:
		s.leaveRoom(ctx)
		s.navigate(ctx)

	case protocol.RoomMessageSent:
		s.hub.Publish(broadcast.Message{EventType: broadcast.RoomMessage, UserID: s.userID, RoomID: s.roomID})
		s.pending = ""

	case protocol.DirectMessageSent:
		s.hub.Publish(broadcast.Message{EventType: broadcast.DirectMessage, UserID: s.userID, ToUserID: s.view.SubjectID()})
		s.pending = ""
	}
	return true
}

// navigate replaces the current view with the one it asked for and reports
// whether a transition happened. mu must be held.
func (s *Session) navigate(ctx context.Context) bool {
	next, err := s.router.Next(ctx, s.view, views.SessionContext{UserID: s.userID, RoomID: s.roomID})
	if err != nil {
		s.logger.Warn().Err(err).Str("target", s.view.Target().String()).Msg("Navigation failed.")
		return false
	}
	if next == nil {
		return false
	}
	s.view = next
	s.setMode(next.InitialMode())
	return true
}

// joinRoom enters the room selected on the current view. mu must be held.
func (s *Session) joinRoom(ctx context.Context) {
	name := s.view.Selection()
	id, err := s.repo.GetRoomByName(ctx, name)
	if err != nil {
		s.logger.Warn().Err(err).Str("room", name).Msg("Failed to resolve room.")
		return
	}

	s.leaveRoom(ctx)
	if err := s.repo.JoinRoom(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("room_id", id).Msg("Failed to join room.")
		return
	}
	s.roomID = id
	s.hub.Publish(broadcast.Message{EventType: broadcast.RoomJoin, UserID: s.userID, RoomID: id})

	if !s.navigate(ctx) {
		s.leaveRoom(ctx)
	}
}

// leaveRoom leaves the current room, if any. roomID is cleared before anything
// else so a room is left at most once per join. mu must be held.
func (s *Session) leaveRoom(ctx context.Context) {
	if s.roomID == repository.NoID {
		return
	}
	id := s.roomID
	s.roomID = repository.NoID

	if err := s.repo.LeaveRoom(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("room_id", id).Msg("Failed to leave room.")
	}
	s.hub.Publish(broadcast.Message{EventType: broadcast.RoomLeave, UserID: s.userID, RoomID: id})
}

// setMode switches the client's terminal mode. Any mode change drops the
// pending line. mu must be held.
func (s *Session) setMode(mode protocol.Mode) {
	if mode == s.mode {
		return
	}
	s.mode = mode
	s.pending = ""
	_ = s.write(mode.Sequence())
}

// render writes the current view. mu must be held.
func (s *Session) render() error {
	screen := append([]byte(clearScreen), protocol.EncodeScreen(s.view.Render())...)
	return s.write(screen)
}

func (s *Session) write(p []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.failed.Load() {
		return net.ErrClosed
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to set write deadline.")
	}
	if _, err := s.conn.Write(p); err != nil {
		s.failed.Store(true)
		s.logger.Info().Err(err).Msg("Write failed.")
		return err
	}
	return nil
}

// listen re-renders when hub events concern this session. It exits when the
// hub closes its channel or when it sees this session's own logout.
func (s *Session) listen(feed <-chan []byte) {
	defer close(s.listenerDone)

	for payload := range feed {
		msg, err := broadcast.Decode(payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Undecodable hub message.")
			continue
		}
		if !s.deliver(msg) {
			return
		}
	}
}

// deliver applies one hub event and reports whether the listener continues.
func (s *Session) deliver(msg broadcast.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.EventType {
	case broadcast.Logout:
		return !(s.stopping.Load() && msg.UserID == s.userID)
	case broadcast.AnonLogout:
		return !(s.stopping.Load() && s.userID == repository.NoID)
	}

	if s.failed.Load() {
		return false
	}
	if s.stopping.Load() || !s.concerns(msg) {
		return true
	}

	s.view.RefreshData(context.Background())
	return s.render() == nil
}

// concerns reports whether msg should refresh this session's screen. mu must be held.
func (s *Session) concerns(msg broadcast.Message) bool {
	switch msg.EventType {
	case broadcast.RoomMessage, broadcast.RoomLeave, broadcast.RoomJoin:
		return s.roomID != repository.NoID && msg.RoomID == s.roomID
	case broadcast.DirectMessage:
		return s.userID != repository.NoID && (msg.UserID == s.userID || msg.ToUserID == s.userID)
	}
	return false
}

// teardown leaves any room, logs the user out, stops the listener and closes
// the connection, in that order.
func (s *Session) teardown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	s.stopping.Store(true)

	s.mu.Lock()
	s.leaveRoom(ctx)
	if s.userID != repository.NoID {
		if err := s.repo.LogoutUser(ctx, s.userID); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", s.userID).Msg("Failed to log user out.")
		}
		s.hub.Publish(broadcast.Message{EventType: broadcast.Logout, UserID: s.userID})
	} else {
		s.hub.Publish(broadcast.Message{EventType: broadcast.AnonLogout})
	}
	s.mu.Unlock()

	s.hub.Unregister(s.id)
	<-s.listenerDone

	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug().Err(err).Msg("Connection close error.")
	}
	s.logger.Info().Msg("Session closed.")
}
