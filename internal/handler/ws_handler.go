/*
Package handler provides the HTTP handler function for WebSocket terminal connections.

HandleWebSocket rate limits the client, upgrades the HTTP connection and serves it with a
Session until the browser terminal disconnects.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"telebbs/internal/app/session"
	"telebbs/internal/pkg/errs"
	"telebbs/internal/pkg/logx"
	"telebbs/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc that runs a terminal session over a WebSocket.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Limiter != nil && !deps.Limiter.AllowAddr(r.RemoteAddr) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(r.RemoteAddr))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		if r.Context().Err() != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrShuttingDown))
			return
		}
		// Counted before the upgrade hijacks the connection, while Shutdown still tracks it.
		if deps.Sessions != nil {
			deps.Sessions.Add(1)
			defer deps.Sessions.Done()
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("WebSocket terminal connected", "ip", logx.AnonymizeIP(r.RemoteAddr))

		session.New(newWSConn(conn, r.RemoteAddr), deps.Repo, deps.Hub, deps.SessionOptions).Run(r.Context())
	}
}
