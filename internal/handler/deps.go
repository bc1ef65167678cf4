package handler

import (
	"sync"

	"telebbs/internal/app/broadcast"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/session"
	"telebbs/internal/configs"
	"telebbs/internal/pkg/limiter"
)

type AppDeps struct {
	Hub     *broadcast.Hub
	Repo    repository.Repository
	Config  *configs.AppConfig
	Limiter *limiter.IPRateLimiter

	SessionOptions session.Options

	// Sessions tracks WebSocket sessions, which outlive http.Server.Shutdown.
	Sessions *sync.WaitGroup
}
