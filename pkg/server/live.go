package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soltwin/soltwin/pkg/log"
)

const (
	livePushInterval = 30 * time.Second
	liveWriteTimeout = 10 * time.Second
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the dashboard is served from other origins during development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleLive streams the dashboard snapshot over a websocket, pushing a fresh
// one immediately and then every 30 seconds until the client disconnects.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	log.Ctx(ctx).InfoContext(ctx, "live client connected", slog.String("remote", conn.RemoteAddr().String()))

	// drain control/client frames so close is noticed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := func() bool {
		res, err := s.buildSolarRes(ctx)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to build live snapshot", slog.Any("error", err))
			return false
		}
		if err := conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout)); err != nil {
			return false
		}
		if err := conn.WriteJSON(res); err != nil {
			log.Ctx(ctx).InfoContext(ctx, "live client write failed", slog.Any("error", err))
			return false
		}
		return true
	}

	if !push() {
		return
	}
	ticker := time.NewTicker(livePushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}
