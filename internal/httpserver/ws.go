// internal/httpserver/ws.go
//
// WebSocket transport for input events. The client sends one game.Event per
// frame ({"type":"key","key":"a"}, {"type":"delete"}, {"type":"submit"}) and
// receives one frame per event with the new session view, plus the outcome
// or the rejection. The first frame after the upgrade is the current view.

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/game"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Idle time after which the connection is dropped.
	idleWait = 10 * time.Minute

	// Maximum frame size allowed from the peer.
	maxMessageSize = 1024
)

// wsFrame is sent for every processed event.
type wsFrame struct {
	Outcome *outcomeRes `json:"outcome,omitempty"`
	Error   *errorRes   `json:"error,omitempty"`
	Session game.View   `json:"session"`
}

func (s *Server) upgrader() websocket.Upgrader {
	origin := s.cfg.Server.ClientOrigin
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == origin
		},
	}
}

// handleWS upgrades the request and processes events until the peer leaves.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ds, err := s.session(r.Context(), deviceID(r))
	if err != nil {
		logger(r).Error().Err(err).Msg("open session")
		writeError(w, http.StatusInternalServerError, "session_unavailable", "could not start a game")
		return
	}

	// Headers set on w are not sent with the upgrade response, so a freshly
	// issued device cookie is forwarded explicitly.
	hdr := http.Header{}
	for _, c := range w.Header().Values("Set-Cookie") {
		hdr.Add("Set-Cookie", c)
	}
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, hdr)
	if err != nil {
		logger(r).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	ds.streams.Add(1)
	defer func() {
		ds.streams.Add(-1)
		s.touch(ds)
	}()
	log := logger(r).With().Str("device", deviceID(r)).Logger()
	log.Info().Msg("websocket connected")

	conn.SetReadLimit(maxMessageSize)
	ctx := r.Context()

	ds.mu.Lock()
	first := wsFrame{Session: ds.s.View()}
	ds.mu.Unlock()
	if err := writeFrame(conn, first); err != nil {
		return
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(idleWait))
		var ev game.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket read")
			}
			log.Info().Msg("websocket disconnected")
			return
		}

		ds.mu.Lock()
		out, err := ds.s.Handle(ctx, ev)
		frame := wsFrame{Outcome: newOutcomeRes(out), Session: ds.s.View()}
		ds.mu.Unlock()
		s.touch(ds)

		if err != nil {
			_, code, msg := gameError(err)
			frame.Error = &errorRes{Error: code, Message: msg}
		}
		if err := writeFrame(conn, frame); err != nil {
			log.Debug().Err(err).Msg("websocket write")
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, f wsFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
