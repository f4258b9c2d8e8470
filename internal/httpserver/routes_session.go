// internal/httpserver/routes_session.go
//
// HTTP routes driving one device's game session.
//   - GET  /session                → current board, mode, record
//   - POST /session/key            → type one letter        {"key":"a"}
//   - POST /session/delete         → remove the last letter
//   - POST /session/submit         → submit the active row  (optional {"guess":"crane"})
//   - POST /session/event          → any input event        {"type":"key|submit|delete","key":"a"}
//   - POST /session/mode           → toggle, or set         (optional {"unlimited":true})
//   - POST /session/rows           → set row count          {"rows":5}
//   - POST /session/rows/increase  → one more row
//   - POST /session/rows/decrease  → one fewer row
//   - GET  /session/ws             → WebSocket event stream (see ws.go)
//
// Every response carries the session view; accepted guesses also carry an
// outcome with the user-facing message.

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/game"
)

// mountSession registers all /session routes.
func (s *Server) mountSession(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Use(s.withDevice)

		// The event stream is long-lived; only plain requests get a timeout.
		r.Get("/ws", s.handleWS)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(10 * time.Second))
			r.Get("/", s.handleView)
			r.Post("/key", s.handleKey)
			r.Post("/delete", s.handleDelete)
			r.Post("/submit", s.handleSubmit)
			r.Post("/event", s.handleEvent)
			r.Post("/mode", s.handleMode)
			r.Post("/rows", s.handleRows)
			r.Post("/rows/increase", s.handleRowsStep(+1))
			r.Post("/rows/decrease", s.handleRowsStep(-1))
		})
	})
}

// sessionRes is returned by every /session route.
type sessionRes struct {
	Outcome *outcomeRes `json:"outcome,omitempty"`
	Session game.View   `json:"session"`
}

// outcomeRes is an accepted guess as sent to clients.
type outcomeRes struct {
	Row        game.Row          `json:"row"`
	Status     game.Status       `json:"status"`
	Answer     string            `json:"answer,omitempty"`
	Record     game.PlayerRecord `json:"playerRecord"`
	NextWordIn int64             `json:"nextWordInSeconds,omitempty"`
	Message    string            `json:"message,omitempty"`
}

func newOutcomeRes(o *game.Outcome) *outcomeRes {
	if o == nil {
		return nil
	}
	return &outcomeRes{
		Row:        o.Row,
		Status:     o.Status,
		Answer:     o.Answer,
		Record:     o.Record,
		NextWordIn: int64(o.NextWordIn / time.Second),
		Message:    outcomeMessage(o),
	}
}

// outcomeMessage renders the alert text shown after a round resolves.
func outcomeMessage(o *game.Outcome) string {
	switch o.Status {
	case game.StatusWin:
		if o.Mode == game.ModeDaily {
			h := int(o.NextWordIn.Hours())
			m := int((o.NextWordIn - time.Duration(h)*time.Hour).Minutes())
			return fmt.Sprintf("You Win! Time until next word: %d hours and %d minutes", h, m)
		}
		return "You Win!"
	case game.StatusLoss:
		return fmt.Sprintf("The word was %s!", strings.ToUpper(o.Answer))
	}
	return ""
}

// gameError maps session errors onto status, code and message.
func gameError(err error) (int, string, string) {
	switch {
	case errors.Is(err, game.ErrInvalidLength):
		return http.StatusUnprocessableEntity, "not_enough_letters", "Not enough letters!"
	case errors.Is(err, game.ErrNotInDictionary):
		return http.StatusUnprocessableEntity, "not_in_word_list", "Not in word list!"
	case errors.Is(err, game.ErrSessionTerminal):
		return http.StatusUnprocessableEntity, "session_terminal", "Come back tomorrow for a new word!"
	case errors.Is(err, game.ErrInvalidKey):
		return http.StatusUnprocessableEntity, "invalid_key", "Letters a-z only."
	}
	return http.StatusBadRequest, "invalid", err.Error()
}

// withSession runs fn with the device's session locked and writes the
// resulting view (or error) as JSON.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(gs *game.Session) (*game.Outcome, error)) {
	ds, err := s.session(r.Context(), deviceID(r))
	if err != nil {
		logger(r).Error().Err(err).Msg("open session")
		writeError(w, http.StatusInternalServerError, "session_unavailable", "could not start a game")
		return
	}

	ds.mu.Lock()
	out, err := fn(ds.s)
	view := ds.s.View()
	ds.mu.Unlock()
	s.touch(ds)

	if err != nil {
		status, code, msg := gameError(err)
		logger(r).Debug().Err(err).Str("code", code).Msg("input rejected")
		writeError(w, status, code, msg)
		return
	}
	if out != nil && out.Status.Finished() {
		logger(r).Info().
			Str("mode", string(out.Mode)).
			Str("status", string(out.Status)).
			Int("wins", out.Record.Wins).
			Int("losses", out.Record.Losses).
			Msg("round resolved")
	}
	_ = json.NewEncoder(w).Encode(sessionRes{Outcome: newOutcomeRes(out), Session: view})
}

// decodeOptional decodes a JSON body into v, accepting an empty body.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(gs *game.Session) (*game.Outcome, error) { return nil, nil })
}

type keyReq struct {
	Key string `json:"key"`
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	s.withSession(w, r, func(gs *game.Session) (*game.Outcome, error) {
		return gs.Handle(r.Context(), game.Event{Type: game.EventKey, Letter: req.Key})
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(gs *game.Session) (*game.Outcome, error) {
		return gs.Handle(r.Context(), game.DeleteEvent())
	})
}

type submitReq struct {
	Guess *string `json:"guess"`
}

// handleSubmit submits the typed row, or the guess in the body if given.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	s.withSession(w, r, func(gs *game.Session) (*game.Outcome, error) {
		if req.Guess == nil {
			return gs.Handle(r.Context(), game.SubmitEvent())
		}
		out, err := gs.SubmitGuess(r.Context(), *req.Guess)
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev game.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	s.withSession(w, r, func(gs *game.Session) (*game.Outcome, error) {
		return gs.Handle(r.Context(), ev)
	})
}

type modeReq struct {
	Unlimited *bool `json:"unlimited"`
}

// handleMode toggles the mode, or sets it when the body names one.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	s.withSession(w, r, func(gs *game.Session) (*game.Outcome, error) {
		if req.Unlimited == nil {
			return nil, gs.ToggleMode(r.Context())
		}
		m := game.ModeDaily
		if *req.Unlimited {
			m = game.ModeUnlimited
		}
		return nil, gs.SetMode(r.Context(), m)
	})
}

type rowsReq struct {
	Rows int `json:"rows"`
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	var req rowsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	s.withSession(w, r, func(gs *game.Session) (*game.Outcome, error) {
		gs.SetRowCount(req.Rows)
		return nil, nil
	})
}

func (s *Server) handleRowsStep(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withSession(w, r, func(gs *game.Session) (*game.Outcome, error) {
			if delta > 0 {
				gs.IncreaseRows()
			} else {
				gs.DecreaseRows()
			}
			return nil, nil
		})
	}
}
