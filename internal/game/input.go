package game

import (
	"context"
	"errors"
)

// EventType names an input event from the presentation layer.
type EventType string

const (
	EventKey    EventType = "key"
	EventSubmit EventType = "submit"
	EventDelete EventType = "delete"
)

// Event is one user input. Letter is only read for EventKey.
type Event struct {
	Type   EventType `json:"type"`
	Letter string    `json:"key,omitempty"`
}

// PressEvent returns a key press event for letter.
func PressEvent(letter rune) Event { return Event{Type: EventKey, Letter: string(letter)} }

// SubmitEvent returns a submit event.
func SubmitEvent() Event { return Event{Type: EventSubmit} }

// DeleteEvent returns a delete event.
func DeleteEvent() Event { return Event{Type: EventDelete} }

var errUnknownEvent = errors.New("game: unknown event type")

// Handle applies ev to the session. The outcome is non-nil only for an
// accepted submission.
func (s *Session) Handle(ctx context.Context, ev Event) (*Outcome, error) {
	s.markVisited(ctx)
	switch ev.Type {
	case EventKey:
		r := []rune(ev.Letter)
		if len(r) != 1 {
			return nil, ErrInvalidKey
		}
		return nil, s.PressKey(r[0])
	case EventDelete:
		s.DeleteKey()
		return nil, nil
	case EventSubmit:
		out, err := s.Submit(ctx)
		if err != nil {
			return nil, err
		}
		return &out, nil
	}
	return nil, errUnknownEvent
}

// PressKey appends a letter to the active row. Letters beyond the row width
// and input after a resolved daily round are ignored.
func (s *Session) PressKey(letter rune) error {
	s.refresh()
	if letter >= 'A' && letter <= 'Z' {
		letter += 'a' - 'A'
	}
	if letter < 'a' || letter > 'z' {
		return ErrInvalidKey
	}
	if s.status.Finished() || len(s.buffer) >= s.src.Width() {
		return nil
	}
	s.buffer = append(s.buffer, byte(letter))
	return nil
}

// DeleteKey removes the last letter of the active row, if any.
func (s *Session) DeleteKey() {
	s.refresh()
	if len(s.buffer) == 0 {
		return
	}
	s.buffer = s.buffer[:len(s.buffer)-1]
}

// Submit submits the active row. The row is kept on rejection.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	s.refresh()
	return s.SubmitGuess(ctx, string(s.buffer))
}
