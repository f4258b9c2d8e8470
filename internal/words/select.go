package words

import (
	"time"
)

// ForDay returns the daily target for the calendar day containing t.
//
// The day number since the epoch is taken modulo the list length, so the
// sequence repeats once every answer has been used. Days before the epoch
// return ErrBeforeEpoch.
func (s *Source) ForDay(t time.Time) (string, error) {
	n := s.cal.DayNumber(t)
	if n < 0 {
		return "", ErrBeforeEpoch
	}
	return s.answers[n%len(s.answers)], nil
}

// ForIndex returns the unlimited-mode target at index, wrapping past the end
// of the list.
func (s *Source) ForIndex(index int) (string, error) {
	if index < 0 {
		return "", ErrNegativeIndex
	}
	return s.answers[index%len(s.answers)], nil
}

// Answers returns a copy of the ordered answer list.
func (s *Source) Answers() []string {
	return append([]string(nil), s.answers...)
}
