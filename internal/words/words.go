// internal/words/words.go
//
// Word source for the game session.
//
// Responsibilities:
//   - Load the ordered answer list and the allowed guess list from
//     environment-provided files or fall back to the embedded assets.
//   - Keep a set for quick dictionary lookups (answers ∪ allowed).
//   - Map daily day numbers and unlimited indices onto the answer list.
//
// Load behavior:
//  1. If AnswersFile and AllowedFile are both set,
//     load answers from the first and allowed guesses from the second.
//  2. If only AllowedFile is set,
//     load that file and use it for both answers and allowed guesses.
//  3. Otherwise use the embedded assets.answers.txt / assets.allowed.txt.
//
// Constraints:
//   - Words must be Width alphabetic letters (a–z); others are dropped.
//   - Lists are normalized to lowercase.
//   - The answer order is preserved; it defines the daily sequence.
package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/robalobadob/wordle/apps/unlimited-server/assets"
	"github.com/robalobadob/wordle/apps/unlimited-server/internal/daily"
)

// DefaultWidth is the number of letters per word.
const DefaultWidth = 5

var (
	ErrNoWords       = errors.New("words: answers list is empty")
	ErrNegativeIndex = errors.New("words: negative word index")
	ErrBeforeEpoch   = errors.New("words: date is before the daily epoch")
)

// Source is a read-only answer list plus dictionary. Safe for concurrent use.
type Source struct {
	answers []string
	allowed map[string]struct{}
	width   int
	cal     daily.Calendar
}

// LoadOptions selects where word lists come from.
type LoadOptions struct {
	AnswersFile string
	AllowedFile string
	Width       int
	Calendar    daily.Calendar
}

// New builds a Source from in-memory lists. Words that are not Width
// lowercase letters are dropped; every kept answer is also a valid guess.
func New(answers, allowed []string, width int, cal daily.Calendar) (*Source, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	ans := normalize(answers, width)
	if len(ans) == 0 {
		return nil, ErrNoWords
	}
	set := toSet(ans)
	for _, w := range normalize(allowed, width) {
		set[w] = struct{}{}
	}
	return &Source{answers: ans, allowed: set, width: width, cal: cal}, nil
}

// Load reads the lists described by opts.
func Load(opts LoadOptions) (*Source, error) {
	var ansList, allowList []string
	var err error

	switch {
	case opts.AnswersFile != "" && opts.AllowedFile != "":
		if ansList, err = readWordFile(opts.AnswersFile); err != nil {
			return nil, fmt.Errorf("read answers: %w", err)
		}
		if allowList, err = readWordFile(opts.AllowedFile); err != nil {
			return nil, fmt.Errorf("read allowed: %w", err)
		}

	case opts.AllowedFile != "":
		if allowList, err = readWordFile(opts.AllowedFile); err != nil {
			return nil, fmt.Errorf("read allowed: %w", err)
		}
		ansList = allowList

	default:
		if ansList, err = assets.AnswersList(); err != nil {
			return nil, fmt.Errorf("embedded answers: %w", err)
		}
		if allowList, err = assets.AllowedList(); err != nil {
			return nil, fmt.Errorf("embedded allowed: %w", err)
		}
	}
	return New(ansList, allowList, opts.Width, opts.Calendar)
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// normalize lowercases and trims each entry, keeping valid words in order.
func normalize(list []string, width int) []string {
	out := make([]string, 0, len(list))
	for _, line := range list {
		w := strings.TrimSpace(strings.ToLower(line))
		if len(w) == width && isAlpha(w) {
			out = append(out, w)
		}
	}
	return out
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Width returns the letter count of every word in the source.
func (s *Source) Width() int { return s.width }

// Calendar returns the calendar used for daily words.
func (s *Source) Calendar() daily.Calendar { return s.cal }

// IsValidGuess reports whether w is in the dictionary (answers ∪ allowed).
func (s *Source) IsValidGuess(w string) bool {
	_, ok := s.allowed[strings.ToLower(w)]
	return ok
}

// Stats returns counts of loaded words: (answers, allowed).
func (s *Source) Stats() (answersCount int, allowedCount int) {
	return len(s.answers), len(s.allowed)
}
