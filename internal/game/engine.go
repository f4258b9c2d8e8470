// internal/game/engine.go
//
// Guess evaluation.
//
//   - Evaluate: the game's scoring rule. Each position is judged on its own:
//     correct if the letters match, wrong-pos if the target contains the
//     letter anywhere, else wrong. Repeated guess letters do not consume
//     target letters, so a target with one 'e' can mark two guessed 'e's.
//   - EvaluateClassic: the two-pass multiset rule, selectable with
//     ScoringClassic.
package game

import (
	"errors"
	"strings"
)

// Scoring names a guess evaluation rule.
type Scoring string

const (
	ScoringSimple  Scoring = "simple"
	ScoringClassic Scoring = "classic"
)

// ParseScoring maps a config value onto a Scoring. Empty means simple.
func ParseScoring(s string) (Scoring, error) {
	switch Scoring(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScoringSimple:
		return ScoringSimple, nil
	case ScoringClassic:
		return ScoringClassic, nil
	}
	return "", errors.New("game: unknown scoring " + s)
}

// evaluator returns the evaluation func for the rule.
func (s Scoring) evaluator() func(guess, target string) []Mark {
	if s == ScoringClassic {
		return EvaluateClassic
	}
	return Evaluate
}

// Evaluate marks each guess letter against target position by position.
// Both strings must be the same length of lowercase ASCII letters.
func Evaluate(guess, target string) []Mark {
	res := make([]Mark, len(guess))
	for i := 0; i < len(guess); i++ {
		switch {
		case guess[i] == target[i]:
			res[i] = MarkCorrect
		case strings.IndexByte(target, guess[i]) >= 0:
			res[i] = MarkWrongPosition
		default:
			res[i] = MarkAbsent
		}
	}
	return res
}

// EvaluateClassic implements the standard two‑pass scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as correct.
//   - Count remaining (non‑correct) target letters by letter index.
//
// Pass 2:
//   - For each remaining guess letter: if there is remaining count for that
//     letter, mark wrong-pos and decrement the count; otherwise mark wrong.
func EvaluateClassic(guess, target string) []Mark {
	n := len(guess)
	res := make([]Mark, n)

	// Letter frequency for the non‑correct positions (a–z).
	var counts [26]int

	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			res[i] = MarkCorrect
		} else {
			counts[idx(target[i])]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkCorrect {
			continue
		}
		j := idx(guess[i])
		if j >= 0 && j < 26 && counts[j] > 0 {
			res[i] = MarkWrongPosition
			counts[j]--
		} else {
			res[i] = MarkAbsent
		}
	}
	return res
}

// idx maps a lowercase ASCII letter to 0..25.
func idx(b byte) int { return int(b) - 'a' }

// isAlpha checks that a string consists only of lowercase a–z.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// allCorrect returns true if all marks are MarkCorrect.
func allCorrect(m []Mark) bool {
	for _, x := range m {
		if x != MarkCorrect {
			return false
		}
	}
	return true
}
