// Package assets embeds the default word lists shipped with the server.
//
//   - answers.txt: ordered target words (daily and unlimited modes index into it).
//   - allowed.txt: extra valid guesses; answers are always valid guesses too.
//
// Blank lines and lines starting with '#' are ignored.
package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed allowed.txt answers.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// AnswersList returns the embedded target words in order.
func AnswersList() ([]string, error) {
	return readLines("answers.txt")
}

// AllowedList returns the embedded extra guesses.
func AllowedList() ([]string, error) {
	return readLines("allowed.txt")
}
