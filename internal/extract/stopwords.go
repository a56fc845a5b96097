package extract

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
)

//go:embed stopwords-en.txt
var defaultStopWords string

// StopWords is an immutable set of case-folded stop words. It is loaded once at
// startup and shared by every pipeline.
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords builds a set from the given words.
func NewStopWords(words ...string) *StopWords {
	sw := &StopWords{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		sw.words[fold(w)] = struct{}{}
	}
	return sw
}

// ParseStopWords reads a line-delimited list. Blank lines and lines starting
// with '#' are ignored.
func ParseStopWords(r io.Reader) (*StopWords, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stop words: %w", err)
	}
	return NewStopWords(words...), nil
}

// LoadStopWords reads the list at path. An empty path yields the embedded
// English list.
func LoadStopWords(path string) (*StopWords, error) {
	if path == "" {
		return DefaultStopWords(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stop words %s: %w", path, err)
	}
	defer f.Close()
	return ParseStopWords(f)
}

// DefaultStopWords returns the embedded English list.
func DefaultStopWords() *StopWords {
	sw, err := ParseStopWords(strings.NewReader(defaultStopWords))
	if err != nil {
		// the embedded list is a plain string; reading it cannot fail
		panic(err)
	}
	return sw
}

// Contains reports whether the case-folded token is a stop word.
func (s *StopWords) Contains(token string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[fold(token)]
	return ok
}

// Len returns the number of distinct stop words.
func (s *StopWords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// fold builds a fresh Caser per call; a Caser must not be shared between
// goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}
