// Package tokenizer splits text into sentences and sentences into tokens.
// The concept graph treats segmentation as an external collaborator; this
// package holds the contract and the implementations the binary ships with.
package tokenizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Segmenter turns text into an ordered list of sentences and a sentence into an
// ordered list of tokens. Tokens may include punctuation marks as their own
// entries. Offsets are not guaranteed to be stable.
type Segmenter interface {
	Sentences(ctx context.Context, text string) ([]string, error)
	Tokens(ctx context.Context, sentence string) ([]string, error)
}

// Kinds accepted by New.
const (
	KindRule       = "rule"
	KindWhitespace = "whitespace"
	KindHTTP       = "http"
)

// New builds the segmenter named by kind. url is only used by KindHTTP.
func New(kind, url string) (Segmenter, error) {
	switch kind {
	case "", KindRule:
		return RuleSegmenter{}, nil
	case KindWhitespace:
		return WhitespaceSegmenter{}, nil
	case KindHTTP:
		if url == "" {
			return nil, fmt.Errorf("tokenizer: http segmenter requires a url")
		}
		return NewHTTPSegmenter(url, nil), nil
	}
	return nil, fmt.Errorf("tokenizer: unknown segmenter %q", kind)
}

// SplitSentences breaks text after '.', '!' or '?' when followed by whitespace,
// and on blank lines. Sentences are trimmed; empty ones are dropped.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	flush := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			out = append(out, s)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '.' || r == '!' || r == '?':
			j := i + 1
			for j < len(runes) && isTerminal(runes[j]) {
				j++
			}
			// closing quotes and brackets stay with the sentence
			for j < len(runes) && strings.ContainsRune(`"')]`+"”’", runes[j]) {
				j++
			}
			if j == len(runes) || unicode.IsSpace(runes[j]) {
				flush(j)
				i = j - 1
			}
		case r == '\n' && i+1 < len(runes) && runes[i+1] == '\n':
			flush(i)
		}
	}
	flush(len(runes))
	return out
}

func isTerminal(r rune) bool { return r == '.' || r == '!' || r == '?' }

// wordPattern matches a word (letters, digits, underscore, with inner hyphens or
// apostrophes) or any single non-space symbol.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+(?:[-'\x{2019}][\p{L}\p{N}_]+)*|[^\p{L}\p{N}_\s]`)

// RuleSegmenter is a dependency-free segmenter that emits punctuation as
// separate tokens, close to what treebank-style word tokenizers produce.
type RuleSegmenter struct{}

func (RuleSegmenter) Sentences(_ context.Context, text string) ([]string, error) {
	return SplitSentences(text), nil
}

func (RuleSegmenter) Tokens(_ context.Context, sentence string) ([]string, error) {
	return wordPattern.FindAllString(sentence, -1), nil
}

// WhitespaceSegmenter splits on whitespace and strips surrounding punctuation
// from every word.
type WhitespaceSegmenter struct{}

func (WhitespaceSegmenter) Sentences(_ context.Context, text string) ([]string, error) {
	return SplitSentences(text), nil
}

func (WhitespaceSegmenter) Tokens(_ context.Context, sentence string) ([]string, error) {
	fields := strings.Fields(sentence)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?()[]{}\"'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out, nil
}
