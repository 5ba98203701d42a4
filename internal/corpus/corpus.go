// Package corpus loads text files, optionally compressed, and splits them
// into word tokens for distinct counting.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/szibis/des/internal/compression"
	"github.com/szibis/des/internal/intern"
	"github.com/szibis/des/internal/logging"
)

// maxTokenSize bounds a single whitespace-separated word.
const maxTokenSize = 1 << 20

// Options controls loading and tokenization.
type Options struct {
	// Compression forces a decompressor. Empty or "auto" detects it from the
	// file extension.
	Compression string
	// Lowercase folds tokens to lower case.
	Lowercase bool
	// KeepPunctuation emits punctuation split off words as tokens of their own.
	KeepPunctuation bool
}

// Corpus is a tokenized text held in memory, so its length can be declared
// before the single streaming pass.
type Corpus struct {
	Path   string
	Tokens []string
}

// Len returns the number of tokens.
func (c *Corpus) Len() int {
	return len(c.Tokens)
}

// Seq returns a single-pass sequence over the tokens.
func (c *Corpus) Seq() iter.Seq[string] {
	return slices.Values(c.Tokens)
}

// Load reads and tokenizes the file at path.
func Load(path string, opts Options) (*Corpus, error) {
	t, err := resolveCompression(path, opts.Compression)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	r, err := compression.NewReader(f, t)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s corpus %s: %w", t, path, err)
	}
	defer r.Close()

	tokens, err := Tokenize(r, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize %s: %w", path, err)
	}
	return &Corpus{Path: path, Tokens: tokens}, nil
}

func resolveCompression(path, name string) (compression.Type, error) {
	if name == "" || strings.EqualFold(name, "auto") {
		return compression.DetectType(path), nil
	}
	return compression.ParseType(name)
}

// Tokenize splits r into word tokens. Words are separated by whitespace;
// leading and trailing punctuation is split off and English clitics
// ("n't", "'s", "'ll", ...) become separate tokens. Repeated tokens share
// one interned copy.
func Tokenize(r io.Reader, opts Options) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTokenSize)
	sc.Split(bufio.ScanWords)

	pool := intern.NewPool()
	var tokens []string
	for sc.Scan() {
		word := sc.Text()
		if opts.Lowercase {
			word = strings.ToLower(word)
		}
		tokens = appendWord(tokens, word, opts.KeepPunctuation, pool.Intern)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	hits, misses := pool.Stats()
	logging.Debug("corpus tokenized", logging.F(
		"tokens", len(tokens),
		"interned", misses,
		"intern_hits", hits,
	))
	return tokens, nil
}

var clitics = []string{"n't", "'ll", "'re", "'ve", "'s", "'m", "'d"}

func appendWord(tokens []string, word string, keepPunct bool, canon func(string) string) []string {
	start, end := 0, len(word)
	var trailing []string

	for start < end {
		r, size := utf8.DecodeRuneInString(word[start:])
		if !isPunct(r) {
			break
		}
		if keepPunct {
			tokens = append(tokens, canon(word[start:start+size]))
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(word[start:end])
		if !isPunct(r) {
			break
		}
		if keepPunct {
			trailing = append(trailing, canon(word[end-size:end]))
		}
		end -= size
	}

	core := word[start:end]
	if core != "" {
		lower := strings.ToLower(core)
		split := false
		for _, c := range clitics {
			if len(core) > len(c) && strings.HasSuffix(lower, c) {
				tokens = append(tokens, canon(core[:len(core)-len(c)]), canon(core[len(core)-len(c):]))
				split = true
				break
			}
		}
		if !split {
			tokens = append(tokens, canon(core))
		}
	}

	for i := len(trailing) - 1; i >= 0; i-- {
		tokens = append(tokens, trailing[i])
	}
	return tokens
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
