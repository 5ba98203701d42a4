package corpus

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"unsafe"

	"github.com/szibis/des/internal/compression"
)

const excerpt = "../../testdata/hamlet_excerpt.txt"

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
		want  []string
	}{
		{
			name:  "punctuation dropped",
			input: "To be, or not to be, that is the question:",
			want:  []string{"To", "be", "or", "not", "to", "be", "that", "is", "the", "question"},
		},
		{
			name:  "punctuation kept",
			input: "(sleep; perchance)",
			opts:  Options{KeepPunctuation: true},
			want:  []string{"(", "sleep", ";", "perchance", ")"},
		},
		{
			name:  "clitics split",
			input: "there's the oppressor's wrong, can't they'll",
			want:  []string{"there", "'s", "the", "oppressor", "'s", "wrong", "ca", "n't", "they", "'ll"},
		},
		{
			name:  "lowercase",
			input: "The THE the",
			opts:  Options{Lowercase: true},
			want:  []string{"the", "the", "the"},
		},
		{
			name:  "inner punctuation kept in word",
			input: "heart-ache action.--Soft",
			want:  []string{"heart-ache", "action.--Soft"},
		},
		{
			name:  "bare punctuation",
			input: "-- ! ?",
			want:  nil,
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(strings.NewReader(tt.input), tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoad_Plain(t *testing.T) {
	c, err := Load(excerpt, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("expected tokens")
	}
	if c.Tokens[0] != "To" || c.Tokens[1] != "be" {
		t.Errorf("unexpected first tokens %q", c.Tokens[:2])
	}

	n := 0
	for range c.Seq() {
		n++
	}
	if n != c.Len() {
		t.Errorf("Seq yielded %d tokens, Len is %d", n, c.Len())
	}
}

func TestLoad_Compressed(t *testing.T) {
	plain, err := Load(excerpt, Options{Lowercase: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	raw, err := os.ReadFile(excerpt)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		file string
		typ  compression.Type
		opt  string
	}{
		{"hamlet.txt.gz", compression.TypeGzip, ""},
		{"hamlet.txt.zst", compression.TypeZstd, "auto"},
		{"hamlet.txt.lz4", compression.TypeLZ4, ""},
		{"hamlet.bin", compression.TypeSnappy, "snappy"},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			w, err := compression.NewWriter(f, compression.Config{Type: tt.typ})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := w.Write(raw); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}

			c, err := Load(path, Options{Compression: tt.opt, Lowercase: true})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !slices.Equal(c.Tokens, plain.Tokens) {
				t.Errorf("compressed corpus tokenized differently: %d vs %d tokens", c.Len(), plain.Len())
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt"), Options{}); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(excerpt, Options{Compression: "brotli"}); err == nil {
		t.Error("expected error for unsupported compression")
	}
	if _, err := Load(excerpt, Options{Compression: "gzip"}); err == nil {
		t.Error("expected error reading plain text as gzip")
	}
}

func TestTokenize_SharesRepeatedTokens(t *testing.T) {
	tokens, err := Tokenize(strings.NewReader("the cat and the hat, the end"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0] != "the" || tokens[3] != "the" || tokens[5] != "the" {
		t.Fatalf("unexpected tokens %q", tokens)
	}
	if unsafe.StringData(tokens[0]) != unsafe.StringData(tokens[3]) || unsafe.StringData(tokens[3]) != unsafe.StringData(tokens[5]) {
		t.Error("expected repeated tokens to share one interned copy")
	}
}
