// Package compression opens compressed corpus streams for reading and writing.
package compression

import (
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type represents a compression algorithm.
type Type string

const (
	// TypeNone means no compression.
	TypeNone Type = "none"
	// TypeGzip uses gzip compression.
	TypeGzip Type = "gzip"
	// TypeZstd uses zstd compression.
	TypeZstd Type = "zstd"
	// TypeSnappy uses the snappy framing format.
	TypeSnappy Type = "snappy"
	// TypeZlib uses zlib compression.
	TypeZlib Type = "zlib"
	// TypeDeflate uses raw deflate compression.
	TypeDeflate Type = "deflate"
	// TypeLZ4 uses the lz4 frame format.
	TypeLZ4 Type = "lz4"
)

// Level represents compression level settings.
type Level int

const (
	// LevelDefault uses the default compression level for the algorithm.
	LevelDefault Level = 0
	// LevelFastest uses the fastest compression (lowest ratio).
	LevelFastest Level = 1
	// LevelBest uses the best compression (highest ratio).
	LevelBest Level = 9
)

// Config holds compression configuration.
type Config struct {
	// Type is the compression algorithm to use.
	Type Type
	// Level is the compression level (algorithm-specific).
	Level Level
}

// extensions maps file suffixes to compression types.
var extensions = map[string]Type{
	".gz":      TypeGzip,
	".gzip":    TypeGzip,
	".zst":     TypeZstd,
	".zstd":    TypeZstd,
	".sz":      TypeSnappy,
	".snappy":  TypeSnappy,
	".zz":      TypeZlib,
	".zlib":    TypeZlib,
	".deflate": TypeDeflate,
	".lz4":     TypeLZ4,
}

// ParseType parses a compression type string. "auto" is not a type; callers
// resolve it with DetectType.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TypeNone, nil
	case "gzip":
		return TypeGzip, nil
	case "zstd":
		return TypeZstd, nil
	case "snappy":
		return TypeSnappy, nil
	case "zlib":
		return TypeZlib, nil
	case "deflate":
		return TypeDeflate, nil
	case "lz4":
		return TypeLZ4, nil
	default:
		return TypeNone, fmt.Errorf("unsupported compression type: %s", s)
	}
}

// DetectType returns the compression type implied by the file extension of path.
func DetectType(path string) Type {
	if t, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return TypeNone
}

// NewReader wraps r with a decompressor for t. Closing the returned reader
// releases decoder resources but does not close r.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch t {
	case TypeNone, "":
		rc = io.NopCloser(r)
	case TypeGzip:
		rc, err = gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
	case TypeZstd:
		dec, derr := zstd.NewReader(r)
		if derr != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", derr)
		}
		rc = dec.IOReadCloser()
	case TypeSnappy:
		rc = io.NopCloser(snappy.NewReader(r))
	case TypeZlib:
		rc, err = zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zlib reader: %w", err)
		}
	case TypeDeflate:
		rc = flate.NewReader(r)
	case TypeLZ4:
		rc = io.NopCloser(lz4.NewReader(r))
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", t)
	}
	streamsOpened.WithLabelValues(string(t), "read").Inc()
	return &countingReader{ReadCloser: rc, t: t}, nil
}

// NewWriter wraps w with a compressor. The returned writer must be closed to
// flush trailing frames; closing it does not close w.
func NewWriter(w io.Writer, cfg Config) (io.WriteCloser, error) {
	var (
		wc  io.WriteCloser
		err error
	)
	switch cfg.Type {
	case TypeNone, "":
		wc = nopWriteCloser{w}
	case TypeGzip:
		wc, err = gzip.NewWriterLevel(w, flateLevel(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
	case TypeZstd:
		wc, err = zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(cfg.Level)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	case TypeSnappy:
		wc = snappy.NewBufferedWriter(w)
	case TypeZlib:
		wc, err = zlib.NewWriterLevel(w, flateLevel(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("failed to create zlib writer: %w", err)
		}
	case TypeDeflate:
		wc, err = flate.NewWriter(w, flateLevel(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("failed to create deflate writer: %w", err)
		}
	case TypeLZ4:
		lw := lz4.NewWriter(w)
		if cfg.Level != LevelDefault {
			if err := lw.Apply(lz4.CompressionLevelOption(lz4Level(cfg.Level))); err != nil {
				return nil, fmt.Errorf("failed to configure lz4 writer: %w", err)
			}
		}
		wc = lw
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", cfg.Type)
	}
	streamsOpened.WithLabelValues(string(cfg.Type), "write").Inc()
	return wc, nil
}

func flateLevel(level Level) int {
	if level == LevelDefault {
		return flate.DefaultCompression
	}
	return int(level)
}

func zstdLevel(level Level) zstd.EncoderLevel {
	switch {
	case level == LevelDefault:
		return zstd.SpeedDefault
	case level <= LevelFastest:
		return zstd.SpeedFastest
	case level >= LevelBest:
		return zstd.SpeedBestCompression
	case level >= 6:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedDefault
	}
}

// lz4Level maps 1-9 onto lz4's Fast, Level1..Level9.
func lz4Level(level Level) lz4.CompressionLevel {
	switch {
	case level <= LevelFastest:
		return lz4.Fast
	case level >= LevelBest:
		return lz4.Level9
	default:
		return lz4.CompressionLevel(1 << (8 + int(level)))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type countingReader struct {
	io.ReadCloser
	t Type
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		bytesRead.WithLabelValues(string(r.t)).Add(float64(n))
	}
	return n, err
}
