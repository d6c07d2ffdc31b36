package core

// streaming.go wraps CSV sources so they can be decoded in constant memory:
//
//   - skipBOM drops a leading UTF-8 byte order mark
//   - UTF8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader tracks bytes read for progress reporting
//
// WrapForStreaming applies all three in the correct order.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitizerBufSize is the size of the sanitizer's scratch buffer.
const sanitizerBufSize = 32 * 1024

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' on the fly.
// It decodes into its own buffer and hands out as much as the caller's
// slice holds, so Read works with any len(p). Multi-byte sequences split
// across upstream reads are carried into the next fill.
type UTF8Sanitizer struct {
	r       io.Reader
	buf     []byte
	out     []byte // sanitized bytes not yet handed out
	pending []byte
	err     error
}

// NewUTF8Sanitizer returns a sanitizer reading from r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		r:       r,
		buf:     make([]byte, sanitizerBufSize),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// fill reads the next chunk from upstream into buf and sanitizes it.
// Any upstream error flushes held-back bytes.
func (s *UTF8Sanitizer) fill() {
	offset := copy(s.buf, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(s.buf[offset:])
	n += offset
	s.err = err
	s.out = s.buf[:s.sanitize(s.buf[:n], err != nil)]
}

// sanitize rewrites data in place and returns the number of bytes to hand out.
// Unless atEOF, an incomplete trailing sequence is held back in pending.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}

		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// CountingReader tracks bytes read for progress reporting.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// WrapForStreaming strips the BOM, sanitizes UTF-8 and counts bytes.
// The BOM must go first; counting wraps everything so BytesRead tracks the
// bytes handed to the CSV reader.
func WrapForStreaming(r io.Reader, totalSize int64) *CountingReader {
	return NewCountingReader(NewUTF8Sanitizer(skipBOM(r)), totalSize)
}

// Source is an opened CSV file with its size.
type Source struct {
	*os.File
	Path string
	Size int64
}

// OpenSource opens a CSV file for streaming.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat source %s: %w", path, err)
	}
	return &Source{File: f, Path: path, Size: info.Size()}, nil
}
