package markup

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"github.com/DEMCON/twincat-tools/internal/source"
)

// Cursor is a byte position inside a document.
type Cursor struct {
	File *source.File
	Off  uint32
}

// NewCursor creates a cursor at the start of the file.
func NewCursor(f *source.File) Cursor {
	if _, err := safecast.Conv[uint32](len(f.Content)); err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return Cursor{File: f, Off: 0}
}

func (c *Cursor) limit() uint32 {
	return uint32(len(c.File.Content))
}

// EOF reports whether the end of the file has been reached.
func (c *Cursor) EOF() bool {
	return c.Off >= c.limit()
}

// Peek reads the current byte if any, otherwise returns 0.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt reads the byte n positions ahead if any, otherwise returns 0.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.limit() {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// Bump moves the cursor one byte forward and returns the byte read.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// Eat consumes the next byte if it matches b.
func (c *Cursor) Eat(b byte) bool {
	if !c.EOF() && c.File.Content[c.Off] == b {
		c.Off++
		return true
	}
	return false
}

// HasPrefix reports whether the bytes at the cursor start with s.
func (c *Cursor) HasPrefix(s string) bool {
	return bytes.HasPrefix(c.File.Content[c.Off:], []byte(s))
}

// EatPrefix consumes s if the bytes at the cursor start with it.
func (c *Cursor) EatPrefix(s string) bool {
	if c.HasPrefix(s) {
		c.Off += uint32(len(s))
		return true
	}
	return false
}

// SeekPast advances the cursor past the next occurrence of s and reports
// whether it was found. On failure the cursor does not move.
func (c *Cursor) SeekPast(s string) bool {
	idx := bytes.Index(c.File.Content[c.Off:], []byte(s))
	if idx < 0 {
		return false
	}
	c.Off += uint32(idx + len(s))
	return true
}
