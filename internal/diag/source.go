// Package diag provides the source-file and diagnostic model shared by every
// compiler stage: byte-offset source files with a lazily built line/column
// index, and a severity-tagged diagnostic sink.
package diag

import "fmt"

// Pos is a single point in a source file, 1-based line and column.
type Pos struct {
	File   string
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a byte range [Start,End) into a single source file.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	return s.Start.String()
}

// File is an immutable source buffer plus its name. The offset→(line,column)
// index is built lazily on first use, since most files are never queried for
// every offset (only the ones diagnostics point at).
type File struct {
	Name    string
	Content string

	lineStarts []int // byte offset of the first byte of each line; built lazily
}

// NewFile wraps a source buffer for diagnostic reporting.
func NewFile(name, content string) *File {
	return &File{Name: name, Content: content}
}

func (f *File) ensureIndex() {
	if f.lineStarts != nil {
		return
	}
	starts := []int{0}
	for i := 0; i < len(f.Content); i++ {
		if f.Content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	f.lineStarts = starts
}

// Position converts a byte offset into a 1-based (line,column) Pos.
func (f *File) Position(offset int) Pos {
	f.ensureIndex()
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	// binary search for the last line start <= offset
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line := lo + 1
	col := offset - f.lineStarts[lo] + 1
	return Pos{File: f.Name, Offset: offset, Line: line, Column: col}
}

// Span builds a Span from a pair of byte offsets into this file.
func (f *File) Span(start, end int) Span {
	return Span{Start: f.Position(start), End: f.Position(end)}
}
