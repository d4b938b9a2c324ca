// Package scanfile reads raw wardriving export files as lines and fields.
//
// Wardriving tools emit CSV-ish files whose first line is free-form device
// metadata and whose second line is the column header. Files are frequently
// malformed (ragged rows, stray delimiters, broken encodings), so this
// package never interprets content: it splits bytes into lines and lines
// into fields, passing invalid byte sequences through untouched. All
// interpretation happens in the loader and repair layers.
package scanfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const utf8BOM = "\ufeff"

// MetaLineCount is the number of leading non-data lines in a scan export:
// line 1 is device metadata, line 2 is the column header.
const MetaLineCount = 2

// ErrTooShort reports a file without at least a metadata line and a
// header line. Nothing can be recovered or repaired below that.
var ErrTooShort = errors.New("scan file has fewer than 2 lines")

// File is a scan export split into raw lines. Lines are stored without
// their terminators; line numbers reported to operators are 1-based.
type File struct {
	Path  string
	Lines []string

	// FinalNewline, CRLF and BOM record the source framing so a rewrite
	// can reproduce it byte-for-byte.
	FinalNewline bool
	CRLF         bool
	BOM          bool
}

// Read loads the whole file and splits it into lines. A UTF-8 BOM on the
// first line is stripped; trailing CRs are removed per line. The read is
// bounded by the file size, so no limit parameter is needed.
func Read(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scan file: %w", err)
	}
	defer f.Close()

	readahead(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read scan file: %w", err)
	}
	sf := &File{Path: path}
	splitLines(string(data), sf)
	return sf, nil
}

// splitLines splits content on '\n' into f.Lines, trimming a trailing
// '\r' from each line and a BOM from the first, and records the framing
// it removed. Line-ending style is taken from the first line; a file with
// mixed endings is rewritten uniformly.
func splitLines(content string, f *File) {
	if content == "" {
		return
	}
	f.FinalNewline = strings.HasSuffix(content, "\n")
	if f.FinalNewline {
		content = content[:len(content)-1]
	}
	f.Lines = strings.Split(content, "\n")
	f.CRLF = strings.HasSuffix(f.Lines[0], "\r") && (len(f.Lines) > 1 || f.FinalNewline)
	for i, l := range f.Lines {
		f.Lines[i] = strings.TrimSuffix(l, "\r")
	}
	if strings.HasPrefix(f.Lines[0], utf8BOM) {
		f.Lines[0] = strings.TrimPrefix(f.Lines[0], utf8BOM)
		f.BOM = true
	}
}

// Render reassembles lines into file bytes under f's original framing:
// BOM, line-ending style, and final-newline state.
func (f *File) Render(lines []string) []byte {
	sep := "\n"
	if f.CRLF {
		sep = "\r\n"
	}
	var b strings.Builder
	if f.BOM {
		b.WriteString(utf8BOM)
	}
	b.WriteString(strings.Join(lines, sep))
	if f.FinalNewline {
		b.WriteString(sep)
	}
	return []byte(b.String())
}

// DataLines returns the lines after the metadata and header lines. The
// slice aliases the file's backing array; callers must not mutate it.
func (f *File) DataLines() []string {
	if len(f.Lines) <= MetaLineCount {
		return nil
	}
	return f.Lines[MetaLineCount:]
}

// Header splits the header line (line 2) on delim. It returns nil when the
// file is too short to have one.
func (f *File) Header(delim rune) []string {
	if len(f.Lines) < MetaLineCount {
		return nil
	}
	return Split(f.Lines[1], delim)
}

// Split divides a line into fields on delim. No quote handling: survey
// tools do not quote fields, and the repair path must round-trip lines
// exactly as they were written.
func Split(line string, delim rune) []string {
	return strings.Split(line, string(delim))
}

// Join is the inverse of Split.
func Join(fields []string, delim rune) string {
	return strings.Join(fields, string(delim))
}

// readahead gives the kernel a best-effort hint that the file will be
// scanned sequentially. Errors are ignored; it is only a hint.
func readahead(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}
