// Package tailer incrementally reads a growing log file owned by an
// external process, surviving rotation and truncation.
package tailer

import (
	"errors"
	"io"
	"os"
	"strings"

	"pedtrack/internal/event"
)

// ErrLogUnavailable is returned by New when the log file does not exist yet.
// Callers retry at their own interval; the tailer never terminates anything.
var ErrLogUnavailable = errors.New("log file unavailable")

// Signal reports a structural anomaly recovered during a poll. These are
// informational, not errors.
type Signal int

const (
	// Rotated: the path now points at a different file; reading restarted
	// from offset zero of the new file.
	Rotated Signal = iota
	// Truncated: the same file shrank below the stored offset; reading
	// restarted from offset zero.
	Truncated
)

func (s Signal) String() string {
	if s == Rotated {
		return "rotated"
	}
	return "truncated"
}

// Line is one complete log line and the position at which it ended.
type Line struct {
	Text string
	Pos  event.Position
}

// Tailer reads new complete lines from a single log file across polls.
// Not safe for concurrent use; the monitor owns it on one goroutine.
type Tailer struct {
	path       string
	file       *os.File
	info       os.FileInfo // identity captured at open
	offset     int64       // last successfully consumed byte
	generation uint64      // bumps on rotation
	partial    strings.Builder
}

// New opens the log at path, positioned at the current end of file so only
// lines written after open are reported. Returns ErrLogUnavailable when the
// file does not exist.
func New(path string) (*Tailer, error) {
	t := &Tailer{path: path}
	if err := t.open(false); err != nil {
		return nil, err
	}
	return t, nil
}

// NewFromStart is New but reading from the beginning of the file. Used by
// tests and replay tooling.
func NewFromStart(path string) (*Tailer, error) {
	t := &Tailer{path: path}
	if err := t.open(true); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tailer) open(fromStart bool) error {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrLogUnavailable
		}
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	t.file = f
	t.info = info
	t.offset = 0
	t.partial.Reset()
	if fromStart {
		return nil
	}
	t.offset = info.Size()
	return nil
}

// Close releases the underlying file handle.
func (t *Tailer) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// Offset returns the byte offset of the last consumed byte.
func (t *Tailer) Offset() int64 { return t.offset }

// Generation returns the current file-identity generation.
func (t *Tailer) Generation() uint64 { return t.generation }

// Poll returns all complete lines appended since the last poll, plus any
// rotation/truncation signals recovered along the way. It never blocks and
// never raises transient I/O conditions: a momentarily unreadable file
// yields an empty poll and is retried next time.
func (t *Tailer) Poll() ([]Line, []Signal, error) {
	var signals []Signal

	cur, err := os.Stat(t.path)
	if err != nil {
		// File momentarily missing or locked: retry on the next poll.
		return nil, nil, nil
	}

	if !os.SameFile(t.info, cur) {
		// Rotation: a new file took over the path. Start over from byte
		// zero of the new file; buffered partial content belonged to the
		// old file and is discarded.
		t.file.Close()
		if err := t.open(true); err != nil {
			return nil, nil, nil
		}
		t.generation++
		signals = append(signals, Rotated)
	} else if cur.Size() < t.offset+int64(t.partial.Len()) {
		// Truncation: same file, shrunk below our offset. Re-read from the
		// start. The generation is unchanged so replayed identical content
		// carries identical positions and the deduplicator can catch it.
		if _, err := t.file.Seek(0, io.SeekStart); err != nil {
			return nil, nil, nil
		}
		t.offset = 0
		t.partial.Reset()
		signals = append(signals, Truncated)
	}

	lines, err := t.read()
	if err != nil {
		return lines, signals, nil
	}
	return lines, signals, nil
}

// read consumes bytes beyond the stored offset, splitting on line
// terminators. A trailing fragment with no terminator is buffered for the
// next poll so an incomplete line is never emitted. Buffered partial bytes
// count toward the resume position, so they are read exactly once.
func (t *Tailer) read() ([]Line, error) {
	if _, err := t.file.Seek(t.offset+int64(t.partial.Len()), io.SeekStart); err != nil {
		return nil, err
	}

	var lines []Line
	buf := make([]byte, 64*1024)
	for {
		n, err := t.file.Read(buf)
		for i := 0; i < n; i++ {
			b := buf[i]
			if b != '\n' {
				t.partial.WriteByte(b)
				continue
			}
			t.offset += int64(t.partial.Len()) + 1
			text := strings.TrimSuffix(t.partial.String(), "\r")
			t.partial.Reset()
			if text == "" {
				continue
			}
			lines = append(lines, Line{
				Text: text,
				Pos:  event.Position{Offset: t.offset, Generation: t.generation},
			})
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			return lines, err
		}
		if n == 0 {
			return lines, nil
		}
	}
}
