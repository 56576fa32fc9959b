package sequence

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"uedaq/frame"
)

// Sink receives the frames produced during a run. The engine names frames
// and picks their subdirectory; storage format belongs to the sink.
type Sink interface {
	Store(subdir, name string, f *frame.Frame) error
}

// DirSink stores frames as 16-bit binary PGM files under a root directory.
type DirSink struct {
	root string
}

var _ Sink = (*DirSink)(nil)

// NewDirSink creates a sink rooted at dir. Subdirectories are created by the
// sequencer, not the sink.
func NewDirSink(dir string) *DirSink {
	return &DirSink{root: dir}
}

func (s *DirSink) Store(subdir, name string, f *frame.Frame) error {
	path := filepath.Join(s.root, subdir, name+".pgm")

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store frame: %w", err)
	}

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "P5\n%d %d\n65535\n", f.Width, f.Height)
	// PGM stores 16-bit samples big-endian.
	for _, px := range f.Pix {
		w.WriteByte(byte(px >> 8))
		w.WriteByte(byte(px))
	}

	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("store frame: %w", err)
	}

	return out.Close()
}
