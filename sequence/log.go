package sequence

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimestampFormat is the timestamp layout of experiment log records.
const TimestampFormat = "2006-01-02 15:04:05"

// LogFileName is the experiment log's file name inside the run directory.
const LogFileName = "experiment.log"

// ExperimentLog is the append-only run record: one physical log per
// experiment run, never rewritten, closed exactly once on every exit path.
// Records are formatted as "<timestamp> | <message>\n".
type ExperimentLog struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	closed bool
}

// OpenExperimentLog creates (or truncates) the experiment log in dir.
func OpenExperimentLog(dir string) (*ExperimentLog, error) {
	f, err := os.Create(filepath.Join(dir, LogFileName))
	if err != nil {
		return nil, fmt.Errorf("create experiment log: %w", err)
	}

	return &ExperimentLog{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes one timestamped record.
func (l *ExperimentLog) Append(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLogClosed
	}

	_, err := fmt.Fprintf(l.w, "%s | %s\n", time.Now().Format(TimestampFormat), msg)

	return err
}

// Appendf writes one timestamped record with fmt-style formatting.
func (l *ExperimentLog) Appendf(format string, args ...any) error {
	return l.Append(fmt.Sprintf(format, args...))
}

// Flush pushes buffered records to stable storage. Call it after records
// that gate subsequent hardware motion.
func (l *ExperimentLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLogClosed
	}

	if err := l.w.Flush(); err != nil {
		return err
	}

	return l.f.Sync()
}

// Close flushes and closes the log. Close is idempotent.
func (l *ExperimentLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return err
	}

	return l.f.Close()
}
