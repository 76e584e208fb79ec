// Package logs reads the daemon log file for CLI display.
package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions controls how much history is shown and whether to follow.
type TailOptions struct {
	Limit  int
	Follow bool
	Poll   time.Duration
}

// Tail emits the last Limit lines of the log file, then, when Follow is set,
// keeps emitting appended lines until ctx is cancelled. A missing file is
// not an error: follow mode waits for it to appear.
func Tail(ctx context.Context, path string, opts TailOptions, emit func(line string)) error {
	if opts.Poll <= 0 {
		opts.Poll = time.Second
	}

	lines, offset, err := readLastLines(path, opts.Limit)
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit(line)
	}
	if !opts.Follow {
		return nil
	}

	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		lines, next, err := readForward(path, offset)
		if err != nil {
			return err
		}
		offset = next
		for _, line := range lines {
			emit(line)
		}
	}
}

// readLastLines returns up to limit trailing lines and the end-of-file
// offset to continue from.
func readLastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, offset, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]string, limit)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// readForward returns complete lines appended since offset. A shrunken file
// means rotation or truncation; reading restarts from the beginning.
func readForward(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			lines = append(lines, line[:len(line)-1])
			offset += int64(len(line))
			continue
		}
		if errors.Is(err, io.EOF) {
			// Leave a partial trailing line for the next poll.
			return lines, offset, nil
		}
		return lines, offset, fmt.Errorf("read log file: %w", err)
	}
}
