package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 2 * time.Second
)

// TailOptions selects which lines Tail returns.
type TailOptions struct {
	// Limit caps the number of lines returned; zero or less returns none and
	// only reports the end offset.
	Limit int
	// Match keeps only lines containing this substring, typically a run id.
	Match string
}

// TailResult carries the selected lines and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail returns the last matching lines of the file at path. A missing file
// yields an empty result.
func Tail(path string, opts TailOptions) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{}, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Limit <= 0 {
		return TailResult{Offset: info.Size()}, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ring := make([]string, opts.Limit)
	count, idx := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		if !matches(line, opts.Match) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % opts.Limit
		if count < opts.Limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return TailResult{}, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return TailResult{}, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]string, count)
	if count == opts.Limit {
		for i := range count {
			lines[i] = ring[(idx+i)%opts.Limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return TailResult{Lines: lines, Offset: offset}, nil
}

// Follow hands each new matching line appended to path after offset to emit
// until ctx is cancelled. It wakes on filesystem events for the log directory
// and on a slow poll. A file that shrinks, as after rotation, is read again
// from the start.
func Follow(ctx context.Context, path string, offset int64, match string, emit func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create log watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch log directory: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	name := filepath.Clean(path)
	for {
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if matches(line, match) {
				emit(line)
			}
		}
		offset = next

	wait:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) == name && event.Has(fsnotify.Write|fsnotify.Create) {
					break wait
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				return fmt.Errorf("watch log file: %w", err)
			case <-ticker.C:
				break wait
			}
		}
	}
}

func readFrom(path string, offset int64) ([]string, int64, error) {
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
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	// Only complete lines are consumed so a line mid-write is picked up whole
	// on the next poll.
	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return lines, offset, nil
}

func matches(line, match string) bool {
	return match == "" || strings.Contains(line, match)
}
